package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"sofialert/config"
	"sofialert/internal/domain/entity"
	"sofialert/internal/domain/repository"
	"sofialert/internal/domain/service"
	"sofialert/internal/errors"
	"sofialert/internal/geo"
	"sofialert/internal/usecase"
)

const (
	// Firebase batch size limit
	fcmBatchSize = 500

	// Push body is truncated to keep the notification readable on device.
	pushBodyLimit = 180

	defaultWorkers = 4
)

type matchingService struct {
	logger       *slog.Logger
	cfg          *config.MatchingConfig
	messageRepo  repository.MessageRepository
	interestRepo repository.InterestRepository
	matchRepo    repository.MatchRepository
	deviceRepo   repository.DeviceRepository
	notifier     service.NotificationService
	validate     *validator.Validate
}

// NewMatchingService creates the notification matching pipeline.
func NewMatchingService(
	logger *slog.Logger,
	cfg *config.MatchingConfig,
	messageRepo repository.MessageRepository,
	interestRepo repository.InterestRepository,
	matchRepo repository.MatchRepository,
	deviceRepo repository.DeviceRepository,
	notifier service.NotificationService,
) usecase.MatchingUsecase {
	return &matchingService{
		logger:       logger,
		cfg:          cfg,
		messageRepo:  messageRepo,
		interestRepo: interestRepo,
		matchRepo:    matchRepo,
		deviceRepo:   deviceRepo,
		notifier:     notifier,
		validate:     validator.New(),
	}
}

type messageResult struct {
	matched        bool
	matchesCreated int
	pushesSent     int
	pushesFailed   int
	err            error
}

// Run executes one matching pass over all unnotified messages.
func (s *matchingService) Run(ctx context.Context) (*usecase.MatchRunSummary, error) {
	messages, err := s.messageRepo.FindUnnotifiedMessages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "find unnotified messages")
	}

	summary := &usecase.MatchRunSummary{MessagesScanned: len(messages)}
	if len(messages) == 0 {
		return summary, nil
	}

	interests, err := s.interestRepo.FindAllInterests(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "find interests")
	}
	interests = s.usableInterests(interests)

	jobCh := make(chan int)
	resultCh := make(chan messageResult, len(messages))
	workerGroup := s.spawnMatchWorkers(ctx, s.workerCount(len(messages)), jobCh, resultCh, messages, interests)

	for i := range messages {
		if ctx.Err() != nil {
			break
		}
		jobCh <- i
	}
	close(jobCh)
	workerGroup.Wait()
	close(resultCh)

	for result := range resultCh {
		if result.err != nil {
			summary.Failures++
		}
		if result.matched {
			summary.MessagesMatched++
		}
		summary.MatchesCreated += result.matchesCreated
		summary.PushesSent += result.pushesSent
		summary.PushesFailed += result.pushesFailed
	}

	return summary, ctx.Err()
}

func (s *matchingService) workerCount(messageCount int) int {
	workers := defaultWorkers
	if s.cfg != nil && s.cfg.Workers > 0 {
		workers = s.cfg.Workers
	}
	if messageCount < workers {
		return messageCount
	}

	return workers
}

// usableInterests drops records that fail validation or carry a radius
// outside the configured bounds. Bad user data skips quietly instead of
// poisoning the whole run.
func (s *matchingService) usableInterests(interests []*entity.Interest) []*entity.Interest {
	kept := make([]*entity.Interest, 0, len(interests))
	for _, interest := range interests {
		if err := s.validate.Struct(interest); err != nil {
			s.logger.Warn("skipping invalid interest",
				slog.String("interestId", interest.ID),
				slog.Any("error", err))

			continue
		}
		if s.cfg != nil && s.cfg.MinRadiusMeters > 0 && interest.RadiusMeters < s.cfg.MinRadiusMeters {
			continue
		}
		if s.cfg != nil && s.cfg.MaxRadiusMeters > 0 && interest.RadiusMeters > s.cfg.MaxRadiusMeters {
			continue
		}
		kept = append(kept, interest)
	}

	return kept
}

func (s *matchingService) spawnMatchWorkers(
	ctx context.Context,
	workerCount int,
	jobCh <-chan int,
	resultCh chan<- messageResult,
	messages []*entity.Message,
	interests []*entity.Interest,
) *sync.WaitGroup {
	var workerGroup sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		workerGroup.Add(1)
		go func() {
			defer workerGroup.Done()
			for idx := range jobCh {
				if ctx.Err() != nil {
					return
				}

				resultCh <- s.processMessage(ctx, messages[idx], interests)
			}
		}()
	}

	return &workerGroup
}

// processMessage matches one message against all interests sequentially and
// flips its notificationsSent flag when done. The flag flips even when no
// interest matched or some pushes failed: the run is the single delivery
// attempt for a message, and match documents carry the per-pair state.
func (s *matchingService) processMessage(ctx context.Context, message *entity.Message, interests []*entity.Interest) messageResult {
	var result messageResult

	point, ok := geo.RepresentativePoint(message)
	if !ok {
		// Nothing to place on the map. Still flip the flag so the message is
		// not rescanned forever.
		if err := s.messageRepo.MarkNotificationsSent(ctx, message.ID); err != nil {
			result.err = errors.Wrapf(err, "mark notifications sent %s", message.ID)
		}

		return result
	}

	for _, interest := range interests {
		distance := geo.Distance(point, interest.Point())
		if distance > interest.RadiusMeters {
			continue
		}

		created, sent, failed, err := s.dispatchMatch(ctx, message, interest, distance)
		result.matchesCreated += created
		result.pushesSent += sent
		result.pushesFailed += failed
		if err != nil {
			s.logger.Error("match dispatch failed",
				slog.String("messageId", message.ID),
				slog.String("interestId", interest.ID),
				slog.Any("error", err))
			result.err = err

			continue
		}
		result.matched = true
	}

	if result.err != nil {
		// Leave the flag unset so the next run retries the message.
		return result
	}

	if err := s.messageRepo.MarkNotificationsSent(ctx, message.ID); err != nil {
		result.err = errors.Wrapf(err, "mark notifications sent %s", message.ID)
	}

	return result
}

// dispatchMatch records the (message, interest) match and pushes to the
// owner's devices. The match document is looked up first so a rerun over the
// same message never pushes the same pair twice.
func (s *matchingService) dispatchMatch(
	ctx context.Context,
	message *entity.Message,
	interest *entity.Interest,
	distance float64,
) (created, sent, failed int, err error) {
	existing, err := s.matchRepo.FindMatch(ctx, message.ID, interest.ID)
	switch {
	case err == nil:
		if existing.Notified {
			return 0, 0, 0, nil
		}
		// Recorded but never delivered: retry the push only.
	case errors.Is(err, repository.ErrMatchNotFound):
		match := entity.NewNotificationMatch(message.ID, interest.ID, interest.UserID, distance)
		if err := s.matchRepo.CreateMatch(ctx, match); err != nil {
			return 0, 0, 0, errors.Wrap(err, "create match")
		}
		created = 1
	default:
		return 0, 0, 0, errors.Wrap(err, "find match")
	}

	sent, failed, err = s.pushToUser(ctx, message, interest, distance)
	if err != nil {
		return created, sent, failed, err
	}

	if err := s.matchRepo.MarkMatchNotified(ctx, entity.MatchID(message.ID, interest.ID)); err != nil {
		return created, sent, failed, errors.Wrap(err, "mark match notified")
	}

	return created, sent, failed, nil
}

func (s *matchingService) pushToUser(
	ctx context.Context,
	message *entity.Message,
	interest *entity.Interest,
	distance float64,
) (sent, failed int, err error) {
	devices, err := s.deviceRepo.FindDevicesByUser(ctx, interest.UserID)
	if err != nil {
		return 0, 0, errors.Wrap(err, "find devices")
	}
	if len(devices) == 0 {
		return 0, 0, nil
	}

	tokens := make([]string, 0, len(devices))
	deviceByToken := make(map[string]*entity.UserDevice, len(devices))
	for _, device := range devices {
		tokens = append(tokens, device.FCMToken)
		deviceByToken[device.FCMToken] = device
	}

	title := pushTitle(interest)
	body := pushBody(message)
	data := map[string]string{
		"messageId":  message.ID,
		"interestId": interest.ID,
		"distance":   strconv.FormatFloat(distance, 'f', 0, 64),
		"categories": strings.Join(message.Categories, ","),
	}

	var invalidTokens []string
	for i := 0; i < len(tokens); i += fcmBatchSize {
		end := min(i+fcmBatchSize, len(tokens))
		batch := tokens[i:end]

		successCount, failureCount, batchInvalid, err := s.notifier.SendBatchNotification(ctx, batch, title, body, data)
		if err != nil {
			failed += len(batch)
			s.logger.Error("push batch failed",
				slog.String("messageId", message.ID),
				slog.String("userId", interest.UserID),
				slog.Any("error", err))

			continue
		}

		sent += successCount
		failed += failureCount
		invalidTokens = append(invalidTokens, batchInvalid...)
	}

	for _, token := range invalidTokens {
		device, ok := deviceByToken[token]
		if !ok {
			continue
		}
		if err := s.deviceRepo.DeleteDevice(ctx, device.ID); err != nil {
			s.logger.Warn("delete stale device failed",
				slog.String("deviceId", device.ID),
				slog.Any("error", err))
		}
	}

	return sent, failed, nil
}

func pushTitle(interest *entity.Interest) string {
	if interest.Label != "" {
		return fmt.Sprintf("Прекъсване близо до %s", interest.Label)
	}

	return "Прекъсване във вашия район"
}

func pushBody(message *entity.Message) string {
	body := strings.TrimSpace(message.Text)
	if len([]rune(body)) <= pushBodyLimit {
		return body
	}

	return string([]rune(body)[:pushBodyLimit-1]) + "…"
}
