package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/geojson"

	"sofialert/config"
	"sofialert/internal/dates"
	"sofialert/internal/domain/entity"
	"sofialert/internal/domain/repository"
	"sofialert/internal/domain/service"
	"sofialert/internal/errors"
	"sofialert/internal/geo"
	"sofialert/internal/usecase"
)

type ingestService struct {
	logger      *slog.Logger
	cfg         *config.IngestConfig
	messageRepo repository.MessageRepository
	aggRepo     repository.AggregationRepository
	geocoder    service.Geocoder
	publisher   service.EventPublisher
	boundary    *geojson.FeatureCollection
	validate    *validator.Validate
}

// NewIngestService creates the message ingestion and enrichment service.
// boundary may be nil to disable the administrative boundary gate.
func NewIngestService(
	logger *slog.Logger,
	cfg *config.IngestConfig,
	messageRepo repository.MessageRepository,
	aggRepo repository.AggregationRepository,
	geocoder service.Geocoder,
	publisher service.EventPublisher,
	boundary *geojson.FeatureCollection,
) usecase.IngestUsecase {
	return &ingestService{
		logger:      logger,
		cfg:         cfg,
		messageRepo: messageRepo,
		aggRepo:     aggRepo,
		geocoder:    geocoder,
		publisher:   publisher,
		boundary:    boundary,
		validate:    validator.New(),
	}
}

// StoreIncomingMessage persists a crawled message after the date relevance
// gate. An unparsable date expression keeps the message: dropping it on a
// grammar miss would silently lose real notices.
func (s *ingestService) StoreIncomingMessage(ctx context.Context, input *usecase.IncomingMessageInput) (string, error) {
	if err := s.validate.Struct(input); err != nil {
		return "", errors.Wrap(err, "validate incoming message")
	}

	if input.DateText != "" {
		dateRange, err := dates.ParseRange(input.DateText)
		switch {
		case err != nil:
			s.logger.Warn("unparsable date text, keeping message",
				slog.String("dateText", input.DateText),
				slog.Any("error", err))
		case !dateRange.Contains(time.Now().In(dates.Location())):
			return "", usecase.ErrMessageNotRelevant
		}
	}

	now := time.Now()
	crawledAt := input.CrawledAt
	if crawledAt.IsZero() {
		crawledAt = now
	}

	message := &entity.Message{
		Text:         input.Text,
		Source:       input.Source,
		SourceURL:    input.SourceURL,
		Categories:   entity.NormalizeCategories(input.Categories),
		AddressTexts: input.AddressTexts,
		DateText:     input.DateText,
		CrawledAt:    crawledAt,
		CreatedAt:    now,
	}

	if len(input.GeoJSON) != 0 {
		fc, err := geojson.UnmarshalFeatureCollection(input.GeoJSON)
		if err != nil {
			s.logger.Warn("unparsable crawled footprint, ignoring",
				slog.String("source", input.Source),
				slog.Any("error", err))
		} else {
			message.GeoJSON = fc
		}
	}

	id, err := s.messageRepo.CreateMessage(ctx, message)
	if err != nil {
		return "", errors.Wrap(err, "create message")
	}

	return id, nil
}

// EnrichMessage geocodes the raw address texts of a stored message, filters
// the candidates and finalizes the document. Geocoding is best-effort: a
// message whose addresses all fail to resolve still finalizes, just without
// a footprint.
func (s *ingestService) EnrichMessage(ctx context.Context, id string) error {
	message, err := s.messageRepo.FindMessageByID(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "find message %s", id)
	}
	if message.Finalized() {
		return nil
	}

	candidates := s.geocodeAll(ctx, message)
	accepted := geo.FilterOutliers(candidates, s.outlierThreshold())
	accepted = geo.FilterAddresses(accepted, s.boundary)
	footprint := geo.AddressFeatureCollection(accepted)
	if footprint == nil {
		footprint = s.crawledFootprint(message)
	}

	categories := message.Categories
	if len(categories) == 0 {
		categories = []string{entity.CategoryUncategorized}
	}

	if err := s.messageRepo.FinalizeMessage(ctx, id, accepted, footprint, categories); err != nil {
		return errors.Wrapf(err, "finalize message %s", id)
	}

	if err := s.aggRepo.MergeCategories(ctx, categories); err != nil {
		// The aggregation is a rollup for the UI; enrichment already
		// succeeded, so log and move on.
		s.logger.Warn("merge categories failed",
			slog.String("messageId", id),
			slog.Any("error", err))
	}

	event := &service.MatchRunEvent{Reason: "message-finalized", MessageID: id}
	if err := s.publisher.PublishMatchRunEvent(ctx, event); err != nil {
		s.logger.Warn("publish match-run event failed",
			slog.String("messageId", id),
			slog.Any("error", err))
	}

	return nil
}

// EnrichPending enriches all messages awaiting finalization. Per-message
// failures are logged and skipped so one bad document cannot stall the
// backlog.
func (s *ingestService) EnrichPending(ctx context.Context) (int, error) {
	messages, err := s.messageRepo.FindUnfinalizedMessages(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "find unfinalized messages")
	}

	processed := 0
	for _, message := range messages {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		if err := s.EnrichMessage(ctx, message.ID); err != nil {
			s.logger.Error("enrich message failed",
				slog.String("messageId", message.ID),
				slog.Any("error", err))

			continue
		}
		processed++
	}

	return processed, nil
}

// crawledFootprint gates a footprint supplied by the crawler itself against
// the administrative boundary. Geocoded addresses take precedence; this runs
// only when none were accepted. The gate fails open: a footprint whose
// geometry cannot be evaluated is kept whole rather than hiding the message.
func (s *ingestService) crawledFootprint(message *entity.Message) *geojson.FeatureCollection {
	if message.GeoJSON == nil || len(message.GeoJSON.Features) == 0 {
		return nil
	}
	if s.boundary == nil || len(s.boundary.Features) == 0 {
		return message.GeoJSON
	}

	if !geo.IsWithinBoundaries(message.GeoJSON, s.boundary) {
		s.logger.Warn("crawled footprint outside boundaries",
			slog.String("messageId", message.ID))

		return nil
	}

	if filtered := geo.FilterFeatures(message.GeoJSON, s.boundary); filtered != nil {
		return filtered
	}

	// Within per the fail-open check but no feature individually placeable;
	// keep the footprint whole.
	return message.GeoJSON
}

func (s *ingestService) geocodeAll(ctx context.Context, message *entity.Message) []entity.Address {
	var candidates []entity.Address
	for _, text := range message.AddressTexts {
		results, err := s.geocoder.Geocode(ctx, text)
		if err != nil {
			s.logger.Warn("geocoding failed",
				slog.String("messageId", message.ID),
				slog.String("addressText", text),
				slog.Any("error", err))

			continue
		}
		candidates = append(candidates, results...)
	}

	return candidates
}

func (s *ingestService) outlierThreshold() float64 {
	if s.cfg != nil && s.cfg.OutlierMaxDistanceMeters > 0 {
		return s.cfg.OutlierMaxDistanceMeters
	}

	return geo.DefaultOutlierMaxDistanceMeters
}
