package impl

import (
	"context"
	"fmt"
	"sync"

	"github.com/paulmach/orb/geojson"

	"sofialert/internal/domain/entity"
	"sofialert/internal/domain/repository"
	"sofialert/internal/domain/service"
)

// In-memory fakes for the repository and service interfaces. Guarded by a
// mutex because the matching run exercises them from worker goroutines.

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[string]*entity.Message
	nextID   int

	finalizeErr error
	markSentErr error

	finalized map[string]finalizeCall
	marked    []string
}

type finalizeCall struct {
	addresses  []entity.Address
	footprint  *geojson.FeatureCollection
	categories []string
}

func newFakeMessageRepo(messages ...*entity.Message) *fakeMessageRepo {
	repo := &fakeMessageRepo{
		messages:  make(map[string]*entity.Message),
		finalized: make(map[string]finalizeCall),
	}
	for _, message := range messages {
		repo.messages[message.ID] = message
	}

	return repo
}

func (r *fakeMessageRepo) CreateMessage(_ context.Context, message *entity.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	message.ID = fmt.Sprintf("msg-%d", r.nextID)
	r.messages[message.ID] = message

	return message.ID, nil
}

func (r *fakeMessageRepo) FindMessageByID(_ context.Context, id string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.messages[id]
	if !ok {
		return nil, repository.ErrMessageNotFound
	}

	return message, nil
}

func (r *fakeMessageRepo) FindUnnotifiedMessages(_ context.Context) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Message
	for _, message := range r.messages {
		if message.Finalized() && !message.NotificationsSent {
			out = append(out, message)
		}
	}

	return out, nil
}

func (r *fakeMessageRepo) FindUnfinalizedMessages(_ context.Context) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Message
	for _, message := range r.messages {
		if !message.Finalized() {
			out = append(out, message)
		}
	}

	return out, nil
}

func (r *fakeMessageRepo) FinalizeMessage(_ context.Context, id string, addresses []entity.Address, footprint *geojson.FeatureCollection, categories []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalizeErr != nil {
		return r.finalizeErr
	}
	r.finalized[id] = finalizeCall{addresses: addresses, footprint: footprint, categories: categories}

	return nil
}

func (r *fakeMessageRepo) MarkNotificationsSent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.markSentErr != nil {
		return r.markSentErr
	}
	if message, ok := r.messages[id]; ok {
		message.NotificationsSent = true
	}
	r.marked = append(r.marked, id)

	return nil
}

type fakeInterestRepo struct {
	interests []*entity.Interest
}

func (r *fakeInterestRepo) FindAllInterests(_ context.Context) ([]*entity.Interest, error) {
	return r.interests, nil
}

func (r *fakeInterestRepo) FindInterestsByUser(_ context.Context, userID string) ([]*entity.Interest, error) {
	var out []*entity.Interest
	for _, interest := range r.interests {
		if interest.UserID == userID {
			out = append(out, interest)
		}
	}

	return out, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[string]*entity.NotificationMatch

	createErr error
}

func newFakeMatchRepo(matches ...*entity.NotificationMatch) *fakeMatchRepo {
	repo := &fakeMatchRepo{matches: make(map[string]*entity.NotificationMatch)}
	for _, match := range matches {
		repo.matches[match.ID] = match
	}

	return repo
}

func (r *fakeMatchRepo) FindMatch(_ context.Context, messageID, interestID string) (*entity.NotificationMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	match, ok := r.matches[entity.MatchID(messageID, interestID)]
	if !ok {
		return nil, repository.ErrMatchNotFound
	}

	return match, nil
}

func (r *fakeMatchRepo) CreateMatch(_ context.Context, match *entity.NotificationMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	r.matches[match.ID] = match

	return nil
}

func (r *fakeMatchRepo) MarkMatchNotified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	match, ok := r.matches[id]
	if !ok {
		return repository.ErrMatchNotFound
	}
	match.Notified = true

	return nil
}

func (r *fakeMatchRepo) FindMatchesByMessage(_ context.Context, messageID string) ([]*entity.NotificationMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.NotificationMatch
	for _, match := range r.matches {
		if match.MessageID == messageID {
			out = append(out, match)
		}
	}

	return out, nil
}

type fakeDeviceRepo struct {
	mu      sync.Mutex
	byUser  map[string][]*entity.UserDevice
	deleted []string
}

func newFakeDeviceRepo(devices ...*entity.UserDevice) *fakeDeviceRepo {
	repo := &fakeDeviceRepo{byUser: make(map[string][]*entity.UserDevice)}
	for _, device := range devices {
		repo.byUser[device.UserID] = append(repo.byUser[device.UserID], device)
	}

	return repo
}

func (r *fakeDeviceRepo) FindDevicesByUser(_ context.Context, userID string) ([]*entity.UserDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.byUser[userID], nil
}

func (r *fakeDeviceRepo) DeleteDevice(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleted = append(r.deleted, id)

	return nil
}

type sentBatch struct {
	tokens []string
	title  string
	body   string
	data   map[string]string
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches []sentBatch

	sendErr       error
	invalidTokens []string
	failureCount  int
}

func (n *fakeNotifier) SendBatchNotification(_ context.Context, tokens []string, title, body string, data map[string]string) (int, int, []string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sendErr != nil {
		return 0, 0, nil, n.sendErr
	}
	n.batches = append(n.batches, sentBatch{tokens: tokens, title: title, body: body, data: data})

	success := len(tokens) - n.failureCount
	return success, n.failureCount, n.invalidTokens, nil
}

type fakeGeocoder struct {
	results map[string][]entity.Address
	errs    map[string]error
}

func (g *fakeGeocoder) Geocode(_ context.Context, query string) ([]entity.Address, error) {
	if err := g.errs[query]; err != nil {
		return nil, err
	}

	return g.results[query], nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*service.MatchRunEvent

	publishErr error
}

func (p *fakePublisher) PublishMatchRunEvent(_ context.Context, event *service.MatchRunEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.publishErr != nil {
		return p.publishErr
	}
	p.events = append(p.events, event)

	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeAggRepo struct {
	mu     sync.Mutex
	merged [][]string

	mergeErr error
}

func (r *fakeAggRepo) MergeCategories(_ context.Context, categories []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mergeErr != nil {
		return r.mergeErr
	}
	r.merged = append(r.merged, categories)

	return nil
}
