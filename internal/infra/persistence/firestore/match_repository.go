package firestore

import (
	"context"

	"sofialert/internal/domain/entity"
	"sofialert/internal/domain/repository"
	"sofialert/internal/infra/persistence/model"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// matchRepository implements the repository.MatchRepository interface.
type matchRepository struct {
	client *firestore.Client
}

// NewMatchRepository is the constructor for matchRepository.
func NewMatchRepository(client *firestore.Client) repository.MatchRepository {
	return &matchRepository{
		client: client,
	}
}

func (repo *matchRepository) collection() *firestore.CollectionRef {
	return repo.client.Collection(matchesCollection)
}

// FindMatch retrieves the match for a (message, interest) pair.
func (repo *matchRepository) FindMatch(ctx context.Context, messageID, interestID string) (*entity.NotificationMatch, error) {
	snapshot, err := repo.collection().Doc(entity.MatchID(messageID, interestID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrMatchNotFound
		}

		return nil, errors.Wrap(err, "failed to find match")
	}

	var matchM model.MatchModel
	if err := snapshot.DataTo(&matchM); err != nil {
		return nil, errors.Wrapf(err, "failed to decode match %s", snapshot.Ref.ID)
	}

	return matchM.ToMatchDomain(snapshot.Ref.ID), nil
}

// CreateMatch persists a new notification match under its deterministic pair
// ID. A concurrent run creating the same pair loses the race harmlessly: the
// document already holding the pair is the same fact.
func (repo *matchRepository) CreateMatch(ctx context.Context, match *entity.NotificationMatch) error {
	_, err := repo.collection().Doc(match.ID).Create(ctx, model.FromMatchDomain(match))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}

		return errors.Wrap(err, "failed to create match")
	}

	return nil
}

// MarkMatchNotified sets the notified flag after a successful dispatch.
func (repo *matchRepository) MarkMatchNotified(ctx context.Context, id string) error {
	updates := []firestore.Update{
		{Path: "notified", Value: true},
	}

	if _, err := repo.collection().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.ErrMatchNotFound
		}

		return errors.Wrap(err, "failed to mark match notified")
	}

	return nil
}

// FindMatchesByMessage retrieves all matches recorded for a message.
func (repo *matchRepository) FindMatchesByMessage(ctx context.Context, messageID string) ([]*entity.NotificationMatch, error) {
	iter := repo.collection().Where("messageId", "==", messageID).Documents(ctx)
	defer iter.Stop()

	var matches []*entity.NotificationMatch
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to iterate matches")
		}

		var matchM model.MatchModel
		if err := snapshot.DataTo(&matchM); err != nil {
			return nil, errors.Wrapf(err, "failed to decode match %s", snapshot.Ref.ID)
		}
		matches = append(matches, matchM.ToMatchDomain(snapshot.Ref.ID))
	}

	return matches, nil
}
