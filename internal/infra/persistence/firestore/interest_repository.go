package firestore

import (
	"context"

	"sofialert/internal/domain/entity"
	"sofialert/internal/domain/repository"
	"sofialert/internal/infra/persistence/model"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// interestRepository implements the repository.InterestRepository interface.
type interestRepository struct {
	client *firestore.Client
}

// NewInterestRepository is the constructor for interestRepository.
func NewInterestRepository(client *firestore.Client) repository.InterestRepository {
	return &interestRepository{
		client: client,
	}
}

func (repo *interestRepository) collection() *firestore.CollectionRef {
	return repo.client.Collection(interestsCollection)
}

// FindAllInterests retrieves the interest zones of all users.
func (repo *interestRepository) FindAllInterests(ctx context.Context) ([]*entity.Interest, error) {
	return collectInterests(repo.collection().Documents(ctx))
}

// FindInterestsByUser retrieves the interest zones of one user.
func (repo *interestRepository) FindInterestsByUser(ctx context.Context, userID string) ([]*entity.Interest, error) {
	return collectInterests(repo.collection().Where("userId", "==", userID).Documents(ctx))
}

func collectInterests(iter *firestore.DocumentIterator) ([]*entity.Interest, error) {
	defer iter.Stop()

	var interests []*entity.Interest
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to iterate interests")
		}

		var interestM model.InterestModel
		if err := snapshot.DataTo(&interestM); err != nil {
			return nil, errors.Wrapf(err, "failed to decode interest %s", snapshot.Ref.ID)
		}
		interests = append(interests, interestM.ToInterestDomain(snapshot.Ref.ID))
	}

	return interests, nil
}
