package firestore

import (
	"context"

	"sofialert/internal/domain/entity"
	"sofialert/internal/domain/repository"
	"sofialert/internal/infra/persistence/model"

	"cloud.google.com/go/firestore"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// messageRepository implements the repository.MessageRepository interface.
type messageRepository struct {
	client *firestore.Client
}

// NewMessageRepository is the constructor for messageRepository.
func NewMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &messageRepository{
		client: client,
	}
}

func (repo *messageRepository) collection() *firestore.CollectionRef {
	return repo.client.Collection(messagesCollection)
}

// CreateMessage persists a new incoming message and returns its document ID.
func (repo *messageRepository) CreateMessage(ctx context.Context, message *entity.Message) (string, error) {
	messageM, err := model.FromMessageDomain(message)
	if err != nil {
		return "", err
	}

	docRef, _, err := repo.collection().Add(ctx, messageM)
	if err != nil {
		return "", errors.Wrap(err, "failed to create message")
	}
	message.ID = docRef.ID

	return docRef.ID, nil
}

// FindMessageByID retrieves a message by its document ID.
func (repo *messageRepository) FindMessageByID(ctx context.Context, id string) (*entity.Message, error) {
	snapshot, err := repo.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrMessageNotFound
		}

		return nil, errors.Wrap(err, "failed to find message by ID")
	}

	return decodeMessage(snapshot)
}

// FindUnnotifiedMessages retrieves finalized messages whose notifications
// have not been sent yet. The inequality filter matches the write side: the
// flag is always persisted, so no document escapes the query by omitting it.
func (repo *messageRepository) FindUnnotifiedMessages(ctx context.Context) ([]*entity.Message, error) {
	iter := repo.collection().Where("notificationsSent", "!=", true).Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to iterate unnotified messages")
		}

		message, err := decodeMessage(snapshot)
		if err != nil {
			return nil, err
		}
		if !message.Finalized() {
			continue
		}
		messages = append(messages, message)
	}

	return messages, nil
}

// FindUnfinalizedMessages retrieves messages still awaiting enrichment.
// Pending documents carry an explicit null finalizedAt, which the equality
// filter matches.
func (repo *messageRepository) FindUnfinalizedMessages(ctx context.Context) ([]*entity.Message, error) {
	iter := repo.collection().Where("finalizedAt", "==", nil).Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to iterate unfinalized messages")
		}

		message, err := decodeMessage(snapshot)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

// FinalizeMessage stores the enrichment results and stamps finalizedAt in a
// single document update.
func (repo *messageRepository) FinalizeMessage(ctx context.Context, id string, addresses []entity.Address, footprint *geojson.FeatureCollection, categories []string) error {
	footprintJSON := ""
	if footprint != nil {
		raw, err := footprint.MarshalJSON()
		if err != nil {
			return errors.Wrap(err, "marshal footprint")
		}
		footprintJSON = string(raw)
	}

	updates := []firestore.Update{
		{Path: "addresses", Value: model.FromAddressesDomain(addresses)},
		{Path: "geoJson", Value: footprintJSON},
		{Path: "categories", Value: categories},
		{Path: "finalizedAt", Value: firestore.ServerTimestamp},
	}

	if _, err := repo.collection().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.ErrMessageNotFound
		}

		return errors.Wrap(err, "failed to finalize message")
	}

	return nil
}

// MarkNotificationsSent flips the one-way notificationsSent flag.
func (repo *messageRepository) MarkNotificationsSent(ctx context.Context, id string) error {
	updates := []firestore.Update{
		{Path: "notificationsSent", Value: true},
	}

	if _, err := repo.collection().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.ErrMessageNotFound
		}

		return errors.Wrap(err, "failed to mark notifications sent")
	}

	return nil
}

func decodeMessage(snapshot *firestore.DocumentSnapshot) (*entity.Message, error) {
	var messageM model.MessageModel
	if err := snapshot.DataTo(&messageM); err != nil {
		return nil, errors.Wrapf(err, "failed to decode message %s", snapshot.Ref.ID)
	}

	return messageM.ToMessageDomain(snapshot.Ref.ID)
}
