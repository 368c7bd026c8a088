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

// deviceRepository implements the repository.DeviceRepository interface.
type deviceRepository struct {
	client *firestore.Client
}

// NewDeviceRepository is the constructor for deviceRepository.
func NewDeviceRepository(client *firestore.Client) repository.DeviceRepository {
	return &deviceRepository{
		client: client,
	}
}

func (repo *deviceRepository) collection() *firestore.CollectionRef {
	return repo.client.Collection(devicesCollection)
}

// FindDevicesByUser retrieves all devices registered for a user.
func (repo *deviceRepository) FindDevicesByUser(ctx context.Context, userID string) ([]*entity.UserDevice, error) {
	iter := repo.collection().Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	var devices []*entity.UserDevice
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to iterate devices")
		}

		var deviceM model.UserDeviceModel
		if err := snapshot.DataTo(&deviceM); err != nil {
			return nil, errors.Wrapf(err, "failed to decode device %s", snapshot.Ref.ID)
		}
		devices = append(devices, deviceM.ToDeviceDomain(snapshot.Ref.ID))
	}

	return devices, nil
}

// DeleteDevice removes a device whose token was rejected as invalid. Deleting
// an already absent document is a no-op.
func (repo *deviceRepository) DeleteDevice(ctx context.Context, id string) error {
	if _, err := repo.collection().Doc(id).Delete(ctx); err != nil {
		return errors.Wrap(err, "failed to delete device")
	}

	return nil
}
