// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"sofialert/internal/domain/entity"
)

// InterestRepository defines read access to user interest zones. Interests
// are owned by the user-facing API; the pipeline only reads them.
type InterestRepository interface {
	// FindAllInterests retrieves the interest zones of all users.
	FindAllInterests(ctx context.Context) ([]*entity.Interest, error)

	// FindInterestsByUser retrieves the interest zones of one user.
	FindInterestsByUser(ctx context.Context, userID string) ([]*entity.Interest, error)
}
