package firestore

import (
	"context"

	"sofialert/internal/domain/repository"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
)

const (
	aggregationsCollection = "aggregations"
	categoryStatsDoc       = "categoryStats"
)

// aggregationRepository implements the repository.AggregationRepository
// interface on a single well-known document.
type aggregationRepository struct {
	client *firestore.Client
}

// NewAggregationRepository is the constructor for aggregationRepository.
func NewAggregationRepository(client *firestore.Client) repository.AggregationRepository {
	return &aggregationRepository{
		client: client,
	}
}

// MergeCategories unions the given categories into the aggregation document.
// ArrayUnion keeps the operation idempotent, and the merge write creates the
// document on first use.
func (repo *aggregationRepository) MergeCategories(ctx context.Context, categories []string) error {
	if len(categories) == 0 {
		return nil
	}

	values := make([]any, 0, len(categories))
	for _, category := range categories {
		values = append(values, category)
	}

	doc := repo.client.Collection(aggregationsCollection).Doc(categoryStatsDoc)
	_, err := doc.Set(ctx, map[string]any{
		"categories": firestore.ArrayUnion(values...),
		"updatedAt":  firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Wrap(err, "failed to merge categories")
	}

	return nil
}
