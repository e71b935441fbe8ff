package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/infrastructure/realtime"
	apperrors "storefront/pkg/errors"
	"storefront/pkg/logger"
)

const reviewsRoot = "reviews"

type realtimeReviewRepository struct {
	store realtime.DocumentStore
}

func NewRealtimeReviewRepository(store realtime.DocumentStore) repository.ReviewRepository {
	return &realtimeReviewRepository{
		store: store,
	}
}

func (r *realtimeReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	path, err := realtime.Join(reviewsRoot, review.ProductID)
	if err != nil {
		return pathError(err)
	}

	stored := *review
	stored.ID = ""
	stored.ProductID = ""

	key, err := r.store.Push(ctx, path, stored)
	if err != nil {
		return apperrors.Store("Failed to save review", err)
	}

	review.ID = key
	return nil
}

func (r *realtimeReviewRepository) GetByID(ctx context.Context, productID, id string) (*entity.Review, error) {
	path, err := realtime.Join(reviewsRoot, productID, id)
	if err != nil {
		return nil, pathError(err)
	}

	snap, err := r.store.Read(ctx, path)
	if err != nil {
		return nil, apperrors.Store("Failed to get review", err)
	}
	if !snap.Exists() {
		return nil, apperrors.NotFound("Review", nil)
	}

	var review entity.Review
	if err := snap.Unmarshal(&review); err != nil {
		return nil, apperrors.Parse("Failed to parse review data", err)
	}
	review.ID = id
	review.ProductID = productID

	return &review, nil
}

func (r *realtimeReviewRepository) ListByProduct(ctx context.Context, productID string) ([]entity.Review, error) {
	path, err := realtime.Join(reviewsRoot, productID)
	if err != nil {
		return nil, pathError(err)
	}

	snap, err := r.store.Read(ctx, path)
	if err != nil {
		return nil, apperrors.Store("Failed to list reviews", err)
	}

	return decodeReviews(productID, snap), nil
}

func (r *realtimeReviewRepository) Delete(ctx context.Context, productID, id string) error {
	path, err := realtime.Join(reviewsRoot, productID, id)
	if err != nil {
		return pathError(err)
	}

	if err := r.store.Remove(ctx, path); err != nil {
		return apperrors.Store("Failed to delete review", err)
	}
	return nil
}

func (r *realtimeReviewRepository) Subscribe(ctx context.Context, productID string, onChange func([]entity.Review)) (func(), error) {
	path, err := realtime.Join(reviewsRoot, productID)
	if err != nil {
		return nil, pathError(err)
	}

	unsubscribe, err := r.store.Subscribe(ctx, path, func(snap realtime.Snapshot) {
		onChange(decodeReviews(productID, snap))
	})
	if err != nil {
		return nil, apperrors.Store("Failed to subscribe to reviews", err)
	}
	return unsubscribe, nil
}

// decodeReviews turns the keyed collection into a slice ordered by key.
// Push keys are time ordered, so this is insertion order. Entries that do
// not decode are skipped.
func decodeReviews(productID string, snap realtime.Snapshot) []entity.Review {
	reviews := make([]entity.Review, 0)
	if !snap.Exists() {
		return reviews
	}

	var entries map[string]json.RawMessage
	if err := snap.Unmarshal(&entries); err != nil {
		logger.Warn("Reviews of product %s are not a keyed collection: %v", productID, err)
		return reviews
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var review entity.Review
		if err := json.Unmarshal(entries[key], &review); err != nil {
			logger.Warn("Skipping malformed review %s/%s: %v", productID, key, err)
			continue
		}
		review.ID = key
		review.ProductID = productID
		reviews = append(reviews, review)
	}

	return reviews
}

func pathError(err error) error {
	if errors.Is(err, realtime.ErrInvalidPath) {
		return apperrors.BadRequest("Invalid identifier", err)
	}
	return err
}
