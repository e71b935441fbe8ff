package repository

import (
	"context"

	"storefront/internal/domain/entity"
)

// ReviewRepository stores reviews grouped per product.
type ReviewRepository interface {
	// Create stores review under its product and sets review.ID.
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, productID, id string) (*entity.Review, error)
	// ListByProduct returns the product's reviews in insertion order.
	ListByProduct(ctx context.Context, productID string) ([]entity.Review, error)
	Delete(ctx context.Context, productID, id string) error
	// Subscribe calls onChange with the complete collection now and after every change.
	Subscribe(ctx context.Context, productID string, onChange func([]entity.Review)) (func(), error)
}
