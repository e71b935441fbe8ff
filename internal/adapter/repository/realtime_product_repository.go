package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/infrastructure/realtime"
	apperrors "storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

const productsRoot = "products"

type realtimeProductRepository struct {
	store realtime.DocumentStore
}

// NewRealtimeProductRepository keeps the catalog under products/{id} in the
// same document store as reviews.
func NewRealtimeProductRepository(store realtime.DocumentStore) repository.ProductRepository {
	return &realtimeProductRepository{
		store: store,
	}
}

func (r *realtimeProductRepository) Create(ctx context.Context, product *entity.Product) error {
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if product.ID == "" {
		stored := *product
		key, err := r.store.Push(ctx, productsRoot, stored)
		if err != nil {
			return apperrors.Store("Failed to create product", err)
		}
		product.ID = key
		return nil
	}

	path, err := realtime.Join(productsRoot, product.ID)
	if err != nil {
		return pathError(err)
	}
	if err := r.store.Write(ctx, path, product); err != nil {
		return apperrors.Store("Failed to create product", err)
	}
	return nil
}

func (r *realtimeProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	path, err := realtime.Join(productsRoot, id)
	if err != nil {
		return nil, pathError(err)
	}

	snap, err := r.store.Read(ctx, path)
	if err != nil {
		return nil, apperrors.Store("Failed to get product", err)
	}
	if !snap.Exists() {
		return nil, apperrors.NotFound("Product", nil)
	}

	var product entity.Product
	if err := snap.Unmarshal(&product); err != nil {
		return nil, apperrors.Parse("Failed to parse product data", err)
	}
	product.ID = id

	return &product, nil
}

func (r *realtimeProductRepository) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Product, int64, error) {
	snap, err := r.store.Read(ctx, productsRoot)
	if err != nil {
		return nil, 0, apperrors.Store("Failed to list products", err)
	}

	products := make([]*entity.Product, 0)
	if !snap.Exists() {
		return products, 0, nil
	}

	var entries map[string]json.RawMessage
	if err := snap.Unmarshal(&entries); err != nil {
		return nil, 0, apperrors.Parse("Failed to parse product catalog", err)
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var product entity.Product
		if err := json.Unmarshal(entries[key], &product); err != nil {
			logger.Warn("Skipping malformed product %s: %v", key, err)
			continue
		}
		product.ID = key
		if matchesFilter(&product, filter) {
			products = append(products, &product)
		}
	}

	total := len(products)
	start, end := utils.Window(total, limit, offset)
	return products[start:end], int64(total), nil
}

func matchesFilter(p *entity.Product, filter map[string]interface{}) bool {
	for key, want := range filter {
		var got string
		switch key {
		case "type":
			got = p.Type
		case "condition":
			got = p.Condition
		case "sellerId":
			got = p.SellerID
		default:
			continue
		}
		if got != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
