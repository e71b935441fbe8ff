package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/entity"
	"storefront/internal/infrastructure/realtime"
	apperrors "storefront/pkg/errors"
)

func TestProductRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRealtimeProductRepository(realtime.NewMemoryStore())

	stock := 2
	product := &entity.Product{
		Title:         "Mechanical Keyboard",
		Price:         49.5,
		Stock:         &stock,
		Type:          "Keyboard",
		Condition:     entity.ConditionUsed,
		UsedDuration:  "1 year",
		DynamicValues: map[string]interface{}{"switch": "brown"},
	}
	require.NoError(t, repo.Create(ctx, product))
	require.NotEmpty(t, product.ID)

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)
	assert.Equal(t, "Mechanical Keyboard", got.Title)
	require.NotNil(t, got.Stock)
	assert.Equal(t, 2, *got.Stock)
	assert.Equal(t, "brown", got.DynamicValues["switch"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestProductRepositoryGetMissing(t *testing.T) {
	repo := NewRealtimeProductRepository(realtime.NewMemoryStore())

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestProductRepositoryListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	repo := NewRealtimeProductRepository(realtime.NewMemoryStore())

	for _, p := range []*entity.Product{
		{ID: "a", Title: "A", Type: "Phone", Condition: "New"},
		{ID: "b", Title: "B", Type: "Phone", Condition: entity.ConditionUsed},
		{ID: "c", Title: "C", Type: "Laptop", Condition: "New"},
		{ID: "d", Title: "D", Type: "Phone", Condition: "New"},
	} {
		require.NoError(t, repo.Create(ctx, p))
	}

	all, total, err := repo.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)

	phones, total, err := repo.List(ctx, map[string]interface{}{"type": "Phone", "condition": "New"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, phones, 1)
	assert.Equal(t, "d", phones[0].ID)
}

func TestProductRepositoryEmptyCatalog(t *testing.T) {
	repo := NewRealtimeProductRepository(realtime.NewMemoryStore())

	products, total, err := repo.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, products)
}
