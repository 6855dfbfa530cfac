package service

import (
	"context"
	"testing"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynchronizer(limit int) skuSynchronizer {
	return skuSynchronizer{maxSKUs: limit, now: time.Now}
}

func TestSynchronize_DuplicateCombinationsAreConflicts(t *testing.T) {
	db := newMemoryDB()
	productID := uuid.New()

	// Repeated axis names collapse to the same combination
	axes := domain.Variants{
		{Name: "size", Values: []string{"S", "M"}},
		{Name: "size", Values: []string{"XL"}},
	}

	err := db.WithinTx(context.Background(), func(ctx context.Context, store repository.Store) error {
		_, err := newTestSynchronizer(10).Synchronize(ctx, store.SKUs(), productID, nil, axes)
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "size=XL")
	assert.Empty(t, db.skusOf(productID))
}

func TestSynchronize_UnchangedIsNoop(t *testing.T) {
	db := newMemoryDB()
	productID := uuid.New()
	axes := domain.Variants{{Name: "size", Values: []string{"S", "M"}}}
	sync := newTestSynchronizer(10)

	var generated int
	require.NoError(t, db.WithinTx(context.Background(), func(ctx context.Context, store repository.Store) error {
		var err error
		generated, err = sync.Synchronize(ctx, store.SKUs(), productID, nil, axes)
		return err
	}))
	assert.Equal(t, 2, generated)
	before := db.skusOf(productID)

	reordered := domain.Variants{{Name: "size", Values: []string{"M", "S"}}}
	require.NoError(t, db.WithinTx(context.Background(), func(ctx context.Context, store repository.Store) error {
		var err error
		generated, err = sync.Synchronize(ctx, store.SKUs(), productID, axes, reordered)
		return err
	}))
	assert.Zero(t, generated)
	assert.Equal(t, before, db.skusOf(productID))
}

func TestSynchronize_CapacityGuard(t *testing.T) {
	sync := newTestSynchronizer(4)

	assert.NoError(t, sync.checkCapacity(domain.Variants{
		{Name: "a", Values: []string{"1", "2"}},
		{Name: "b", Values: []string{"1", "2"}},
	}))
	assert.ErrorIs(t, sync.checkCapacity(domain.Variants{
		{Name: "a", Values: []string{"1", "2", "3"}},
		{Name: "b", Values: []string{"1", "2"}},
	}), domain.ErrValidation)
}
