package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/product/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(id, name, slug, category string, vendorID *string) *model.Product {
	now := time.Now().UTC()
	return &model.Product{
		BaseModel:      model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		Name:           name,
		Slug:           slug,
		Image:          "https://cdn.example.com/" + slug + ".png",
		Price:          model.MustFixed("19.99"),
		Category:       &category,
		VendorID:       vendorID,
		CommissionRate: model.MustFixed("10.00"),
	}
}

func TestPGRepository_CreateAndFind(t *testing.T) {
	repo := NewPGRepository(database.NewTestDB(t))
	ctx := context.Background()
	vendor := "vendor-1"

	inserted, err := repo.Create(ctx, newProduct("p-1", "Gaming Laptop", "gaming-laptop", model.CategoryElectronics, &vendor))
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := repo.FindBySlug(ctx, "gaming-laptop")
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
	assert.Equal(t, "19.99", got.Price.String())
	assert.Equal(t, "10.00", got.CommissionRate.String())
	require.NotNil(t, got.VendorID)
	assert.Equal(t, vendor, *got.VendorID)
	assert.Nil(t, got.Description)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPGRepository_CreateSkipsTakenSlug(t *testing.T) {
	repo := NewPGRepository(database.NewTestDB(t))
	ctx := context.Background()

	inserted, err := repo.Create(ctx, newProduct("p-1", "Laptop", "laptop", model.CategoryElectronics, nil))
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = repo.Create(ctx, newProduct("p-2", "Laptop", "laptop", model.CategoryElectronics, nil))
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestPGRepository_FindAll(t *testing.T) {
	repo := NewPGRepository(database.NewTestDB(t))
	ctx := context.Background()
	vendor := "vendor-1"

	for _, p := range []*model.Product{
		newProduct("p-1", "Gaming Laptop", "gaming-laptop", model.CategoryElectronics, &vendor),
		newProduct("p-2", "Chess Set", "chess-set", model.CategoryGames, nil),
		newProduct("p-3", "Office Laptop", "office-laptop", model.CategoryElectronics, nil),
	} {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	all, err := repo.FindAll(ctx, &dto.ProductFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	games, err := repo.FindAll(ctx, &dto.ProductFilters{Category: model.CategoryGames})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "p-2", games[0].ID)

	laptops, err := repo.FindAll(ctx, &dto.ProductFilters{SearchQuery: "LAPTOP"})
	require.NoError(t, err)
	assert.Len(t, laptops, 2)

	byVendor, err := repo.FindAll(ctx, &dto.ProductFilters{VendorID: vendor})
	require.NoError(t, err)
	require.Len(t, byVendor, 1)
	assert.Equal(t, "p-1", byVendor[0].ID)
}
