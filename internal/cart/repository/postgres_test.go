package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGRepository_MarkPaidIsOneWay(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewPGRepository(db)
	ctx := context.Background()
	c := testutil.SeedCart(t, db, "ABC123456", nil)

	ok, err := repo.Touch(ctx, c.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkPaid(ctx, c.ID, "buyer-1", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkPaid(ctx, c.ID, "buyer-2", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Touch(ctx, c.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByCode(ctx, "ABC123456")
	require.NoError(t, err)
	assert.True(t, got.Paid)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "buyer-1", *got.UserID)
}

func TestPGRepository_CreateIfAbsentKeepsFirstCart(t *testing.T) {
	repo := NewPGRepository(database.NewTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.CreateIfAbsent(ctx, &model.Cart{ID: "c-1", Code: "ABC", CreatedAt: now, ModifiedAt: now}))
	require.NoError(t, repo.CreateIfAbsent(ctx, &model.Cart{ID: "c-2", Code: "ABC", CreatedAt: now, ModifiedAt: now}))

	got, err := repo.FindByCode(ctx, "ABC")
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.ID)

	_, err = repo.FindByID(ctx, "c-2")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPGRepository_UpsertLineOverwritesQuantity(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewPGRepository(db)
	ctx := context.Background()
	p := testutil.SeedProduct(t, db, "Gaming Laptop", "19.99", "vendor-1", "10.00")
	c := testutil.SeedCart(t, db, "ABC", nil)

	first, err := repo.UpsertLine(ctx, &model.CartLine{ID: "l-1", CartID: c.ID, ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Quantity)

	second, err := repo.UpsertLine(ctx, &model.CartLine{ID: "l-2", CartID: c.ID, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "l-1", second.ID)
	assert.Equal(t, 1, second.Quantity)
}

func TestPGRepository_PricedLines(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewPGRepository(db)
	laptop := testutil.SeedProduct(t, db, "Gaming Laptop", "19.99", "vendor-1", "10.00")
	chess := testutil.SeedProduct(t, db, "Chess Set", "5.50", "", "10.00")
	c := testutil.SeedCart(t, db, "ABC", map[*model.Product]int{laptop: 3, chess: 2})

	lines, err := repo.PricedLines(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "Chess Set", lines[0].ProductName)
	assert.False(t, lines[0].HasVendor())
	assert.Equal(t, "11.00", lines[0].LineTotal().String())

	assert.Equal(t, "Gaming Laptop", lines[1].ProductName)
	assert.True(t, lines[1].HasVendor())
	assert.Equal(t, "59.97", lines[1].LineTotal().String())

	assert.Equal(t, "70.97", model.Subtotal(lines).String())
}
