package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/cart"
	"github.com/fekuna/omnipos-marketplace-service/internal/cart/dto"
	cartrepo "github.com/fekuna/omnipos-marketplace-service/internal/cart/repository"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	productrepo "github.com/fekuna/omnipos-marketplace-service/internal/product/repository"
	"github.com/fekuna/omnipos-marketplace-service/internal/testutil"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db     *sqlx.DB
	repo   *cartrepo.PGRepository
	uc     cart.UseCase
	laptop *model.Product
}

func newFixture(t *testing.T) *fixture {
	db := database.NewTestDB(t)
	repo := cartrepo.NewPGRepository(db)
	return &fixture{
		db:     db,
		repo:   repo,
		uc:     NewCartUseCase(repo, productrepo.NewPGRepository(db), database.NewTxManager(db), logger.NewNop()),
		laptop: testutil.SeedProduct(t, db, "Gaming Laptop", "19.99", "vendor-1", "10.00"),
	}
}

func (f *fixture) markPaid(t *testing.T, c *model.Cart) {
	ok, err := f.repo.MarkPaid(context.Background(), c.ID, "buyer-1", time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGetOrCreateCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.GetOrCreateCart(ctx, "ABC123456")
	require.NoError(t, err)
	assert.False(t, first.Paid)

	second, err := f.uc.GetOrCreateCart(ctx, "ABC123456")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateCart_ValidatesCode(t *testing.T) {
	f := newFixture(t)

	for _, code := range []string{"", "ABCDEFGHIJKL"} {
		_, err := f.uc.GetOrCreateCart(context.Background(), code)
		assert.ErrorIs(t, err, apperror.ErrValidation, "code %q", code)
	}
}

func TestAddOrSetLine_ReAddOverwritesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.uc.GetOrCreateCart(ctx, "ABC")
	require.NoError(t, err)

	line, err := f.uc.AddOrSetLine(ctx, c, f.laptop.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)

	again, err := f.uc.AddOrSetLine(ctx, c, f.laptop.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, line.ID, again.ID)
	assert.Equal(t, 1, again.Quantity)
}

func TestAddOrSetLine_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.uc.GetOrCreateCart(ctx, "ABC")
	require.NoError(t, err)

	_, err = f.uc.AddOrSetLine(ctx, c, "missing-product", 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.uc.AddOrSetLine(ctx, c, f.laptop.ID, -2)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	line, err := f.uc.AddItem(ctx, "ABC", &dto.AddItemInput{ProductID: f.laptop.ID, Quantity: 1})
	require.NoError(t, err)

	updated, err := f.uc.UpdateQuantity(ctx, line.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	_, err = f.uc.UpdateQuantity(ctx, line.ID, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.uc.UpdateQuantity(ctx, "missing", 2)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRemoveLine_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	line, err := f.uc.AddItem(ctx, "ABC", &dto.AddItemInput{ProductID: f.laptop.ID})
	require.NoError(t, err)

	require.NoError(t, f.uc.RemoveLine(ctx, line.ID))
	require.NoError(t, f.uc.RemoveLine(ctx, line.ID))

	view, err := f.uc.GetCart(ctx, "ABC")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestPaidCart_RejectsMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	line, err := f.uc.AddItem(ctx, "ABC", &dto.AddItemInput{ProductID: f.laptop.ID, Quantity: 2})
	require.NoError(t, err)
	c, err := f.uc.GetOrCreateCart(ctx, "ABC")
	require.NoError(t, err)
	f.markPaid(t, c)

	// A stale cart value still fails: the paid check runs in SQL.
	_, err = f.uc.AddOrSetLine(ctx, c, f.laptop.ID, 1)
	assert.ErrorIs(t, err, apperror.ErrState)

	_, err = f.uc.UpdateQuantity(ctx, line.ID, 4)
	assert.ErrorIs(t, err, apperror.ErrState)

	assert.ErrorIs(t, f.uc.RemoveLine(ctx, line.ID), apperror.ErrState)

	_, err = f.uc.GetOrCreateCart(ctx, "ABC")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.uc.GetCart(ctx, "ABC")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := f.repo.FindLine(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
}

func TestGetCart_Totals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chess := testutil.SeedProduct(t, f.db, "Chess Set", "5.50", "", "10.00")

	_, err := f.uc.AddItem(ctx, "ABC", &dto.AddItemInput{ProductID: f.laptop.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.uc.AddItem(ctx, "ABC", &dto.AddItemInput{ProductID: chess.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := f.uc.GetCart(ctx, "ABC")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 4, view.ItemCount)
	assert.Equal(t, "65.47", view.Subtotal.String())

	_, err = f.uc.GetCart(ctx, "NOPE")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestProductInCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.AddItem(ctx, "ABC", &dto.AddItemInput{ProductID: f.laptop.ID})
	require.NoError(t, err)

	ok, err := f.uc.ProductInCart(ctx, "ABC", f.laptop.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.uc.ProductInCart(ctx, "ABC", "other")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.uc.ProductInCart(ctx, "NOCART", f.laptop.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
