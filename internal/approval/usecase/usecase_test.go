package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/approval"
	"github.com/fekuna/omnipos-marketplace-service/internal/approval/dto"
	approvalrepo "github.com/fekuna/omnipos-marketplace-service/internal/approval/repository"
	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	productrepo "github.com/fekuna/omnipos-marketplace-service/internal/product/repository"
	productusecase "github.com/fekuna/omnipos-marketplace-service/internal/product/usecase"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	seller  = &auth.Principal{UserID: "vendor-1", Role: auth.RoleSeller}
	seller2 = &auth.Principal{UserID: "vendor-2", Role: auth.RoleSeller}
	admin   = &auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}
	buyer   = &auth.Principal{UserID: "buyer-1", Role: auth.RoleCustomer}
)

func newUseCase(t *testing.T, db *sqlx.DB, defaultRate string) approval.UseCase {
	t.Helper()
	rate := model.MustFixed(defaultRate)
	products := productusecase.NewProductUseCase(productrepo.NewPGRepository(db), nil, nil, rate, logger.NewNop())
	return NewApprovalUseCase(approvalrepo.NewPGRepository(db), products, database.NewTxManager(db), rate, logger.NewNop())
}

func laptopInput() *dto.SubmitInput {
	category := model.CategoryElectronics
	return &dto.SubmitInput{
		Name:     "Gaming Laptop",
		Image:    "https://cdn.example.com/laptop.png",
		Price:    model.MustFixed("19.99"),
		Category: &category,
	}
}

func countProducts(t *testing.T, db *sqlx.DB) int {
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM products`))
	return n
}

func TestSubmit(t *testing.T) {
	db := database.NewTestDB(t)
	uc := newUseCase(t, db, "10.00")
	ctx := context.Background()

	req, err := uc.Submit(ctx, seller, laptopInput())
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, "vendor-1", req.VendorID)
	assert.Equal(t, "10.00", req.CommissionRate.String())

	_, err = uc.Submit(ctx, buyer, laptopInput())
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
	_, err = uc.Submit(ctx, admin, laptopInput())
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	bad := laptopInput()
	bad.Image = "javascript:alert(1)"
	_, err = uc.Submit(ctx, seller, bad)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	bad = laptopInput()
	bad.Price = model.MustFixed("-1")
	_, err = uc.Submit(ctx, seller, bad)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestApprove_ScenarioC(t *testing.T) {
	db := database.NewTestDB(t)
	ctx := context.Background()

	req, err := newUseCase(t, db, "10.00").Submit(ctx, seller, laptopInput())
	require.NoError(t, err)

	// The platform default changes after submission; the request keeps its rate.
	uc := newUseCase(t, db, "15.00")
	p, err := uc.Approve(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gaming Laptop", p.Name)
	assert.Equal(t, "gaming-laptop", p.Slug)
	assert.Equal(t, "19.99", p.Price.String())
	require.NotNil(t, p.VendorID)
	assert.Equal(t, "vendor-1", *p.VendorID)
	assert.Equal(t, "10.00", p.CommissionRate.String())

	stored, err := uc.GetRequest(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, stored.Status)
	require.NotNil(t, stored.ProductID)
	assert.Equal(t, p.ID, *stored.ProductID)

	_, err = uc.Approve(ctx, admin, req.ID)
	assert.ErrorIs(t, err, apperror.ErrState)
	_, err = uc.Reject(ctx, admin, req.ID, "too late")
	assert.ErrorIs(t, err, apperror.ErrState)
	assert.Equal(t, 1, countProducts(t, db))
}

func TestApprove_SlugCollisionGetsSuffix(t *testing.T) {
	db := database.NewTestDB(t)
	uc := newUseCase(t, db, "10.00")
	ctx := context.Background()

	first, err := uc.Submit(ctx, seller, laptopInput())
	require.NoError(t, err)
	second, err := uc.Submit(ctx, seller2, laptopInput())
	require.NoError(t, err)

	p1, err := uc.Approve(ctx, admin, first.ID)
	require.NoError(t, err)
	p2, err := uc.Approve(ctx, admin, second.ID)
	require.NoError(t, err)

	assert.Equal(t, "gaming-laptop", p1.Slug)
	assert.Equal(t, "gaming-laptop-1", p2.Slug)
}

func TestReject(t *testing.T) {
	db := database.NewTestDB(t)
	uc := newUseCase(t, db, "10.00")
	ctx := context.Background()

	req, err := uc.Submit(ctx, seller, laptopInput())
	require.NoError(t, err)

	_, err = uc.Reject(ctx, seller, req.ID, "")
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	rejected, err := uc.Reject(ctx, admin, req.ID, "  blurry image ")
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, rejected.Status)
	require.NotNil(t, rejected.AdminNotes)
	assert.Equal(t, "blurry image", *rejected.AdminNotes)

	_, err = uc.Reject(ctx, admin, req.ID, "again")
	assert.ErrorIs(t, err, apperror.ErrState)
	_, err = uc.Approve(ctx, admin, req.ID)
	assert.ErrorIs(t, err, apperror.ErrState)
	assert.Equal(t, 0, countProducts(t, db))

	_, err = uc.Approve(ctx, admin, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCalculateBenefit(t *testing.T) {
	db := database.NewTestDB(t)
	uc := newUseCase(t, db, "10.00")
	ctx := context.Background()

	req, err := uc.Submit(ctx, seller, laptopInput())
	require.NoError(t, err)

	b, err := uc.CalculateBenefit(ctx, seller, req.ID)
	require.NoError(t, err)
	// 19.99 * 10 / 100 = 1.999
	assert.Equal(t, "2.00", b.Benefit.String())
	assert.Equal(t, "10.00", b.CommissionRate.String())

	_, err = uc.CalculateBenefit(ctx, seller2, req.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = uc.CalculateBenefit(ctx, admin, req.ID)
	assert.NoError(t, err)
}

func TestListing(t *testing.T) {
	db := database.NewTestDB(t)
	uc := newUseCase(t, db, "10.00")
	ctx := context.Background()

	mine, err := uc.Submit(ctx, seller, laptopInput())
	require.NoError(t, err)
	theirs, err := uc.Submit(ctx, seller2, laptopInput())
	require.NoError(t, err)
	_, err = uc.Reject(ctx, admin, theirs.ID, "")
	require.NoError(t, err)

	own, err := uc.ListVendorRequests(ctx, seller)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine.ID, own[0].ID)

	pending, err := uc.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, mine.ID, pending[0].ID)

	_, err = uc.ListPending(ctx, seller)
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
}
