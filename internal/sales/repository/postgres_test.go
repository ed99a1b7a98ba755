package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGRepository_InsertFoldOnce(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewPGRepository(db)
	ctx := context.Background()
	c := testutil.SeedCart(t, db, "ABC", nil)

	ok, err := repo.InsertFold(ctx, &model.SalesFold{CartID: c.ID, TransactionRef: "ref-1", FoldedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.InsertFold(ctx, &model.SalesFold{CartID: c.ID, TransactionRef: "ref-2", FoldedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPGRepository_AddToSummaryAccumulates(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewPGRepository(db)
	ctx := context.Background()
	p := testutil.SeedProduct(t, db, "Gaming Laptop", "19.99", "vendor-1", "10.00")
	other := testutil.SeedProduct(t, db, "Chess Set", "5.50", "vendor-2", "10.00")

	add := func(productID, vendorID string, qty int64, sales, commission string) {
		require.NoError(t, repo.AddToSummary(ctx, &model.SalesSummary{
			ID:              productID + "-" + sales,
			ProductID:       productID,
			VendorID:        vendorID,
			TotalQuantity:   qty,
			TotalSales:      model.MustFixed(sales),
			TotalCommission: model.MustFixed(commission),
			LastUpdated:     time.Now().UTC(),
		}))
	}
	add(p.ID, "vendor-1", 3, "59.97", "6.00")
	add(p.ID, "vendor-1", 1, "19.99", "2.00")
	add(other.ID, "vendor-2", 2, "11.00", "1.10")

	rows, err := repo.FindByVendor(ctx, "vendor-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gaming Laptop", rows[0].ProductName)
	assert.Equal(t, int64(4), rows[0].TotalQuantity)
	assert.Equal(t, "79.96", rows[0].TotalSales.String())
	assert.Equal(t, "8.00", rows[0].TotalCommission.String())

	totals, err := repo.VendorTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "vendor-1", totals[0].VendorID)
	assert.Equal(t, "79.96", totals[0].TotalSales.String())
	assert.Equal(t, "vendor-2", totals[1].VendorID)
	assert.Equal(t, "1.10", totals[1].TotalCommission.String())
}
