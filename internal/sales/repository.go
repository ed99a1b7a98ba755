package sales

import (
	"context"

	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/sales/dto"
)

type Repository interface {
	// InsertFold records that a cart is being folded. It reports false when
	// the cart was folded before.
	InsertFold(ctx context.Context, fold *model.SalesFold) (bool, error)
	// AddToSummary adds delta's totals to the (product, vendor) summary row,
	// creating it when absent.
	AddToSummary(ctx context.Context, delta *model.SalesSummary) error

	FindByVendor(ctx context.Context, vendorID string) ([]dto.ProductSales, error)
	VendorTotals(ctx context.Context) ([]dto.VendorTotals, error)
}

// LineSource loads the priced lines of a cart.
type LineSource interface {
	PricedLines(ctx context.Context, cartID string) ([]model.PricedLine, error)
}
