package approval

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, req *model.ProductRequest) error
	FindByID(ctx context.Context, id string) (*model.ProductRequest, error)
	FindByVendor(ctx context.Context, vendorID string) ([]model.ProductRequest, error)
	FindByStatus(ctx context.Context, status model.RequestStatus) ([]model.ProductRequest, error)

	// Decide moves a pending request to status. It reports false when the
	// request was no longer pending.
	Decide(ctx context.Context, id string, status model.RequestStatus, notes *string, at time.Time) (bool, error)
	AttachProduct(ctx context.Context, id, productID string, at time.Time) error
}
