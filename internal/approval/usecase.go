package approval

import (
	"context"

	"github.com/fekuna/omnipos-marketplace-service/internal/approval/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

// UseCase is the seller product-request workflow: pending requests are
// approved into catalog products or rejected, once.
type UseCase interface {
	Submit(ctx context.Context, principal *auth.Principal, input *dto.SubmitInput) (*model.ProductRequest, error)
	Approve(ctx context.Context, principal *auth.Principal, requestID string) (*model.Product, error)
	Reject(ctx context.Context, principal *auth.Principal, requestID string, notes string) (*model.ProductRequest, error)

	CalculateBenefit(ctx context.Context, principal *auth.Principal, requestID string) (*dto.Benefit, error)
	GetRequest(ctx context.Context, principal *auth.Principal, requestID string) (*model.ProductRequest, error)
	ListVendorRequests(ctx context.Context, principal *auth.Principal) ([]model.ProductRequest, error)
	ListPending(ctx context.Context, principal *auth.Principal) ([]model.ProductRequest, error)
}
