package settlement

import (
	"context"

	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/settlement/dto"
)

// Engine settles carts against external payment gateways. Confirm is
// idempotent per transaction reference.
type Engine interface {
	Initiate(ctx context.Context, principal *auth.Principal, input *dto.InitiateInput) (*dto.InitiateResult, error)
	Confirm(ctx context.Context, input *dto.ConfirmInput) (*dto.Settlement, error)
	GetTransaction(ctx context.Context, ref string) (*model.Transaction, error)
}
