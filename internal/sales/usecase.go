package sales

import (
	"context"

	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/sales/dto"
)

type Aggregator interface {
	// FoldPaidCart adds a paid cart's vendor lines to the sales summaries
	// exactly once per cart. It returns the vendors touched and whether this
	// call did the fold. Run it inside the settlement transaction.
	FoldPaidCart(ctx context.Context, cartID, ref string) ([]string, bool, error)

	VendorSummary(ctx context.Context, principal *auth.Principal, vendorID string) (*dto.VendorStats, error)
	PlatformSummary(ctx context.Context, principal *auth.Principal) (*dto.PlatformStats, error)
	Invalidate(ctx context.Context, vendorIDs []string)
}

// Commission is the platform share of lineTotal at rate percent.
func Commission(lineTotal, rate model.Fixed) model.Fixed {
	return lineTotal.PercentOf(rate)
}
