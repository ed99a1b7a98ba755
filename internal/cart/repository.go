package cart

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

type Repository interface {
	// CreateIfAbsent inserts cart unless its code is already taken.
	CreateIfAbsent(ctx context.Context, cart *model.Cart) error
	FindByCode(ctx context.Context, code string) (*model.Cart, error)
	FindByID(ctx context.Context, id string) (*model.Cart, error)

	// Touch bumps modified_at on an unpaid cart and reports whether the cart
	// was still unpaid. Inside a transaction it also locks the cart row.
	Touch(ctx context.Context, cartID string, at time.Time) (bool, error)
	// MarkPaid flips paid from false to true and binds the buyer. It reports
	// false when the cart was already paid.
	MarkPaid(ctx context.Context, cartID, userID string, at time.Time) (bool, error)

	UpsertLine(ctx context.Context, line *model.CartLine) (*model.CartLine, error)
	FindLine(ctx context.Context, lineID string) (*model.CartLine, error)
	UpdateLineQuantity(ctx context.Context, lineID string, quantity int) error
	DeleteLine(ctx context.Context, lineID string) error
	HasProduct(ctx context.Context, cartID, productID string) (bool, error)

	// PricedLines returns the cart lines joined with their products.
	PricedLines(ctx context.Context, cartID string) ([]model.PricedLine, error)
}
