package cart

import (
	"context"

	"github.com/fekuna/omnipos-marketplace-service/internal/cart/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

type UseCase interface {
	GetOrCreateCart(ctx context.Context, code string) (*model.Cart, error)
	AddOrSetLine(ctx context.Context, cart *model.Cart, productID string, quantity int) (*model.CartLine, error)
	AddItem(ctx context.Context, code string, input *dto.AddItemInput) (*model.CartLine, error)
	UpdateQuantity(ctx context.Context, lineID string, quantity int) (*model.CartLine, error)
	RemoveLine(ctx context.Context, lineID string) error

	GetCart(ctx context.Context, code string) (*dto.CartView, error)
	ProductInCart(ctx context.Context, code, productID string) (bool, error)
}
