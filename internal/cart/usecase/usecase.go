package usecase

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/cart"
	"github.com/fekuna/omnipos-marketplace-service/internal/cart/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/product"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type cartUseCase struct {
	repo     cart.Repository
	products product.Repository
	tm       *database.TxManager
	logger   logger.ZapLogger
}

func NewCartUseCase(repo cart.Repository, products product.Repository, tm *database.TxManager, log logger.ZapLogger) cart.UseCase {
	return &cartUseCase{
		repo:     repo,
		products: products,
		tm:       tm,
		logger:   log,
	}
}

func validateCode(code string) error {
	if n := utf8.RuneCountInString(code); n == 0 || n > model.MaxCartCodeLength {
		return apperror.Validation("cart code must be 1 to %d characters", model.MaxCartCodeLength)
	}
	return nil
}

func (uc *cartUseCase) GetOrCreateCart(ctx context.Context, code string) (*model.Cart, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err := uc.repo.CreateIfAbsent(ctx, &model.Cart{
		ID:         uuid.New().String(),
		Code:       code,
		CreatedAt:  now,
		ModifiedAt: now,
	})
	if err != nil {
		return nil, err
	}

	c, err := uc.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c.Paid {
		return nil, apperror.Conflict("cart %q is already paid", code)
	}
	return c, nil
}

func (uc *cartUseCase) AddOrSetLine(ctx context.Context, c *model.Cart, productID string, quantity int) (*model.CartLine, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, apperror.Validation("quantity must be a positive integer")
	}
	if c.Paid {
		return nil, apperror.State("cart %q is already paid", c.Code)
	}

	var line *model.CartLine
	err := uc.tm.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.touch(ctx, c.ID); err != nil {
			return err
		}
		if _, err := uc.products.FindByID(ctx, productID); err != nil {
			return err
		}

		var err error
		line, err = uc.repo.UpsertLine(ctx, &model.CartLine{
			ID:        uuid.New().String(),
			CartID:    c.ID,
			ProductID: productID,
			Quantity:  quantity,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("cart line set",
		zap.String("cart_code", c.Code),
		zap.String("product_id", productID),
		zap.Int("quantity", line.Quantity),
	)
	return line, nil
}

func (uc *cartUseCase) AddItem(ctx context.Context, code string, input *dto.AddItemInput) (*model.CartLine, error) {
	if input.ProductID == "" {
		return nil, apperror.Validation("product_id is required")
	}
	c, err := uc.GetOrCreateCart(ctx, code)
	if err != nil {
		return nil, err
	}
	return uc.AddOrSetLine(ctx, c, input.ProductID, input.Quantity)
}

func (uc *cartUseCase) UpdateQuantity(ctx context.Context, lineID string, quantity int) (*model.CartLine, error) {
	if quantity < 1 {
		return nil, apperror.Validation("quantity must be a positive integer")
	}

	var line *model.CartLine
	err := uc.tm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		line, err = uc.repo.FindLine(ctx, lineID)
		if err != nil {
			return err
		}
		if err := uc.touch(ctx, line.CartID); err != nil {
			return err
		}
		if err := uc.repo.UpdateLineQuantity(ctx, lineID, quantity); err != nil {
			return err
		}
		line.Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (uc *cartUseCase) RemoveLine(ctx context.Context, lineID string) error {
	return uc.tm.WithinTx(ctx, func(ctx context.Context) error {
		line, err := uc.repo.FindLine(ctx, lineID)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := uc.touch(ctx, line.CartID); err != nil {
			return err
		}
		return uc.repo.DeleteLine(ctx, lineID)
	})
}

// touch must be the first write of every cart mutation: it fails once the
// cart is paid and holds the cart row until the mutation commits.
func (uc *cartUseCase) touch(ctx context.Context, cartID string) error {
	ok, err := uc.repo.Touch(ctx, cartID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apperror.State("cart is already paid")
	}
	return nil
}

func (uc *cartUseCase) unpaidCart(ctx context.Context, code string) (*model.Cart, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}
	c, err := uc.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c.Paid {
		return nil, apperror.NotFound("no open cart for code %q", code)
	}
	return c, nil
}

func (uc *cartUseCase) GetCart(ctx context.Context, code string) (*dto.CartView, error) {
	c, err := uc.unpaidCart(ctx, code)
	if err != nil {
		return nil, err
	}

	lines, err := uc.repo.PricedLines(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewCartView(c, lines), nil
}

func (uc *cartUseCase) ProductInCart(ctx context.Context, code, productID string) (bool, error) {
	c, err := uc.unpaidCart(ctx, code)
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return uc.repo.HasProduct(ctx, c.ID, productID)
}
