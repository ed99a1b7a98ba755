package product

import (
	"context"

	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, principal *auth.Principal, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, error)

	// Materialize inserts a product inside the caller's transaction without
	// touching caches or the search index.
	Materialize(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	// Publish invalidates list caches and indexes p. Call it after the
	// transaction that created p has committed.
	Publish(ctx context.Context, p *model.Product)
}
