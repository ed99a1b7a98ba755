package category

import (
	"context"

	"github.com/fekuna/omnipos-marketplace-service/internal/category/dto"
)

type Repository interface {
	// CountProducts returns the number of products per non-null category.
	CountProducts(ctx context.Context, filters *dto.CategoryFilters) ([]dto.CategoryCount, error)
}
