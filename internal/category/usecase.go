package category

import (
	"context"

	"github.com/fekuna/omnipos-marketplace-service/internal/category/dto"
)

// UseCase lists catalog categories. Categories are free-form strings on
// products; there is no category table.
type UseCase interface {
	ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]dto.CategoryCount, error)
}
