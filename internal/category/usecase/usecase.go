package usecase

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-marketplace-service/internal/category"
	"github.com/fekuna/omnipos-marketplace-service/internal/category/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

// knownCategories always appear in storefront navigation.
var knownCategories = []string{model.CategoryElectronics, model.CategoryGames}

type categoryUseCase struct {
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]dto.CategoryCount, error) {
	counts, err := uc.repo.CountProducts(ctx, filters)
	if err != nil {
		return nil, err
	}
	if !filters.IncludeEmpty {
		return counts, nil
	}

	seen := make(map[string]bool, len(counts))
	for _, c := range counts {
		seen[c.Name] = true
	}
	for _, name := range knownCategories {
		if !seen[name] {
			counts = append(counts, dto.CategoryCount{Name: name})
		}
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Name < counts[j].Name })
	return counts, nil
}
