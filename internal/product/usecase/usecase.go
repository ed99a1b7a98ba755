package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/cache"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/product"
	"github.com/fekuna/omnipos-marketplace-service/internal/product/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/search"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	IndexName = "products"

	listCacheTTL    = 5 * time.Minute
	listCachePrefix = "products:list:"
	maxSlugAttempts = 100
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text" },
			"slug": { "type": "keyword" },
			"description": { "type": "text" },
			"category": { "type": "keyword" },
			"vendor_id": { "type": "keyword" },
			"price": { "type": "scaled_float", "scaling_factor": 100 },
			"created_at": { "type": "date" }
		}
	}
}`

// SearchIndex is the part of the search client the catalog uses.
type SearchIndex interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc any) error
	Search(ctx context.Context, index string, query map[string]any) (*search.SearchResponse, error)
}

// EnsureIndex creates the products index with its mapping unless it exists.
func EnsureIndex(ctx context.Context, es SearchIndex) error {
	return es.CreateIndex(ctx, IndexName, indexMapping)
}

type productUseCase struct {
	repo                  product.Repository
	cache                 *cache.RedisClient
	es                    SearchIndex
	defaultCommissionRate model.Fixed
	logger                logger.ZapLogger
}

// NewProductUseCase builds the catalog usecase. cache and es may be nil.
func NewProductUseCase(repo product.Repository, cache *cache.RedisClient, es SearchIndex, defaultCommissionRate model.Fixed, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:                  repo,
		cache:                 cache,
		es:                    es,
		defaultCommissionRate: defaultCommissionRate,
		logger:                log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, principal *auth.Principal, input *dto.CreateProductInput) (*model.Product, error) {
	if err := principal.Require(auth.RoleAdmin); err != nil {
		return nil, err
	}

	p, err := uc.Materialize(ctx, input)
	if err != nil {
		return nil, err
	}

	uc.Publish(ctx, p)
	return p, nil
}

func (uc *productUseCase) Materialize(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	rate := uc.defaultCommissionRate
	if input.CommissionRate != nil {
		rate = *input.CommissionRate
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:           strings.TrimSpace(input.Name),
		Image:          strings.TrimSpace(input.Image),
		Description:    input.Description,
		Price:          input.Price,
		Category:       input.Category,
		VendorID:       input.VendorID,
		CommissionRate: rate,
	}

	if err := uc.insertWithFreeSlug(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// insertWithFreeSlug tries base, base-1, base-2, ... until an insert succeeds.
// The insert itself skips taken slugs, so concurrent creators never collide.
func (uc *productUseCase) insertWithFreeSlug(ctx context.Context, p *model.Product) error {
	base := slug.Make(p.Name)
	if base == "" {
		base = "product"
	}

	for i := 0; i < maxSlugAttempts; i++ {
		p.Slug = base
		if i > 0 {
			p.Slug = fmt.Sprintf("%s-%d", base, i)
		}

		inserted, err := uc.repo.Create(ctx, p)
		if err != nil {
			return err
		}
		if inserted {
			return nil
		}
	}
	return apperror.Conflict("no free slug for product %q", p.Name)
}

func (uc *productUseCase) Publish(ctx context.Context, p *model.Product) {
	uc.invalidateListCache(ctx)
	uc.syncToElastic(ctx, p)
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}

	if err := uc.es.Index(ctx, IndexName, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *productUseCase) GetProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return uc.repo.FindBySlug(ctx, slug)
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, error) {
	cacheKey := uc.generateCacheKey(filters)

	var cached []model.Product
	if ok, err := uc.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		uc.logger.Warn("product list cache read failed", zap.Error(err))
	}

	if filters.SearchQuery != "" && uc.es != nil {
		products, err := uc.searchIndex(ctx, filters)
		if err == nil {
			return products, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	products, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.SetJSON(ctx, cacheKey, products, listCacheTTL); err != nil {
		uc.logger.Warn("product list cache write failed", zap.Error(err))
	}
	return products, nil
}

func (uc *productUseCase) searchIndex(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, error) {
	must := []map[string]any{
		{"match": map[string]any{"name": map[string]any{"query": filters.SearchQuery, "fuzziness": "AUTO"}}},
	}
	if filters.Category != "" {
		must = append(must, map[string]any{"term": map[string]any{"category": filters.Category}})
	}
	if filters.VendorID != "" {
		must = append(must, map[string]any{"term": map[string]any{"vendor_id": filters.VendorID}})
	}

	res, err := uc.es.Search(ctx, IndexName, map[string]any{
		"query": map[string]any{"bool": map[string]any{"must": must}},
	})
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err == nil {
			products = append(products, p)
		}
	}
	return products, nil
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) string {
	data, _ := json.Marshal(filters)
	return fmt.Sprintf("%s%x", listCachePrefix, md5.Sum(data))
}

func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if err := uc.cache.DeletePattern(ctx, listCachePrefix+"*"); err != nil {
		uc.logger.Warn("product list cache invalidation failed", zap.Error(err))
	}
}
