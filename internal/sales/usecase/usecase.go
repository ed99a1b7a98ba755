package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/cache"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/metrics"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/sales"
	"github.com/fekuna/omnipos-marketplace-service/internal/sales/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	statsCacheTTL     = 5 * time.Minute
	vendorCachePrefix = "sales:vendor:"
	platformCacheKey  = "sales:platform"
)

type aggregator struct {
	repo    sales.Repository
	lines   sales.LineSource
	tm      *database.TxManager
	cache   *cache.RedisClient
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

// NewAggregator builds the sales aggregator. cache and m may be nil.
func NewAggregator(repo sales.Repository, lines sales.LineSource, tm *database.TxManager, cache *cache.RedisClient, m *metrics.Metrics, log logger.ZapLogger) sales.Aggregator {
	return &aggregator{
		repo:    repo,
		lines:   lines,
		tm:      tm,
		cache:   cache,
		metrics: m,
		logger:  log,
	}
}

type summaryKey struct {
	productID string
	vendorID  string
}

func (a *aggregator) FoldPaidCart(ctx context.Context, cartID, ref string) ([]string, bool, error) {
	var (
		vendorIDs []string
		folded    bool
	)

	err := a.tm.WithinTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		ok, err := a.repo.InsertFold(ctx, &model.SalesFold{CartID: cartID, TransactionRef: ref, FoldedAt: now})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		lines, err := a.lines.PricedLines(ctx, cartID)
		if err != nil {
			return err
		}

		deltas := map[summaryKey]*model.SalesSummary{}
		var order []summaryKey
		for _, l := range lines {
			if !l.HasVendor() {
				continue
			}
			key := summaryKey{productID: l.ProductID, vendorID: *l.VendorID}
			d, exists := deltas[key]
			if !exists {
				d = &model.SalesSummary{
					ID:          uuid.New().String(),
					ProductID:   l.ProductID,
					VendorID:    *l.VendorID,
					LastUpdated: now,
				}
				deltas[key] = d
				order = append(order, key)
			}
			lineTotal := l.LineTotal()
			d.TotalQuantity += int64(l.Quantity)
			d.TotalSales = d.TotalSales.Add(lineTotal)
			d.TotalCommission = d.TotalCommission.Add(sales.Commission(lineTotal, l.CommissionRate))
		}

		seen := map[string]bool{}
		for _, key := range order {
			if err := a.repo.AddToSummary(ctx, deltas[key]); err != nil {
				return err
			}
			if !seen[key.vendorID] {
				seen[key.vendorID] = true
				vendorIDs = append(vendorIDs, key.vendorID)
			}
		}
		folded = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if folded {
		sort.Strings(vendorIDs)
		a.metrics.ObserveFold()
		a.logger.Info("paid cart folded into sales summaries",
			zap.String("cart_id", cartID),
			zap.String("ref", ref),
			zap.Strings("vendor_ids", vendorIDs),
		)
	}
	return vendorIDs, folded, nil
}

func (a *aggregator) VendorSummary(ctx context.Context, principal *auth.Principal, vendorID string) (*dto.VendorStats, error) {
	if err := principal.Require(auth.RoleSeller, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if principal.Role == auth.RoleSeller || vendorID == "" {
		vendorID = principal.UserID
	}

	key := vendorCachePrefix + vendorID
	var stats dto.VendorStats
	if ok, err := a.cache.GetJSON(ctx, key, &stats); err == nil && ok {
		return &stats, nil
	}

	v, err, _ := a.group.Do(key, func() (any, error) {
		rows, err := a.repo.FindByVendor(ctx, vendorID)
		if err != nil {
			return nil, err
		}
		stats := dto.NewVendorStats(vendorID, rows)
		if err := a.cache.SetJSON(ctx, key, stats, statsCacheTTL); err != nil {
			a.logger.Warn("vendor stats cache write failed", zap.String("vendor_id", vendorID), zap.Error(err))
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.VendorStats), nil
}

func (a *aggregator) PlatformSummary(ctx context.Context, principal *auth.Principal) (*dto.PlatformStats, error) {
	if err := principal.Require(auth.RoleAdmin); err != nil {
		return nil, err
	}

	var stats dto.PlatformStats
	if ok, err := a.cache.GetJSON(ctx, platformCacheKey, &stats); err == nil && ok {
		return &stats, nil
	}

	v, err, _ := a.group.Do(platformCacheKey, func() (any, error) {
		rows, err := a.repo.VendorTotals(ctx)
		if err != nil {
			return nil, err
		}
		stats := dto.NewPlatformStats(rows)
		if err := a.cache.SetJSON(ctx, platformCacheKey, stats, statsCacheTTL); err != nil {
			a.logger.Warn("platform stats cache write failed", zap.Error(err))
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.PlatformStats), nil
}

func (a *aggregator) Invalidate(ctx context.Context, vendorIDs []string) {
	keys := make([]string, 0, len(vendorIDs)+1)
	for _, id := range vendorIDs {
		keys = append(keys, vendorCachePrefix+id)
	}
	keys = append(keys, platformCacheKey)

	if err := a.cache.Delete(ctx, keys...); err != nil {
		a.logger.Warn("sales stats cache invalidation failed", zap.Strings("vendor_ids", vendorIDs), zap.Error(err))
	}
}
