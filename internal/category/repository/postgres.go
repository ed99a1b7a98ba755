package repository

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-marketplace-service/internal/category/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CountProducts(ctx context.Context, filters *dto.CategoryFilters) ([]dto.CategoryCount, error) {
	where := []string{"category IS NOT NULL", "category <> ''"}
	var args []any

	if filters.VendorID != "" {
		where = append(where, "vendor_id = ?")
		args = append(args, filters.VendorID)
	}

	query := r.DB.Rebind(`
        SELECT category, COUNT(*) AS product_count
        FROM products
        WHERE ` + strings.Join(where, " AND ") + `
        GROUP BY category
        ORDER BY category
    `)

	counts := []dto.CategoryCount{}
	if err := database.Conn(ctx, r.DB).SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, errors.Wrap(err, "count products by category")
	}
	return counts, nil
}
