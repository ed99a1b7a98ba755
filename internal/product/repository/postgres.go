package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const productColumns = `id, name, slug, image, description, price, category, vendor_id, commission_rate, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, p *model.Product) (bool, error) {
	query := `
        INSERT INTO products (` + productColumns + `)
        VALUES (
            :id, :name, :slug, :image, :description, :price, :category,
            :vendor_id, :commission_rate, :created_at, :updated_at
        )
        ON CONFLICT (slug) DO NOTHING
    `
	res, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, query, p)
	if err != nil {
		return false, errors.Wrap(err, "insert product")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "insert product")
	}
	return n == 1, nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PGRepository) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *PGRepository) findOne(ctx context.Context, column, value string) (*model.Product, error) {
	var product model.Product
	query := r.DB.Rebind(`SELECT ` + productColumns + ` FROM products WHERE ` + column + ` = ? LIMIT 1`)
	err := database.Conn(ctx, r.DB).GetContext(ctx, &product, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("product %q not found", value)
		}
		return nil, errors.Wrapf(err, "find product by %s", column)
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, error) {
	products := []model.Product{}

	conditions := []string{}
	args := []any{}

	if f.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, f.Category)
	}
	if f.VendorID != "" {
		conditions = append(conditions, "vendor_id = ?")
		args = append(args, f.VendorID)
	}
	if f.SearchQuery != "" {
		// LOWER/LIKE instead of ILIKE so the query also runs on SQLite.
		conditions = append(conditions, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.SearchQuery)+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := r.DB.Rebind(`SELECT ` + productColumns + ` FROM products` + whereClause + ` ORDER BY created_at DESC, id`)
	if err := database.Conn(ctx, r.DB).SelectContext(ctx, &products, query, args...); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}
