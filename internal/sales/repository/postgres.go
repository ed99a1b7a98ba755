package repository

import (
	"context"

	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/sales/dto"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) InsertFold(ctx context.Context, fold *model.SalesFold) (bool, error) {
	query := `
        INSERT INTO sales_folds (cart_id, transaction_ref, folded_at)
        VALUES (:cart_id, :transaction_ref, :folded_at)
        ON CONFLICT (cart_id) DO NOTHING
    `
	res, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, query, fold)
	if err != nil {
		return false, errors.Wrap(err, "insert sales fold")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "insert sales fold")
	}
	return n == 1, nil
}

func (r *PGRepository) AddToSummary(ctx context.Context, delta *model.SalesSummary) error {
	query := `
        INSERT INTO sales_summaries (
            id, product_id, vendor_id, total_quantity, total_sales, total_commission, last_updated
        )
        VALUES (
            :id, :product_id, :vendor_id, :total_quantity, :total_sales, :total_commission, :last_updated
        )
        ON CONFLICT (product_id, vendor_id) DO UPDATE SET
            total_quantity   = sales_summaries.total_quantity + excluded.total_quantity,
            total_sales      = sales_summaries.total_sales + excluded.total_sales,
            total_commission = sales_summaries.total_commission + excluded.total_commission,
            last_updated     = excluded.last_updated
    `
	_, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, query, delta)
	return errors.Wrap(err, "upsert sales summary")
}

func (r *PGRepository) FindByVendor(ctx context.Context, vendorID string) ([]dto.ProductSales, error) {
	rows := []dto.ProductSales{}
	query := r.DB.Rebind(`
        SELECT
            s.product_id, p.name AS product_name, s.total_quantity,
            s.total_sales, s.total_commission, s.last_updated
        FROM sales_summaries s
        JOIN products p ON p.id = s.product_id
        WHERE s.vendor_id = ?
        ORDER BY s.total_sales DESC, s.product_id
    `)
	if err := database.Conn(ctx, r.DB).SelectContext(ctx, &rows, query, vendorID); err != nil {
		return nil, errors.Wrap(err, "find vendor sales")
	}
	return rows, nil
}

func (r *PGRepository) VendorTotals(ctx context.Context) ([]dto.VendorTotals, error) {
	rows := []dto.VendorTotals{}
	query := `
        SELECT
            vendor_id,
            CAST(SUM(total_quantity) AS BIGINT)   AS total_quantity,
            CAST(SUM(total_sales) AS BIGINT)      AS total_sales,
            CAST(SUM(total_commission) AS BIGINT) AS total_commission
        FROM sales_summaries
        GROUP BY vendor_id
        ORDER BY vendor_id
    `
	if err := database.Conn(ctx, r.DB).SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "sum vendor sales")
	}
	return rows, nil
}
