package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const requestColumns = `id, vendor_id, name, image, description, price, category, status,
        admin_notes, commission_rate, product_id, created_at, modified_at`

func (r *PGRepository) Create(ctx context.Context, req *model.ProductRequest) error {
	query := `
        INSERT INTO product_requests (
            id, vendor_id, name, image, description, price, category, status,
            admin_notes, commission_rate, product_id, created_at, modified_at
        )
        VALUES (
            :id, :vendor_id, :name, :image, :description, :price, :category, :status,
            :admin_notes, :commission_rate, :product_id, :created_at, :modified_at
        )
    `
	_, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, query, req)
	return errors.Wrap(err, "insert product request")
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.ProductRequest, error) {
	var req model.ProductRequest
	query := r.DB.Rebind(`SELECT ` + requestColumns + ` FROM product_requests WHERE id = ?`)
	if err := database.Conn(ctx, r.DB).GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("product request %q not found", id)
		}
		return nil, errors.Wrap(err, "find product request")
	}
	return &req, nil
}

func (r *PGRepository) FindByVendor(ctx context.Context, vendorID string) ([]model.ProductRequest, error) {
	query := r.DB.Rebind(`SELECT ` + requestColumns + ` FROM product_requests
        WHERE vendor_id = ? ORDER BY created_at DESC`)
	return r.list(ctx, "list vendor product requests", query, vendorID)
}

func (r *PGRepository) FindByStatus(ctx context.Context, status model.RequestStatus) ([]model.ProductRequest, error) {
	query := r.DB.Rebind(`SELECT ` + requestColumns + ` FROM product_requests
        WHERE status = ? ORDER BY created_at ASC`)
	return r.list(ctx, "list product requests by status", query, string(status))
}

func (r *PGRepository) list(ctx context.Context, op, query string, args ...any) ([]model.ProductRequest, error) {
	reqs := []model.ProductRequest{}
	if err := database.Conn(ctx, r.DB).SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return reqs, nil
}

func (r *PGRepository) Decide(ctx context.Context, id string, status model.RequestStatus, notes *string, at time.Time) (bool, error) {
	query := r.DB.Rebind(`
        UPDATE product_requests
        SET status = ?, admin_notes = COALESCE(?, admin_notes), modified_at = ?
        WHERE id = ? AND status = ?
    `)
	res, err := database.Conn(ctx, r.DB).ExecContext(ctx, query,
		string(status), notes, at, id, string(model.RequestPending))
	if err != nil {
		return false, errors.Wrapf(err, "mark product request %s", status)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrapf(err, "mark product request %s", status)
	}
	return n == 1, nil
}

func (r *PGRepository) AttachProduct(ctx context.Context, id, productID string, at time.Time) error {
	query := r.DB.Rebind(`UPDATE product_requests SET product_id = ?, modified_at = ? WHERE id = ?`)
	_, err := database.Conn(ctx, r.DB).ExecContext(ctx, query, productID, at, id)
	return errors.Wrap(err, "attach product to request")
}
