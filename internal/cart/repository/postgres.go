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

const cartColumns = `id, cart_code, paid, user_id, created_at, modified_at`

func (r *PGRepository) CreateIfAbsent(ctx context.Context, c *model.Cart) error {
	query := `
        INSERT INTO carts (id, cart_code, paid, user_id, created_at, modified_at)
        VALUES (:id, :cart_code, :paid, :user_id, :created_at, :modified_at)
        ON CONFLICT (cart_code) DO NOTHING
    `
	_, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, query, c)
	return errors.Wrap(err, "insert cart")
}

func (r *PGRepository) FindByCode(ctx context.Context, code string) (*model.Cart, error) {
	var c model.Cart
	query := r.DB.Rebind(`SELECT ` + cartColumns + ` FROM carts WHERE cart_code = ?`)
	if err := database.Conn(ctx, r.DB).GetContext(ctx, &c, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("cart %q not found", code)
		}
		return nil, errors.Wrap(err, "find cart by code")
	}
	return &c, nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Cart, error) {
	var c model.Cart
	query := r.DB.Rebind(`SELECT ` + cartColumns + ` FROM carts WHERE id = ?`)
	if err := database.Conn(ctx, r.DB).GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("cart %q not found", id)
		}
		return nil, errors.Wrap(err, "find cart by id")
	}
	return &c, nil
}

func (r *PGRepository) Touch(ctx context.Context, cartID string, at time.Time) (bool, error) {
	query := r.DB.Rebind(`UPDATE carts SET modified_at = ? WHERE id = ? AND paid = ?`)
	return r.execAffected(ctx, "touch cart", query, at, cartID, false)
}

func (r *PGRepository) MarkPaid(ctx context.Context, cartID, userID string, at time.Time) (bool, error) {
	query := r.DB.Rebind(`UPDATE carts SET paid = ?, user_id = ?, modified_at = ? WHERE id = ? AND paid = ?`)
	return r.execAffected(ctx, "mark cart paid", query, true, userID, at, cartID, false)
}

func (r *PGRepository) execAffected(ctx context.Context, op, query string, args ...any) (bool, error) {
	res, err := database.Conn(ctx, r.DB).ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, op)
	}
	return n > 0, nil
}

// UpsertLine sets the quantity of the (cart, product) line, creating it if
// needed. An existing line keeps its id and gets the new quantity.
func (r *PGRepository) UpsertLine(ctx context.Context, line *model.CartLine) (*model.CartLine, error) {
	var out model.CartLine
	query := r.DB.Rebind(`
        INSERT INTO cart_lines (id, cart_id, product_id, quantity)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = excluded.quantity
        RETURNING id, cart_id, product_id, quantity
    `)
	err := database.Conn(ctx, r.DB).GetContext(ctx, &out, query, line.ID, line.CartID, line.ProductID, line.Quantity)
	if err != nil {
		return nil, errors.Wrap(err, "upsert cart line")
	}
	return &out, nil
}

func (r *PGRepository) FindLine(ctx context.Context, lineID string) (*model.CartLine, error) {
	var line model.CartLine
	query := r.DB.Rebind(`SELECT id, cart_id, product_id, quantity FROM cart_lines WHERE id = ?`)
	if err := database.Conn(ctx, r.DB).GetContext(ctx, &line, query, lineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("cart line %q not found", lineID)
		}
		return nil, errors.Wrap(err, "find cart line")
	}
	return &line, nil
}

func (r *PGRepository) UpdateLineQuantity(ctx context.Context, lineID string, quantity int) error {
	query := r.DB.Rebind(`UPDATE cart_lines SET quantity = ? WHERE id = ?`)
	_, err := database.Conn(ctx, r.DB).ExecContext(ctx, query, quantity, lineID)
	return errors.Wrap(err, "update cart line")
}

func (r *PGRepository) DeleteLine(ctx context.Context, lineID string) error {
	query := r.DB.Rebind(`DELETE FROM cart_lines WHERE id = ?`)
	_, err := database.Conn(ctx, r.DB).ExecContext(ctx, query, lineID)
	return errors.Wrap(err, "delete cart line")
}

func (r *PGRepository) HasProduct(ctx context.Context, cartID, productID string) (bool, error) {
	var count int
	query := r.DB.Rebind(`SELECT count(*) FROM cart_lines WHERE cart_id = ? AND product_id = ?`)
	if err := database.Conn(ctx, r.DB).GetContext(ctx, &count, query, cartID, productID); err != nil {
		return false, errors.Wrap(err, "check cart product")
	}
	return count > 0, nil
}

func (r *PGRepository) PricedLines(ctx context.Context, cartID string) ([]model.PricedLine, error) {
	lines := []model.PricedLine{}
	query := r.DB.Rebind(`
        SELECT
            l.id AS line_id, l.cart_id, l.product_id, l.quantity,
            p.name AS product_name, p.slug AS product_slug, p.image,
            p.price, p.vendor_id, p.commission_rate
        FROM cart_lines l
        JOIN products p ON p.id = l.product_id
        WHERE l.cart_id = ?
        ORDER BY p.name, l.id
    `)
	if err := database.Conn(ctx, r.DB).SelectContext(ctx, &lines, query, cartID); err != nil {
		return nil, errors.Wrap(err, "load priced cart lines")
	}
	return lines, nil
}
