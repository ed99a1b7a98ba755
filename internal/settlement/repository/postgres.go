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

const transactionColumns = `id, ref, cart_id, provider, provider_transaction_id, amount, currency,
        status, failure_reason, user_id, created_at, modified_at`

func (r *PGRepository) Insert(ctx context.Context, tx *model.Transaction) error {
	query := `
        INSERT INTO transactions (
            id, ref, cart_id, provider, provider_transaction_id, amount, currency,
            status, failure_reason, user_id, created_at, modified_at
        )
        VALUES (
            :id, :ref, :cart_id, :provider, :provider_transaction_id, :amount, :currency,
            :status, :failure_reason, :user_id, :created_at, :modified_at
        )
    `
	_, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, query, tx)
	if database.IsUniqueViolation(err) {
		return apperror.Conflict("transaction reference %q already exists", tx.Ref)
	}
	return errors.Wrap(err, "insert transaction")
}

func (r *PGRepository) FindByRef(ctx context.Context, ref string) (*model.Transaction, error) {
	var tx model.Transaction
	query := r.DB.Rebind(`SELECT ` + transactionColumns + ` FROM transactions WHERE ref = ?`)
	if err := database.Conn(ctx, r.DB).GetContext(ctx, &tx, query, ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("transaction %q not found", ref)
		}
		return nil, errors.Wrap(err, "find transaction")
	}
	return &tx, nil
}

func (r *PGRepository) SetProviderTransactionID(ctx context.Context, ref, providerTxID string, at time.Time) error {
	query := r.DB.Rebind(`UPDATE transactions SET provider_transaction_id = ?, modified_at = ? WHERE ref = ?`)
	_, err := database.Conn(ctx, r.DB).ExecContext(ctx, query, providerTxID, at, ref)
	return errors.Wrap(err, "set provider transaction id")
}

func (r *PGRepository) Complete(ctx context.Context, ref, providerTxID string, at time.Time) (bool, error) {
	return r.finish(ctx, ref, model.TransactionCompleted, providerTxID, nil, at)
}

func (r *PGRepository) Fail(ctx context.Context, ref, providerTxID, reason string, at time.Time) (bool, error) {
	return r.finish(ctx, ref, model.TransactionFailed, providerTxID, &reason, at)
}

// finish is the compare-and-swap out of pending. Concurrent callers for the
// same ref serialize on the row; only the first sees a row affected.
func (r *PGRepository) finish(ctx context.Context, ref string, status model.TransactionStatus, providerTxID string, reason *string, at time.Time) (bool, error) {
	query := r.DB.Rebind(`
        UPDATE transactions
        SET status = ?,
            provider_transaction_id = COALESCE(NULLIF(?, ''), provider_transaction_id),
            failure_reason = ?,
            modified_at = ?
        WHERE ref = ? AND status = ?
    `)
	res, err := database.Conn(ctx, r.DB).ExecContext(ctx, query,
		string(status), providerTxID, reason, at, ref, string(model.TransactionPending))
	if err != nil {
		return false, errors.Wrapf(err, "mark transaction %s", status)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrapf(err, "mark transaction %s", status)
	}
	return n == 1, nil
}
