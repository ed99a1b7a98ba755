package repository

import (
	"context"
	"time"

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

func (r *PGRepository) Insert(ctx context.Context, e *model.OutboxEvent) error {
	query := `
        INSERT INTO outbox_events (id, event_type, aggregate_id, payload, created_at, sent_at)
        VALUES (:id, :event_type, :aggregate_id, :payload, :created_at, :sent_at)
    `
	_, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, query, e)
	return errors.Wrap(err, "insert outbox event")
}

func (r *PGRepository) FetchUnsent(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	events := []model.OutboxEvent{}
	query := r.DB.Rebind(`
        SELECT id, event_type, aggregate_id, payload, created_at, sent_at
        FROM outbox_events
        WHERE sent_at IS NULL
        ORDER BY created_at, id
        LIMIT ?
    `)
	if err := database.Conn(ctx, r.DB).SelectContext(ctx, &events, query, limit); err != nil {
		return nil, errors.Wrap(err, "fetch unsent outbox events")
	}
	return events, nil
}

func (r *PGRepository) MarkSent(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`UPDATE outbox_events SET sent_at = ? WHERE id IN (?)`, at, ids)
	if err != nil {
		return err
	}
	_, err = database.Conn(ctx, r.DB).ExecContext(ctx, r.DB.Rebind(query), args...)
	return errors.Wrap(err, "mark outbox events sent")
}
