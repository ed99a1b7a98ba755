package outbox

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

type Repository interface {
	// Insert joins the ambient transaction so the event commits with the
	// state change it describes.
	Insert(ctx context.Context, event *model.OutboxEvent) error
	FetchUnsent(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkSent(ctx context.Context, ids []string, at time.Time) error
}
