package settlement

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

type Repository interface {
	Insert(ctx context.Context, tx *model.Transaction) error
	FindByRef(ctx context.Context, ref string) (*model.Transaction, error)
	SetProviderTransactionID(ctx context.Context, ref, providerTxID string, at time.Time) error

	// Complete and Fail move a pending transaction to a terminal status. They
	// report false when the transaction had already left pending.
	Complete(ctx context.Context, ref, providerTxID string, at time.Time) (bool, error)
	Fail(ctx context.Context, ref, providerTxID, reason string, at time.Time) (bool, error)
}
