package model

import (
	"database/sql/driver"
	"time"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionCompleted || s == TransactionFailed
}

// CanTransitionTo allows exactly one move out of pending.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return s == TransactionPending && next.IsTerminal()
}

func (s TransactionStatus) String() string {
	return string(s)
}

func (s TransactionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

type Transaction struct {
	ID                    string            `db:"id" json:"id"`
	Ref                   string            `db:"ref" json:"ref"`
	CartID                string            `db:"cart_id" json:"cart_id"`
	Provider              string            `db:"provider" json:"provider"`
	ProviderTransactionID *string           `db:"provider_transaction_id" json:"provider_transaction_id"`
	Amount                Fixed             `db:"amount" json:"amount"`
	Currency              string            `db:"currency" json:"currency"`
	Status                TransactionStatus `db:"status" json:"status"`
	FailureReason         *string           `db:"failure_reason" json:"failure_reason"`
	UserID                *string           `db:"user_id" json:"user_id"`
	CreatedAt             time.Time         `db:"created_at" json:"created_at"`
	ModifiedAt            time.Time         `db:"modified_at" json:"modified_at"`
}
