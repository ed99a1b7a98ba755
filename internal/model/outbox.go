package model

import "time"

const EventCartPaid = "cart.paid"

type OutboxEvent struct {
	ID          string     `db:"id"`
	EventType   string     `db:"event_type"`
	AggregateID string     `db:"aggregate_id"`
	Payload     string     `db:"payload"`
	CreatedAt   time.Time  `db:"created_at"`
	SentAt      *time.Time `db:"sent_at"`
}

// CartPaidPayload is the JSON body of a cart.paid event.
type CartPaidPayload struct {
	CartID         string    `json:"cart_id"`
	CartCode       string    `json:"cart_code"`
	TransactionRef string    `json:"transaction_ref"`
	Provider       string    `json:"provider"`
	UserID         string    `json:"user_id"`
	Amount         Fixed     `json:"amount"`
	Currency       string    `json:"currency"`
	VendorIDs      []string  `json:"vendor_ids"`
	PaidAt         time.Time `json:"paid_at"`
}
