package model

import "time"

type SalesSummary struct {
	ID              string    `db:"id" json:"id"`
	ProductID       string    `db:"product_id" json:"product_id"`
	VendorID        string    `db:"vendor_id" json:"vendor_id"`
	TotalQuantity   int64     `db:"total_quantity" json:"total_quantity"`
	TotalSales      Fixed     `db:"total_sales" json:"total_sales"`
	TotalCommission Fixed     `db:"total_commission" json:"total_commission"`
	LastUpdated     time.Time `db:"last_updated" json:"last_updated"`
}

// SalesFold records that a paid cart has been folded into the summaries.
type SalesFold struct {
	CartID         string    `db:"cart_id"`
	TransactionRef string    `db:"transaction_ref"`
	FoldedAt       time.Time `db:"folded_at"`
}
