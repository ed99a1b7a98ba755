package model

import "time"

const MaxCartCodeLength = 11

type Cart struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"cart_code" json:"cart_code"`
	Paid       bool      `db:"paid" json:"paid"`
	UserID     *string   `db:"user_id" json:"user_id"` // Bound on payment
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	ModifiedAt time.Time `db:"modified_at" json:"modified_at"`
}

type CartLine struct {
	ID        string `db:"id" json:"id"`
	CartID    string `db:"cart_id" json:"cart_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// PricedLine is a cart line joined with the product fields needed for totals
// and commission accounting.
type PricedLine struct {
	LineID         string  `db:"line_id" json:"id"`
	CartID         string  `db:"cart_id" json:"-"`
	ProductID      string  `db:"product_id" json:"product_id"`
	ProductName    string  `db:"product_name" json:"product_name"`
	ProductSlug    string  `db:"product_slug" json:"product_slug"`
	Image          string  `db:"image" json:"image"`
	Quantity       int     `db:"quantity" json:"quantity"`
	Price          Fixed   `db:"price" json:"price"`
	VendorID       *string `db:"vendor_id" json:"-"`
	CommissionRate Fixed   `db:"commission_rate" json:"-"`
}

func (l PricedLine) LineTotal() Fixed {
	return l.Price.MulInt(l.Quantity)
}

func (l PricedLine) HasVendor() bool {
	return l.VendorID != nil && *l.VendorID != ""
}

// Subtotal is the sum of price x quantity over lines.
func Subtotal(lines []PricedLine) Fixed {
	var total Fixed
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
