package model

import (
	"database/sql/driver"
	"time"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

func (s RequestStatus) IsTerminal() bool {
	return s == RequestApproved || s == RequestRejected
}

func (s RequestStatus) Value() (driver.Value, error) {
	return string(s), nil
}

type ProductRequest struct {
	ID             string        `db:"id" json:"id"`
	VendorID       string        `db:"vendor_id" json:"vendor_id"`
	Name           string        `db:"name" json:"name"`
	Image          string        `db:"image" json:"image"`
	Description    *string       `db:"description" json:"description"`
	Price          Fixed         `db:"price" json:"price"`
	Category       *string       `db:"category" json:"category"`
	Status         RequestStatus `db:"status" json:"status"`
	AdminNotes     *string       `db:"admin_notes" json:"admin_notes"`
	CommissionRate Fixed         `db:"commission_rate" json:"commission_rate"`
	ProductID      *string       `db:"product_id" json:"product_id"` // Set once approved
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	ModifiedAt     time.Time     `db:"modified_at" json:"modified_at"`
}
