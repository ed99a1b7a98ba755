package dto

import "github.com/fekuna/omnipos-marketplace-service/internal/model"

type SubmitInput struct {
	Name        string      `json:"name"`
	Image       string      `json:"image"`
	Description *string     `json:"description"`
	Price       model.Fixed `json:"price"`
	Category    *string     `json:"category"`
}

type RejectInput struct {
	Notes string `json:"notes"`
}

// Benefit is the platform's expected commission per unit sold.
type Benefit struct {
	RequestID      string      `json:"request_id"`
	Price          model.Fixed `json:"price"`
	CommissionRate model.Fixed `json:"commission_rate"`
	Benefit        model.Fixed `json:"benefit"`
}
