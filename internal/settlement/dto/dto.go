package dto

import "github.com/fekuna/omnipos-marketplace-service/internal/model"

type InitiateInput struct {
	CartCode    string `json:"cart_code"`
	Provider    string `json:"provider"`
	RedirectURL string `json:"redirect_url"`
}

type InitiateResult struct {
	Reference             string      `json:"reference"`
	Amount                model.Fixed `json:"amount"`
	Currency              string      `json:"currency"`
	RedirectURL           string      `json:"redirect_url"`
	ProviderTransactionID string      `json:"provider_transaction_id,omitempty"`
}

// ConfirmInput is what the provider callback carries. Field names follow
// the redirect query parameters of both providers.
type ConfirmInput struct {
	Reference             string `json:"tx_ref"`
	Status                string `json:"status"`
	ProviderTransactionID string `json:"transaction_id"`
}

type Settlement struct {
	Transaction *model.Transaction `json:"transaction"`
	// Duplicate is set when the reference had already been settled.
	Duplicate bool `json:"duplicate"`
}
