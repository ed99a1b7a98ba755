// Package gateway defines the payment provider surface used by settlement and
// the transport shared by the provider clients.
package gateway

import (
	"context"
	"fmt"
	"sort"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

type PaymentRequest struct {
	Reference   string
	Amount      model.Fixed
	Currency    string
	RedirectURL string
	Description string
	Customer    Customer
}

// PaymentSession is what the buyer needs to complete payment with the
// provider. ProviderTransactionID is empty when the provider only assigns one
// after payment.
type PaymentSession struct {
	RedirectURL           string
	ProviderTransactionID string
}

type VerificationStatus string

const (
	StatusSuccess VerificationStatus = "success"
	StatusFailed  VerificationStatus = "failed"
	StatusPending VerificationStatus = "pending"
)

// Verification is the provider's server-side view of a payment.
type Verification struct {
	Status                VerificationStatus
	Amount                model.Fixed
	Currency              string
	Reference             string // Our reference as echoed by the provider, if it does
	ProviderTransactionID string
	Reason                string
}

type Gateway interface {
	Name() string
	Currency() string
	Initiate(ctx context.Context, req *PaymentRequest) (*PaymentSession, error)
	Verify(ctx context.Context, providerTransactionID string) (*Verification, error)
}

// ReferenceVerifier is implemented by providers that can find a payment by
// our reference when no provider transaction id is known.
type ReferenceVerifier interface {
	VerifyByReference(ctx context.Context, ref string) (*Verification, error)
}

// RejectedError is a definitive refusal by the provider (400, 404, 409, 410,
// 422), as opposed to a transport failure.
type RejectedError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected request (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// StatusError is a non-2xx response that is not a denial: 5xx, auth
// failures, timeouts and rate limiting. Callers may retry.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.StatusCode, e.Message)
}

type Registry map[string]Gateway

func NewRegistry(gateways ...Gateway) Registry {
	r := Registry{}
	for _, g := range gateways {
		r[g.Name()] = g
	}
	return r
}

func (r Registry) Get(name string) (Gateway, error) {
	g, ok := r[name]
	if !ok {
		return nil, apperror.Validation("unknown payment provider %q (available: %v)", name, r.Names())
	}
	return g, nil
}

func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
