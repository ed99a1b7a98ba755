package flutterwave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/config"
	"github.com/fekuna/omnipos-marketplace-service/internal/gateway"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

const Name = "flutterwave"

// Client talks to the Flutterwave v3 standard checkout API. The buyer is
// redirected to a hosted link; Flutterwave assigns its transaction id after
// payment and returns it on the redirect.
type Client struct {
	api       *gateway.Client
	secretKey string
	currency  string
}

func NewClient(cfg *config.FlutterwaveConfig, timeout time.Duration) *Client {
	return &Client{
		api: &gateway.Client{
			Provider: Name,
			BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
			HTTP:     gateway.NewHTTPClient(timeout),
			Breaker:  gateway.NewBreaker(Name),
		},
		secretKey: cfg.SecretKey,
		currency:  cfg.Currency,
	}
}

func (c *Client) Name() string     { return Name }
func (c *Client) Currency() string { return c.currency }

type customer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber,omitempty"`
	Name        string `json:"name,omitempty"`
}

type customizations struct {
	Title string `json:"title"`
}

type paymentRequest struct {
	TxRef          string         `json:"tx_ref"`
	Amount         json.Number    `json:"amount"`
	Currency       string         `json:"currency"`
	RedirectURL    string         `json:"redirect_url"`
	Customer       customer       `json:"customer"`
	Customizations customizations `json:"customizations"`
}

type paymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID       json.Number `json:"id"`
		TxRef    string      `json:"tx_ref"`
		Status   string      `json:"status"`
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
	} `json:"data"`
}

func (c *Client) headers() http.Header {
	return http.Header{"Authorization": {"Bearer " + c.secretKey}}
}

func (c *Client) Initiate(ctx context.Context, req *gateway.PaymentRequest) (*gateway.PaymentSession, error) {
	title := req.Description
	if title == "" {
		title = "Marketplace order"
	}
	body := paymentRequest{
		TxRef:       req.Reference,
		Amount:      json.Number(req.Amount.String()),
		Currency:    req.Currency,
		RedirectURL: req.RedirectURL,
		Customer: customer{
			Email:       req.Customer.Email,
			PhoneNumber: req.Customer.Phone,
			Name:        req.Customer.Name,
		},
		Customizations: customizations{Title: title},
	}

	var res paymentResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, "/v3/payments", c.headers(), body, &res); err != nil {
		return nil, err
	}
	if res.Status != "success" || res.Data.Link == "" {
		return nil, fmt.Errorf("flutterwave did not return a payment link: %s", res.Message)
	}

	return &gateway.PaymentSession{RedirectURL: res.Data.Link}, nil
}

func (c *Client) Verify(ctx context.Context, transactionID string) (*gateway.Verification, error) {
	if transactionID == "" {
		return &gateway.Verification{Status: gateway.StatusFailed, Reason: "missing flutterwave transaction id"}, nil
	}

	var res verifyResponse
	path := "/v3/transactions/" + url.PathEscape(transactionID) + "/verify"
	if err := c.api.DoJSON(ctx, http.MethodGet, path, c.headers(), nil, &res); err != nil {
		return nil, err
	}
	return verification(&res, transactionID), nil
}

// VerifyByReference looks a payment up by our tx_ref, for callbacks that did
// not carry the Flutterwave transaction id. A reference Flutterwave has no
// transaction for yet is pending: the buyer may still pay on the hosted link.
func (c *Client) VerifyByReference(ctx context.Context, ref string) (*gateway.Verification, error) {
	var res verifyResponse
	path := "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(ref)
	if err := c.api.DoJSON(ctx, http.MethodGet, path, c.headers(), nil, &res); err != nil {
		var rejected *gateway.RejectedError
		if errors.As(err, &rejected) {
			return &gateway.Verification{
				Status:    gateway.StatusPending,
				Reference: ref,
				Reason:    "no flutterwave transaction recorded for reference",
			}, nil
		}
		return nil, err
	}
	return verification(&res, res.Data.ID.String()), nil
}

func verification(res *verifyResponse, transactionID string) *gateway.Verification {
	v := &gateway.Verification{
		Currency:              res.Data.Currency,
		Reference:             res.Data.TxRef,
		ProviderTransactionID: transactionID,
	}
	amount, err := model.ParseFixed(res.Data.Amount.String())
	if err != nil {
		v.Status = gateway.StatusFailed
		v.Reason = fmt.Sprintf("unreadable amount %q", res.Data.Amount)
		return v
	}
	v.Amount = amount

	switch {
	case res.Status == "success" && res.Data.Status == "successful":
		v.Status = gateway.StatusSuccess
	case res.Data.Status == "pending":
		v.Status = gateway.StatusPending
		v.Reason = "payment is still pending"
	default:
		v.Status = gateway.StatusFailed
		v.Reason = fmt.Sprintf("flutterwave reported status %q", res.Data.Status)
	}
	return v
}
