package paypal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/config"
	"github.com/fekuna/omnipos-marketplace-service/internal/gateway"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

const Name = "paypal"

// tokenSlack renews the OAuth token a little before PayPal expires it.
const tokenSlack = time.Minute

// Client uses the PayPal v1 payments API. Initiate creates a "sale" payment
// and returns the approval link; Verify executes an approved payment and
// reports the final state.
type Client struct {
	api          *gateway.Client
	clientID     string
	clientSecret string
	currency     string
	cancelURL    string

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

func NewClient(cfg *config.PayPalConfig, timeout time.Duration) *Client {
	return &Client{
		api: &gateway.Client{
			Provider: Name,
			BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
			HTTP:     gateway.NewHTTPClient(timeout),
			Breaker:  gateway.NewBreaker(Name),
		},
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		currency:     cfg.Currency,
		cancelURL:    cfg.CancelURL,
		now:          time.Now,
	}
}

func (c *Client) Name() string     { return Name }
func (c *Client) Currency() string { return c.currency }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	header := http.Header{"Authorization": {"Basic " + basic}}

	var res tokenResponse
	form := url.Values{"grant_type": {"client_credentials"}}
	if err := c.api.PostForm(ctx, "/v1/oauth2/token", header, form, &res); err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("paypal returned an empty access token")
	}

	c.token = res.AccessToken
	c.expires = c.now().Add(time.Duration(res.ExpiresIn)*time.Second - tokenSlack)
	return c.token, nil
}

func (c *Client) authorized(ctx context.Context) (http.Header, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return http.Header{"Authorization": {"Bearer " + token}}, nil
}

// dropToken forgets the cached token if it is still the one that was sent.
func (c *Client) dropToken(header http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && header.Get("Authorization") == "Bearer "+c.token {
		c.token = ""
	}
}

// call runs fn with a bearer header. PayPal can revoke a token before its
// advertised expiry; on 401 the token is dropped and fn retried once.
func (c *Client) call(ctx context.Context, fn func(header http.Header) error) error {
	header, err := c.authorized(ctx)
	if err != nil {
		return err
	}
	err = fn(header)

	var status *gateway.StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusUnauthorized {
		return err
	}
	c.dropToken(header)
	if header, err = c.authorized(ctx); err != nil {
		return err
	}
	return fn(header)
}

type amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type transaction struct {
	Amount        amount `json:"amount"`
	Description   string `json:"description,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type payment struct {
	ID            string        `json:"id,omitempty"`
	Intent        string        `json:"intent,omitempty"`
	State         string        `json:"state,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Payer         *payer        `json:"payer,omitempty"`
	Transactions  []transaction `json:"transactions,omitempty"`
	RedirectURLs  *redirectURLs `json:"redirect_urls,omitempty"`
	Links         []link        `json:"links,omitempty"`
}

type payer struct {
	PaymentMethod string `json:"payment_method,omitempty"`
	PayerInfo     *struct {
		PayerID string `json:"payer_id"`
	} `json:"payer_info,omitempty"`
}

type redirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

func (p *payment) approvalURL() string {
	for _, l := range p.Links {
		if l.Rel == "approval_url" {
			return l.Href
		}
	}
	return ""
}

func (p *payment) payerID() string {
	if p.Payer == nil || p.Payer.PayerInfo == nil {
		return ""
	}
	return p.Payer.PayerInfo.PayerID
}

// returnURL carries our reference back so the callback can find the
// transaction; PayPal appends paymentId and PayerID itself.
func returnURL(redirect, ref string) (string, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return "", fmt.Errorf("invalid redirect url: %w", err)
	}
	q := u.Query()
	q.Set("ref", ref)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) Initiate(ctx context.Context, req *gateway.PaymentRequest) (*gateway.PaymentSession, error) {
	back, err := returnURL(req.RedirectURL, req.Reference)
	if err != nil {
		return nil, err
	}
	body := payment{
		Intent: "sale",
		Payer:  &payer{PaymentMethod: "paypal"},
		Transactions: []transaction{{
			Amount:        amount{Total: req.Amount.String(), Currency: req.Currency},
			Description:   req.Description,
			InvoiceNumber: req.Reference,
		}},
		RedirectURLs: &redirectURLs{ReturnURL: back, CancelURL: c.cancelURL},
	}

	var res payment
	err = c.call(ctx, func(header http.Header) error {
		return c.api.DoJSON(ctx, http.MethodPost, "/v1/payments/payment", header, body, &res)
	})
	if err != nil {
		return nil, err
	}
	link := res.approvalURL()
	if res.ID == "" || link == "" {
		return nil, fmt.Errorf("paypal did not return an approval link")
	}

	return &gateway.PaymentSession{RedirectURL: link, ProviderTransactionID: res.ID}, nil
}

func (c *Client) Verify(ctx context.Context, paymentID string) (*gateway.Verification, error) {
	if paymentID == "" {
		return &gateway.Verification{Status: gateway.StatusFailed, Reason: "missing paypal payment id"}, nil
	}
	path := "/v1/payments/payment/" + url.PathEscape(paymentID)
	var p payment
	err := c.call(ctx, func(header http.Header) error {
		return c.api.DoJSON(ctx, http.MethodGet, path, header, nil, &p)
	})
	if err != nil {
		return nil, err
	}

	if p.State == "created" && p.payerID() != "" {
		body := map[string]string{"payer_id": p.payerID()}
		var executed payment
		err := c.call(ctx, func(header http.Header) error {
			return c.api.DoJSON(ctx, http.MethodPost, path+"/execute", header, body, &executed)
		})
		if err != nil {
			return nil, err
		}
		p = executed
	}

	return c.verification(paymentID, &p), nil
}

func (c *Client) verification(paymentID string, p *payment) *gateway.Verification {
	v := &gateway.Verification{ProviderTransactionID: paymentID}
	if len(p.Transactions) > 0 {
		t := p.Transactions[0]
		v.Currency = t.Amount.Currency
		v.Reference = t.InvoiceNumber
		if amt, err := model.ParseFixed(t.Amount.Total); err == nil {
			v.Amount = amt
		} else {
			v.Status = gateway.StatusFailed
			v.Reason = fmt.Sprintf("unreadable amount %q", t.Amount.Total)
			return v
		}
	}

	switch p.State {
	case "approved":
		v.Status = gateway.StatusSuccess
	case "created":
		v.Status = gateway.StatusPending
		v.Reason = "payment has not been approved by the payer"
	default:
		v.Status = gateway.StatusFailed
		v.Reason = fmt.Sprintf("paypal reported state %q", p.State)
		if p.FailureReason != "" {
			v.Reason += ": " + p.FailureReason
		}
	}
	return v
}
