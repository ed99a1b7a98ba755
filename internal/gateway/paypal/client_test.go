package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/config"
	"github.com/fekuna/omnipos-marketplace-service/internal/gateway"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayPal struct {
	// rotated makes the server issue and accept only a second token.
	rotated      atomic.Bool
	tokenCalls   atomic.Int32
	executeCalls atomic.Int32
	state        string
	payerID      string
	created      payment
}

func (f *fakePayPal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/v1/oauth2/token":
		f.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"` + f.validToken() + `","expires_in":32400}`))
		return
	case r.Header.Get("Authorization") != "Bearer "+f.validToken():
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch r.URL.Path {
	case "/v1/payments/payment":
		_ = json.NewDecoder(r.Body).Decode(&f.created)
		_, _ = w.Write([]byte(`{"id":"PAYID-1","state":"created","links":[
			{"href":"https://api.sandbox.paypal.com/v1/payments/payment/PAYID-1","rel":"self"},
			{"href":"https://www.sandbox.paypal.com/cgi-bin/webscr?cmd=_express-checkout&token=EC-1","rel":"approval_url"}]}`))
	case "/v1/payments/payment/PAYID-1":
		payerInfo := ""
		if f.payerID != "" {
			payerInfo = `,"payer":{"payment_method":"paypal","payer_info":{"payer_id":"` + f.payerID + `"}}`
		}
		_, _ = w.Write([]byte(`{"id":"PAYID-1","state":"` + f.state + `"` + payerInfo +
			`,"transactions":[{"amount":{"total":"63.97","currency":"USD"},"invoice_number":"ref-1"}]}`))
	case "/v1/payments/payment/PAYID-1/execute":
		f.executeCalls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["payer_id"] != f.payerID {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"id":"PAYID-1","state":"approved",
			"transactions":[{"amount":{"total":"63.97","currency":"USD"},"invoice_number":"ref-1"}]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakePayPal) validToken() string {
	if f.rotated.Load() {
		return "A21AB"
	}
	return "A21AA"
}

func newTestClient(t *testing.T, f *fakePayPal) *Client {
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(&config.PayPalConfig{
		BaseURL:      srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		Currency:     "USD",
		CancelURL:    "https://shop.example.com/payment-status?paymentStatus=cancel",
	}, time.Second)
}

func TestClient_Initiate(t *testing.T) {
	f := &fakePayPal{}
	c := newTestClient(t, f)

	session, err := c.Initiate(context.Background(), &gateway.PaymentRequest{
		Reference:   "ref-1",
		Amount:      model.MustFixed("63.97"),
		Currency:    "USD",
		RedirectURL: "https://shop.example.com/payment-status?provider=paypal",
	})
	require.NoError(t, err)
	assert.Equal(t, "PAYID-1", session.ProviderTransactionID)
	assert.Contains(t, session.RedirectURL, "token=EC-1")

	require.Len(t, f.created.Transactions, 1)
	assert.Equal(t, "sale", f.created.Intent)
	assert.Equal(t, "63.97", f.created.Transactions[0].Amount.Total)
	assert.Equal(t, "ref-1", f.created.Transactions[0].InvoiceNumber)

	back, err := url.Parse(f.created.RedirectURLs.ReturnURL)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", back.Query().Get("ref"))
	assert.Equal(t, "paypal", back.Query().Get("provider"))
}

func TestClient_TokenIsReused(t *testing.T) {
	f := &fakePayPal{state: "approved"}
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Verify(ctx, "PAYID-1")
	require.NoError(t, err)
	_, err = c.Verify(ctx, "PAYID-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenCalls.Load())

	c.now = func() time.Time { return time.Now().Add(10 * time.Hour) }
	_, err = c.Verify(ctx, "PAYID-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.tokenCalls.Load())
}

func TestClient_VerifyExecutesApprovedPayment(t *testing.T) {
	f := &fakePayPal{state: "created", payerID: "PAYER-9"}
	c := newTestClient(t, f)

	v, err := c.Verify(context.Background(), "PAYID-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.executeCalls.Load())
	assert.Equal(t, gateway.StatusSuccess, v.Status)
	assert.Equal(t, "63.97", v.Amount.String())
	assert.Equal(t, "USD", v.Currency)
	assert.Equal(t, "ref-1", v.Reference)
}

func TestClient_VerifyStates(t *testing.T) {
	tests := []struct {
		state string
		want  gateway.VerificationStatus
	}{
		{"approved", gateway.StatusSuccess},
		{"created", gateway.StatusPending},
		{"failed", gateway.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			c := newTestClient(t, &fakePayPal{state: tt.state})
			v, err := c.Verify(context.Background(), "PAYID-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Status)
		})
	}
}

func TestClient_VerifyUnknownPaymentIsRejected(t *testing.T) {
	c := newTestClient(t, &fakePayPal{state: "approved"})

	_, err := c.Verify(context.Background(), "PAYID-404")
	var rejected *gateway.RejectedError
	assert.ErrorAs(t, err, &rejected)
}

func TestClient_RevokedTokenIsRenewedOnce(t *testing.T) {
	f := &fakePayPal{state: "approved"}
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Verify(ctx, "PAYID-1")
	require.NoError(t, err)

	f.rotated.Store(true)
	v, err := c.Verify(ctx, "PAYID-1")
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusSuccess, v.Status)
	assert.Equal(t, int32(2), f.tokenCalls.Load())
}

func TestClient_BadCredentialsAreNotRejections(t *testing.T) {
	f := &fakePayPal{state: "approved"}
	c := newTestClient(t, f)
	c.clientSecret = "wrong"

	_, err := c.Verify(context.Background(), "PAYID-1")
	require.Error(t, err)

	var rejected *gateway.RejectedError
	var status *gateway.StatusError
	assert.False(t, errors.As(err, &rejected))
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusUnauthorized, status.StatusCode)
}
