package flutterwave

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/config"
	"github.com/fekuna/omnipos-marketplace-service/internal/gateway"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(&config.FlutterwaveConfig{BaseURL: srv.URL, SecretKey: "FLWSECK-test", Currency: "NGN"}, time.Second)
}

func TestClient_Initiate(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/payments", r.URL.Path)
		assert.Equal(t, "Bearer FLWSECK-test", r.Header.Get("Authorization"))
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		require.NoError(t, dec.Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"link":"https://checkout.flutterwave.com/v3/hosted/pay/abc"}}`))
	})

	session, err := c.Initiate(context.Background(), &gateway.PaymentRequest{
		Reference:   "ref-1",
		Amount:      model.MustFixed("63.97"),
		Currency:    "NGN",
		RedirectURL: "https://shop.example.com/payment-status",
		Customer:    gateway.Customer{Email: "buyer@example.com", Phone: "0800", Name: "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/v3/hosted/pay/abc", session.RedirectURL)
	assert.Empty(t, session.ProviderTransactionID)

	assert.Equal(t, "ref-1", got["tx_ref"])
	assert.Equal(t, json.Number("63.97"), got["amount"])
	assert.Equal(t, "NGN", got["currency"])
	assert.Equal(t, "buyer@example.com", got["customer"].(map[string]any)["email"])
}

func TestClient_Verify(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus gateway.VerificationStatus
		wantAmount string
	}{
		{
			name:       "successful",
			body:       `{"status":"success","data":{"id":1163068,"tx_ref":"ref-1","status":"successful","amount":63.97,"currency":"NGN"}}`,
			wantStatus: gateway.StatusSuccess,
			wantAmount: "63.97",
		},
		{
			name:       "failed",
			body:       `{"status":"success","data":{"id":1163068,"tx_ref":"ref-1","status":"failed","amount":63.97,"currency":"NGN"}}`,
			wantStatus: gateway.StatusFailed,
			wantAmount: "63.97",
		},
		{
			name:       "pending",
			body:       `{"status":"success","data":{"id":1163068,"tx_ref":"ref-1","status":"pending","amount":63.97,"currency":"NGN"}}`,
			wantStatus: gateway.StatusPending,
			wantAmount: "63.97",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v3/transactions/1163068/verify", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})

			v, err := c.Verify(context.Background(), "1163068")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, v.Status)
			assert.Equal(t, tt.wantAmount, v.Amount.String())
			assert.Equal(t, "NGN", v.Currency)
			assert.Equal(t, "ref-1", v.Reference)
		})
	}
}

func TestClient_VerifyUnknownTransactionIsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"No transaction was found for this id"}`))
	})

	_, err := c.Verify(context.Background(), "999")
	var rejected *gateway.RejectedError
	assert.ErrorAs(t, err, &rejected)
}

func TestClient_VerifyServerErrorIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Verify(context.Background(), "1163068")
	require.Error(t, err)
	var rejected *gateway.RejectedError
	assert.False(t, errors.As(err, &rejected))
}

func TestClient_VerifyByReference(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/transactions/verify_by_reference", r.URL.Path)
		switch r.URL.Query().Get("tx_ref") {
		case "ref-1":
			_, _ = w.Write([]byte(`{"status":"success","data":{"id":1163068,"tx_ref":"ref-1","status":"successful","amount":63.97,"currency":"NGN"}}`))
		case "ref-cancelled":
			_, _ = w.Write([]byte(`{"status":"success","data":{"id":1163070,"tx_ref":"ref-cancelled","status":"cancelled","amount":63.97,"currency":"NGN"}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"error","message":"No transaction was found for this id"}`))
		}
	})
	ctx := context.Background()

	v, err := c.VerifyByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusSuccess, v.Status)
	assert.Equal(t, "1163068", v.ProviderTransactionID)
	assert.Equal(t, "63.97", v.Amount.String())

	v, err = c.VerifyByReference(ctx, "ref-cancelled")
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusFailed, v.Status)

	v, err = c.VerifyByReference(ctx, "ref-unknown")
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusPending, v.Status)
}

func TestClient_VerifyRateLimitIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Verify(context.Background(), "1163068")
	require.Error(t, err)
	var rejected *gateway.RejectedError
	assert.False(t, errors.As(err, &rejected))
}
