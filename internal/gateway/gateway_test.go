package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedGateway struct{ Gateway }

func (n namedGateway) Name() string { return "stub" }

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(namedGateway{})

	g, err := r.Get("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub", g.Name())

	_, err = r.Get("bitcoin")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestClient_DoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"amount":63.97}`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no transaction"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := &Client{Provider: "stub", BaseURL: srv.URL, HTTP: NewHTTPClient(time.Second), Breaker: NewBreaker("stub")}
	ctx := context.Background()

	var body map[string]any
	require.NoError(t, c.DoJSON(ctx, http.MethodGet, "/ok", http.Header{"Authorization": {"Bearer k"}}, nil, &body))
	assert.Equal(t, json.Number("63.97"), body["amount"])

	var rejected *RejectedError
	err := c.DoJSON(ctx, http.MethodGet, "/missing", nil, nil, nil)
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusNotFound, rejected.StatusCode)

	err = c.DoJSON(ctx, http.MethodGet, "/down", nil, nil, nil)
	require.Error(t, err)
	assert.False(t, errors.As(err, &rejected))
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("flaky")
	boom := errors.New("connection reset")

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	}
	assert.ErrorIs(t, b.Do(func() error { return nil }), gobreaker.ErrOpenState)
}

func TestBreaker_IgnoresRejections(t *testing.T) {
	b := NewBreaker("strict")
	for i := 0; i < 10; i++ {
		_ = b.Do(func() error { return &RejectedError{Provider: "strict", StatusCode: 400} })
	}
	assert.NoError(t, b.Do(func() error { return nil }))
}

func TestClient_PostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer srv.Close()

	c := &Client{Provider: "stub", BaseURL: srv.URL, HTTP: NewHTTPClient(time.Second), Breaker: NewBreaker("stub")}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	require.NoError(t, c.PostForm(context.Background(), "/token", nil, form, &out))
	assert.Equal(t, "tok", out.AccessToken)
}

func TestClient_DoJSON_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status   int
		rejected bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusNotFound, true},
		{http.StatusUnprocessableEntity, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusRequestTimeout, false},
		{http.StatusTooManyRequests, false},
		{http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := &Client{Provider: "stub", BaseURL: srv.URL, HTTP: NewHTTPClient(time.Second), Breaker: NewBreaker("stub")}
			err := c.DoJSON(context.Background(), http.MethodGet, "/verify", nil, nil, nil)
			require.Error(t, err)

			var rejected *RejectedError
			var status *StatusError
			assert.Equal(t, tt.rejected, errors.As(err, &rejected))
			if !tt.rejected {
				require.ErrorAs(t, err, &status)
				assert.Equal(t, tt.status, status.StatusCode)
			}
		})
	}
}
