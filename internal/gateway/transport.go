package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 4 << 10

// NewHTTPClient returns a traced HTTP client for provider calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Breaker guards calls to one provider. Provider rejections do not count as
// failures; only transport errors and 5xx responses trip it.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

func NewBreaker(name string) *Breaker {
	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var rejected *RejectedError
			return err == nil || errors.As(err, &rejected)
		},
	})}
}

func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// isDenial reports whether status is the provider's answer about the request
// itself. Auth, timeout and rate-limit responses (401, 403, 408, 429) say
// nothing about the payment and are retried like 5xx.
func isDenial(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict,
		http.StatusGone, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// Client performs JSON requests against one provider.
type Client struct {
	Provider string
	BaseURL  string
	HTTP     *http.Client
	Breaker  *Breaker
}

// DoJSON sends body (if any) as JSON and decodes a 2xx response into out.
// Denials (see isDenial) become *RejectedError, any other non-2xx status a
// *StatusError.
func (c *Client) DoJSON(ctx context.Context, method, path string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
		header = withDefault(header, "Content-Type", "application/json")
	}
	return c.do(ctx, method, path, header, reader, out)
}

// PostForm sends form as application/x-www-form-urlencoded.
func (c *Client) PostForm(ctx context.Context, path string, header http.Header, form url.Values, out any) error {
	header = withDefault(header, "Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, http.MethodPost, path, header, strings.NewReader(form.Encode()), out)
}

func withDefault(header http.Header, key, value string) http.Header {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if h.Get(key) == "" {
		h.Set(key, value)
	}
	return h
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body io.Reader, out any) error {
	return c.Breaker.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
		if err != nil {
			return err
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")

		res, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode >= 400 {
			msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
			if isDenial(res.StatusCode) {
				return &RejectedError{Provider: c.Provider, StatusCode: res.StatusCode, Message: string(msg)}
			}
			return &StatusError{Provider: c.Provider, StatusCode: res.StatusCode, Message: string(msg)}
		}

		if out == nil {
			return nil
		}
		dec := json.NewDecoder(res.Body)
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", c.Provider, err)
		}
		return nil
	})
}
