package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-marketplace-service/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(&config.ElasticsearchConfig{Addresses: []string{srv.URL}}, nil)
	require.NoError(t, err)
	return c
}

func TestClient_Index(t *testing.T) {
	var gotPath string
	var gotDoc map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	err := c.Index(context.Background(), "products", "p-1", map[string]any{"name": "Laptop"})
	require.NoError(t, err)
	assert.Equal(t, "PUT /products/_doc/p-1", gotPath)
	assert.Equal(t, "Laptop", gotDoc["name"])
}

func TestClient_CreateIndexAlreadyExists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"},"status":400}`))
	})

	assert.NoError(t, c.CreateIndex(context.Background(), "products", `{}`))
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_id":"p-1","_source":{"name":"Laptop"}}]}}`))
	})

	res, err := c.Search(context.Background(), "products", map[string]any{"query": map[string]any{"match_all": map[string]any{}}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Hits.Total.Value)
	require.Len(t, res.Hits.Hits, 1)
	assert.JSONEq(t, `{"name":"Laptop"}`, string(res.Hits.Hits[0].Source))
}

func TestClient_SearchError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Search(context.Background(), "products", map[string]any{})
	assert.Error(t, err)
}
