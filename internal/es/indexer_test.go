package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeCluster answers like a minimal Elasticsearch node.
func fakeCluster(t *testing.T, status int) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"9.0.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestIndexer_IndexAndDelete(t *testing.T) {
	t.Parallel()

	srv, requests := fakeCluster(t, http.StatusOK)
	client, err := NewClient(context.Background(), srv.URL, "", "")
	require.NoError(t, err)
	idx := NewIndexer(client, "products")

	five := 5.0
	err = idx.IndexProduct(context.Background(), models.Product{
		ID: "p1", Name: "Shoe", Price: &five, Description: "d", Attributes: map[string]any{"brand": "Acme"},
	})
	require.NoError(t, err)
	require.NoError(t, idx.DeleteProduct(context.Background(), "p1"))

	reqs := requests()
	require.Len(t, reqs, 3)

	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.Equal(t, "/products/_doc/p1", reqs[1].Path)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[1].Body), &doc))
	assert.NotContains(t, doc, "_id")
	assert.Equal(t, "Shoe", doc["name"])
	assert.Equal(t, "Acme", doc["brand"])

	assert.Equal(t, http.MethodDelete, reqs[2].Method)
	assert.Equal(t, "/products/_doc/p1", reqs[2].Path)
}

func TestIndexer_DeleteMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	srv, _ := fakeCluster(t, http.StatusNotFound)
	client, err := NewClient(context.Background(), srv.URL, "", "")
	require.NoError(t, err)

	assert.NoError(t, NewIndexer(client, "products").DeleteProduct(context.Background(), "gone"))
}

func TestIndexer_ClusterError(t *testing.T) {
	t.Parallel()

	srv, _ := fakeCluster(t, http.StatusInternalServerError)
	client, err := NewClient(context.Background(), srv.URL, "", "")
	require.NoError(t, err)

	err = NewIndexer(client, "products").IndexProduct(context.Background(), models.Product{ID: "p1"})
	assert.ErrorContains(t, err, "index p1")
}
