package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		BaseURL:        server.URL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		Timeout:        5 * time.Second,
	}, nil)
}

func TestClient_Authentication(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "ck_test", user)
		assert.Equal(t, "cs_test", pass)
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.ListProducts(context.Background(), ListParams{})
	require.NoError(t, err)
}

func TestClient_ListProducts(t *testing.T) {
	t.Run("passes pagination and incremental parameters", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products", r.URL.Path)
			assert.Equal(t, "3", r.URL.Query().Get("page"))
			assert.Equal(t, "50", r.URL.Query().Get("per_page"))
			assert.Equal(t, "2025-03-01T12:00:00", r.URL.Query().Get("modified_after"))
			_, _ = w.Write([]byte(`[{"id": 101, "name": "Widget"}]`))
		})

		snapshots, err := client.ListProducts(context.Background(), ListParams{
			Page:          3,
			PerPage:       50,
			ModifiedAfter: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
		assert.Equal(t, int64(101), snapshots[0].ID)
		assert.Equal(t, "Widget", snapshots[0].Name)
	})

	t.Run("malformed body maps to the upstream sentinel", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		})

		_, err := client.ListProducts(context.Background(), ListParams{})
		assert.ErrorIs(t, err, shared.ErrUpstream)
	})
}

func TestClient_GetProduct(t *testing.T) {
	t.Run("fetches by id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products/101", r.URL.Path)
			_, _ = w.Write([]byte(`{"id": 101, "name": "Widget", "status": "publish"}`))
		})

		snapshot, err := client.GetProduct(context.Background(), 101)
		require.NoError(t, err)
		assert.Equal(t, "Widget", snapshot.Name)
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code": "product_invalid_id", "message": "Invalid ID."}`))
		})

		_, err := client.GetProduct(context.Background(), 999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("structured error bodies surface code and message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code": "internal_error", "message": "boom"}`))
		})

		_, err := client.GetProduct(context.Background(), 101)
		require.ErrorIs(t, err, shared.ErrUpstream)
		assert.Contains(t, err.Error(), "internal_error")
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestClient_Mutations(t *testing.T) {
	t.Run("create posts JSON and returns the assigned id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"id": 333, "name": "Created"}`))
		})

		snapshot, err := client.CreateProduct(context.Background(), map[string]any{"name": "Created"})
		require.NoError(t, err)
		assert.Equal(t, int64(333), snapshot.ID)
	})

	t.Run("update puts to the product path", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/products/101", r.URL.Path)
			_, _ = w.Write([]byte(`{"id": 101}`))
		})

		_, err := client.UpdateProduct(context.Background(), 101, map[string]any{"name": "Renamed"})
		require.NoError(t, err)
	})

	t.Run("delete forwards the force flag", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "true", r.URL.Query().Get("force"))
			_, _ = w.Write([]byte(`{"id": 101}`))
		})

		require.NoError(t, client.DeleteProduct(context.Background(), 101, true))
	})
}
