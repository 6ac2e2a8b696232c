package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inventoryServer(t *testing.T, handler http.HandlerFunc) *InventoryClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewInventoryClient(srv.URL, time.Second)
}

func TestCheckAvailable(t *testing.T) {
	client := inventoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory/p1", r.URL.Path)
		_, _ = w.Write([]byte(`{"product_uid":"p1","quantity_available":3}`))
	})

	assert.True(t, client.CheckAvailable(context.Background(), "p1", 1))
	assert.True(t, client.CheckAvailable(context.Background(), "p1", 3))
	assert.False(t, client.CheckAvailable(context.Background(), "p1", 4))
}

func TestCheckAvailable_Failures(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		client := inventoryServer(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		})
		assert.False(t, client.CheckAvailable(context.Background(), "p1", 1))
	})

	t.Run("malformed body", func(t *testing.T) {
		client := inventoryServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"quantity":"lots"}`))
		})
		assert.False(t, client.CheckAvailable(context.Background(), "p1", 1))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()
		client := NewInventoryClient(srv.URL, time.Second)
		assert.False(t, client.CheckAvailable(context.Background(), "p1", 1))
	})
}

func TestReserve(t *testing.T) {
	var got map[string]any
	client := inventoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/inventory/reserve", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.Reserve(context.Background(), "p1", 2))
	assert.Equal(t, "p1", got["product_uid"])
	assert.Equal(t, float64(2), got["amount"])
}

func TestReserve_Conflict(t *testing.T) {
	client := inventoryServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"insufficient stock"}`, http.StatusConflict)
	})

	err := client.Reserve(context.Background(), "p1", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestRelease(t *testing.T) {
	var path string
	client := inventoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.Release(context.Background(), "p1", 1))
	assert.Equal(t, "/inventory/release", path)
}
