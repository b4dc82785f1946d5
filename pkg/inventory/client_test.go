package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Gateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(server.URL, 2*time.Second, zap.NewNop())
}

func TestGetInventory_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/inventory/events/e1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"event_id":"e1","capacity":5,"ticket_price":"19.99"}`))
	})

	snapshot, err := client.GetInventory(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, "e1", snapshot.EventID)
	require.EqualValues(t, 5, snapshot.Capacity)
	require.True(t, snapshot.TicketPrice.Equal(decimal.RequireFromString("19.99")))
}

func TestGetInventory_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetInventory(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestUpdateInventory_Success(t *testing.T) {
	var gotBody map[string]int32

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/v1/inventory/events/e1/capacity", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusNoContent)
	})

	err := client.UpdateInventory(context.Background(), "e1", 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, gotBody["ticket_count"])
}

func TestUpdateInventory_Conflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := client.UpdateInventory(context.Background(), "e1", 3)
	require.ErrorIs(t, err, ErrInsufficientCapacity)
}

func TestUpdateInventory_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.UpdateInventory(context.Background(), "e1", 3)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEventNotFound)
	require.NotErrorIs(t, err, ErrInsufficientCapacity)
}
