// Package inventory is the client for the inventory collaborator. The
// collaborator owns all capacity state and its UpdateInventory endpoint has
// decrement-by-N semantics with its own non-negative guard; this client
// performs no caching, so a snapshot is stale the moment it is returned.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/utils"
)

type Snapshot struct {
	EventID     string          `json:"event_id"`
	Capacity    int64           `json:"capacity"`
	TicketPrice decimal.Decimal `json:"ticket_price"`
}

type Gateway interface {
	GetInventory(ctx context.Context, eventID string) (*Snapshot, error)
	UpdateInventory(ctx context.Context, eventID string, ticketCount int32) error
}

type restClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
	tracer     trace.Tracer
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) Gateway {
	return &restClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cb:         utils.NewBreaker("InventoryService", logger),
		logger:     logger,
		tracer:     otel.Tracer("inventory_client"),
	}
}

func (c *restClient) GetInventory(ctx context.Context, eventID string) (*Snapshot, error) {
	ctx, span := c.tracer.Start(ctx, "InventoryClient.GetInventory")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	url := fmt.Sprintf("%s/api/v1/inventory/events/%s", c.baseURL, eventID)

	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrEventNotFound
	default:
		return nil, fmt.Errorf("inventory returned status %d", resp.StatusCode)
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode inventory response: %w", err)
	}

	return &snapshot, nil
}

func (c *restClient) UpdateInventory(ctx context.Context, eventID string, ticketCount int32) error {
	ctx, span := c.tracer.Start(ctx, "InventoryClient.UpdateInventory")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("ticket_count", int(ticketCount)),
	)

	url := fmt.Sprintf("%s/api/v1/inventory/events/%s/capacity", c.baseURL, eventID)

	body, err := json.Marshal(map[string]int32{"ticket_count": ticketCount})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPut, url, body)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrEventNotFound
	case http.StatusConflict:
		return ErrInsufficientCapacity
	default:
		return fmt.Errorf("inventory returned status %d", resp.StatusCode)
	}
}

// do runs the request through the circuit breaker. Only transport failures
// and 5xx responses count against the breaker; business statuses like 404
// and 409 pass through as regular responses.
func (c *restClient) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	return utils.ExecuteWithBreaker(c.cb, func() (*http.Response, error) {
		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		} else {
			reader = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("inventory request failed: %w", err)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("inventory returned status %d", resp.StatusCode)
		}

		return resp, nil
	})
}
