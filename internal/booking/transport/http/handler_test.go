package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/repository"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/service"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/inventory"
)

type stubService struct {
	resp *domain.BookingResponse
	err  error
}

func (s *stubService) CreateBooking(_ context.Context, _ *domain.BookingRequest) (*domain.BookingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newTestApp(svc service.BookingService) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, NewBookingHandler(svc, zap.NewNop(), 2*time.Second))
	return app
}

func postBooking(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestCreateBooking_Returns201(t *testing.T) {
	app := newTestApp(&stubService{
		resp: &domain.BookingResponse{
			UserID:      "u1",
			EventID:     "e1",
			TicketCount: 5,
			TotalPrice:  decimal.RequireFromString("50.00"),
		},
	})

	resp := postBooking(t, app, `{"user_id":"u1","event_id":"e1","ticket_count":5}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		UserID     string          `json:"user_id"`
		TotalPrice decimal.Decimal `json:"total_price"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "u1", body.UserID)
	require.True(t, body.TotalPrice.Equal(decimal.RequireFromString("50.00")))
}

func TestCreateBooking_ValidationFailure(t *testing.T) {
	app := newTestApp(&stubService{})

	resp := postBooking(t, app, `{"user_id":"u1","event_id":"e1","ticket_count":0}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateBooking_CustomerNotFound(t *testing.T) {
	app := newTestApp(&stubService{err: repository.ErrCustomerNotFound})

	resp := postBooking(t, app, `{"user_id":"nobody","event_id":"e1","ticket_count":1}`)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateBooking_InsufficientInventory(t *testing.T) {
	app := newTestApp(&stubService{err: inventory.ErrInsufficientCapacity})

	resp := postBooking(t, app, `{"user_id":"u1","event_id":"e1","ticket_count":99}`)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCreateBooking_ChannelUnavailable(t *testing.T) {
	app := newTestApp(&stubService{err: service.ErrChannelUnavailable})

	resp := postBooking(t, app, `{"user_id":"u1","event_id":"e1","ticket_count":1}`)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
