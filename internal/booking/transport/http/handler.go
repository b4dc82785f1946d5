package http

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/repository"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/service"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/inventory"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/mylogger"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/utils"
)

type BookingHandler struct {
	service  service.BookingService
	validate *validator.Validate
	logger   *zap.Logger
	timeout  time.Duration
}

func NewBookingHandler(svc service.BookingService, logger *zap.Logger, timeout time.Duration) *BookingHandler {
	return &BookingHandler{
		service:  svc,
		validate: validator.New(),
		logger:   logger,
		timeout:  timeout,
	}
}

func (h *BookingHandler) Create(c *fiber.Ctx) error {
	input := new(domain.BookingRequest)

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse body in create booking",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	resp, err := h.service.CreateBooking(ctx, input)
	if err != nil {
		httpCode := bookingErrorToHTTP(err)

		mylogger.Warn(
			ctx,
			h.logger,
			"create booking failed",
			zap.Int("http_code", httpCode),
			zap.Error(err),
		)

		return c.Status(httpCode).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	mylogger.Info(
		ctx,
		h.logger,
		"create booking succeeded",
		zap.String("user_id", resp.UserID),
		zap.String("event_id", resp.EventID),
	)

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *BookingHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func bookingErrorToHTTP(err error) int {
	switch {
	case errors.Is(err, repository.ErrCustomerNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, inventory.ErrEventNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, inventory.ErrInsufficientCapacity):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrChannelUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
