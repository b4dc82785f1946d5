package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/KevinLlano/Microservices-Ticketing-System/internal/order/service"
	eventDomain "github.com/KevinLlano/Microservices-Ticketing-System/pkg/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/kafka"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/mylogger"
)

type Consumer struct {
	service service.OrderService
	logger  *zap.Logger
	groupID string
}

func NewConsumer(svc service.OrderService, logger *zap.Logger, groupID string) *Consumer {
	return &Consumer{
		service: svc,
		logger:  logger,
		groupID: groupID,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		c.groupID,
		[]string{eventDomain.TopicBookings},
		c.processMessage,
		c.logger,
	)

	consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
		zap.ByteString("key", msg.Key),
	)

	var wrapper eventDomain.EventWrapper
	if err := json.Unmarshal(msg.Value, &wrapper); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling wrapper", zap.Error(err))
		return err
	}

	switch wrapper.Event {
	case eventDomain.EventTypeBookingRecorded:
		var event eventDomain.BookingRecorded
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal event", zap.Error(err))
			return err
		}

		if err := c.service.HandleBookingRecorded(ctx, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to handle booking event", zap.Error(err))
			return err
		}
	default:
		mylogger.Warn(ctx, c.logger, "Ignored event type", zap.String("event_type", wrapper.Event))
	}

	return nil
}
