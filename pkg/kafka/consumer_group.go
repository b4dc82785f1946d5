package kafka

import (
	"context"
	"log"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/mylogger"
)

type HandlerFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

type ConsumerGroup struct {
	brokers     []string
	groupID     string
	topics      []string
	handlerFunc HandlerFunc
	logger      *zap.Logger
}

func NewConsumerGroup(
	brokers []string,
	groupID string,
	topics []string,
	handlerFunc HandlerFunc,
	logger *zap.Logger,
) *ConsumerGroup {
	return &ConsumerGroup{
		brokers:     brokers,
		groupID:     groupID,
		topics:      topics,
		handlerFunc: handlerFunc,
		logger:      logger,
	}
}

func (c *ConsumerGroup) Run(ctx context.Context) {
	config := sarama.NewConfig()
	config.Version = sarama.V3_0_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.BalanceStrategyRoundRobin}

	group, err := sarama.NewConsumerGroup(c.brokers, c.groupID, config)
	if err != nil {
		log.Fatalf("Error creating new consumer group: %v", err)
	}

	defer func() {
		if err := group.Close(); err != nil {
			mylogger.Error(ctx, c.logger, "Error closing consumer group", zap.Error(err))
		}
	}()

	consumer := &saramaHandler{
		handler:      c.handlerFunc,
		logger:       c.logger,
		maxRetries:   defaultHandlerRetries,
		retryBackoff: defaultHandlerBackoff,
	}

	for {
		err := group.Consume(ctx, c.topics, consumer)
		if err != nil {
			mylogger.Error(ctx, c.logger, "Error consuming in consumer loop", zap.Error(err))
		}

		if ctx.Err() != nil {
			mylogger.Info(ctx, c.logger, "Context cancelled, shutting down consumer")
			return
		}
	}
}

const (
	defaultHandlerRetries = 3
	defaultHandlerBackoff = time.Second
)

type saramaHandler struct {
	handler      HandlerFunc
	logger       *zap.Logger
	maxRetries   int
	retryBackoff time.Duration
}

func (h *saramaHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *saramaHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim never advances the committed offset past a failed message.
// A failing handler is retried in place with a fixed backoff; if the retry
// budget runs out the error is returned without marking, so the session
// ends and consumption resumes from the last committed offset. Successful
// messages are marked one at a time, which means consumers must tolerate
// duplicates after a restart.
func (h *saramaHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		ctx, span := h.extractTracing(session.Context(), msg)

		err := h.processWithRetry(ctx, msg)
		if err != nil {
			span.RecordError(err)
			span.End()

			mylogger.Error(
				ctx,
				h.logger,
				"Failed to process message, leaving offset uncommitted",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)

			return err
		}

		span.End()
		session.MarkMessage(msg, "")
	}

	return nil
}

func (h *saramaHandler) processWithRetry(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var err error
	for attempt := 0; attempt < h.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(h.retryBackoff):
			}
		}

		if err = h.handler(ctx, msg); err == nil {
			return nil
		}

		mylogger.Warn(
			ctx,
			h.logger,
			"Message handler failed, retrying in place",
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return err
}

func (h *saramaHandler) extractTracing(ctx context.Context, msg *sarama.ConsumerMessage) (context.Context, trace.Span) {
	carrier := propagation.MapCarrier{}
	for _, header := range msg.Headers {
		carrier[string(header.Key)] = string(header.Value)
	}

	propagator := otel.GetTextMapPropagator()
	ctx = propagator.Extract(ctx, carrier)

	tracer := otel.Tracer("pkg/kafka/consumer")
	return tracer.Start(ctx, "kafka_process",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}
