package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/internal/application"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/hotelhub/service-booking/pkg/events"
	"github.com/hotelhub/service-booking/pkg/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// maxConflictRetries bounds retries when a payment write loses a version race.
const maxConflictRetries = 3

// PaymentRecorder records a captured payment on a booking. *application.BookingService satisfies it.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, bookingID uuid.UUID, actor *bookingDomain.Actor, method string) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and records the payment method on bookings.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentCaptured:
		return c.handlePaymentCaptured(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentCaptured(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.PaymentCapturedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentCapturedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}
	if evt.BookingID == uuid.Nil || evt.PaymentMethod == "" {
		c.logger.Error("payment captured event missing booking_id or payment_method",
			zap.String("event_id", cloudEvent.ID),
		)
		return nil
	}

	log := c.logger.With(
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID.String()),
	)
	log.Info("processing payment captured event")

	var err error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		_, err = c.service.RecordPayment(ctx, evt.BookingID, nil, evt.PaymentMethod)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
		log.Debug("payment write conflicted, retrying", zap.Int("attempt", attempt))
	}

	switch {
	case err == nil:
		log.Info("booking payment recorded from payment event")
		return nil
	case errors.Is(err, bookingDomain.ErrAlreadyPaid):
		log.Info("booking already paid, event ignored")
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidState):
		log.Warn("payment event cannot be applied", zap.Error(err))
		return nil
	default:
		log.Error("failed to record payment", zap.Error(err))
		return err
	}
}
