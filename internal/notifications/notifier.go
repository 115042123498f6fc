package notifications

import (
	"context"
	"spacer/pkg/kafka"
	"spacer/pkg/logger"
	"spacer/pkg/model"
	"time"
)

// Notifier emits booking lifecycle events. Delivery is fire-and-forget:
// a publish failure is logged and never propagated, so a notification
// outage cannot roll back or block a lifecycle transition.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingConfirmed(ctx context.Context, booking *model.Booking)
	BookingCancelled(ctx context.Context, booking *model.Booking)
}

type kafkaNotifier struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, log *logger.Logger) Notifier {
	return &kafkaNotifier{
		producer: producer,
		log:      log,
	}
}

func (n *kafkaNotifier) BookingCreated(ctx context.Context, booking *model.Booking) {
	n.publish(ctx, EventBookingCreated, booking)
}

func (n *kafkaNotifier) BookingConfirmed(ctx context.Context, booking *model.Booking) {
	n.publish(ctx, EventBookingConfirmed, booking)
}

func (n *kafkaNotifier) BookingCancelled(ctx context.Context, booking *model.Booking) {
	n.publish(ctx, EventBookingCancelled, booking)
}

func (n *kafkaNotifier) publish(ctx context.Context, eventType string, booking *model.Booking) {
	event := BookingEvent{
		Event:      eventType,
		Version:    1,
		OccurredAt: time.Now().UTC(),
		Data: BookingEventData{
			BookingID:  booking.ID,
			SpaceID:    booking.SpaceID,
			UserID:     booking.UserID,
			StartTime:  booking.StartTime,
			EndTime:    booking.EndTime,
			TotalPrice: booking.TotalPrice,
			Status:     string(booking.Status),
		},
	}

	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(event).
		WithEventType(eventType).
		WithSource("bookings").
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		n.log.Error("Failed to publish booking event",
			"event", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

// noopNotifier is used when no Kafka brokers are configured.
type noopNotifier struct{}

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) BookingCreated(context.Context, *model.Booking)   {}
func (noopNotifier) BookingConfirmed(context.Context, *model.Booking) {}
func (noopNotifier) BookingCancelled(context.Context, *model.Booking) {}
