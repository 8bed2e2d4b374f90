package notification

import (
	"context"
	"fmt"
	"io"
	"os"

	"restaurant-system/internal/logger"
	"restaurant-system/internal/messaging"
	"restaurant-system/internal/models"
)

// Subscriber prints order and reservation status updates from the
// notifications exchange
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
	out      io.Writer
}

// NewSubscriber creates a new notification subscriber writing to stdout
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		out:      os.Stdout,
	}
}

// Start consumes notifications until ctx is cancelled or the consumer stops
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.consumer.Run(ctx, s.HandleNotification)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("graceful_shutdown", "Stopping notification subscriber", requestID, nil)
		if err := s.consumer.Close(); err != nil {
			s.logger.Error("consumer_close_failed", "Failed to close consumer", requestID, err, nil)
		}
		return nil
	case err := <-done:
		if err != nil {
			s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		}
		return err
	}
}

// HandleNotification processes one status update. Malformed messages are
// logged and acknowledged so they are not redelivered forever.
func (s *Subscriber) HandleNotification(ctx context.Context, body []byte) error {
	requestID := logger.RequestIDFromContext(ctx)

	var update models.StatusUpdateMessage
	if err := messaging.ParseMessage(body, &update); err != nil {
		s.logger.Error("message_parsing_failed", "Discarding malformed notification", requestID, err, map[string]interface{}{
			"message_size": len(body),
		})
		return nil
	}

	fmt.Fprintln(s.out, Format(&update))

	s.logger.Info("notification_displayed", "Notification displayed to user", requestID, map[string]interface{}{
		"kind":       update.Kind,
		"reference":  update.Reference,
		"field":      update.Field,
		"old_status": update.OldStatus,
		"new_status": update.NewStatus,
		"changed_by": update.ChangedBy,
	})
	return nil
}

// Format renders a human-readable line for a status update
func Format(update *models.StatusUpdateMessage) string {
	timestamp := update.Timestamp.Format("2006-01-02 15:04:05")

	if update.Kind == models.KindReservation {
		return formatReservation(timestamp, update)
	}

	if update.Field == "payment_status" {
		return fmt.Sprintf("[%s] Payment for order %s changed from '%s' to '%s'.",
			timestamp, update.Reference, update.OldStatus, update.NewStatus)
	}

	switch models.OrderStatus(update.NewStatus) {
	case models.StatusConfirmed:
		return fmt.Sprintf("[%s] Order %s has been confirmed.", timestamp, update.Reference)
	case models.StatusPreparing:
		return fmt.Sprintf("[%s] Order %s is now being prepared.", timestamp, update.Reference)
	case models.StatusReady:
		return fmt.Sprintf("[%s] Order %s is ready for pickup/delivery!", timestamp, update.Reference)
	case models.StatusCompleted:
		return fmt.Sprintf("[%s] Order %s has been completed. Thank you for your business.", timestamp, update.Reference)
	case models.StatusCancelled:
		return fmt.Sprintf("[%s] Order %s has been cancelled by %s.", timestamp, update.Reference, update.ChangedBy)
	default:
		return fmt.Sprintf("[%s] Order %s status changed from '%s' to '%s' by %s.",
			timestamp, update.Reference, update.OldStatus, update.NewStatus, update.ChangedBy)
	}
}

func formatReservation(timestamp string, update *models.StatusUpdateMessage) string {
	switch models.ReservationStatus(update.NewStatus) {
	case models.ReservationPending:
		if update.OldStatus == "" {
			return fmt.Sprintf("[%s] Reservation %s has been requested.", timestamp, update.Reference)
		}
	case models.ReservationConfirmed:
		return fmt.Sprintf("[%s] Reservation %s is confirmed.", timestamp, update.Reference)
	case models.ReservationCancelled:
		return fmt.Sprintf("[%s] Reservation %s has been cancelled by %s.", timestamp, update.Reference, update.ChangedBy)
	case models.ReservationCompleted:
		return fmt.Sprintf("[%s] Reservation %s is completed. We hope you enjoyed your visit.", timestamp, update.Reference)
	}
	return fmt.Sprintf("[%s] Reservation %s status changed from '%s' to '%s' by %s.",
		timestamp, update.Reference, update.OldStatus, update.NewStatus, update.ChangedBy)
}
