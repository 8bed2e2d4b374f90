package order

import (
	"restaurant-system/internal/models"
)

// statusTransitions is the allowed edge set of the order state machine.
// Cancellation is only reachable before the kitchen starts preparing.
var statusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady},
	models.StatusReady:     {models.StatusCompleted},
}

var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending: {models.PaymentPaid},
	models.PaymentPaid:    {models.PaymentRefunded},
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether the payment status may move from one value to another
func CanTransitionPayment(from, to models.PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CustomerCancellable reports whether the customer's own cancellation window is still open
func CustomerCancellable(status models.OrderStatus) bool {
	return status == models.StatusPending || status == models.StatusConfirmed
}
