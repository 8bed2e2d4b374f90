package tracking

import (
	"context"

	"restaurant-system/internal/models"
)

// StatusRepo reads order state by its public order number
type StatusRepo interface {
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	History(ctx context.Context, number string) ([]models.OrderStatusHistory, error)
}
