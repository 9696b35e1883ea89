package orders

import (
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/services"
)

// Summary is an order together with its computed totals
type Summary struct {
	*models.Order
	Subtotal models.Money `json:"subtotal"`
	Discount models.Money `json:"discount"`
	Total    models.Money `json:"total"`
}

// Summarize computes the totals of order
func Summarize(order *models.Order) (*Summary, error) {
	subtotal, err := order.Subtotal()
	if err != nil {
		return nil, services.WrapInternal("failed to compute subtotal", err)
	}
	discount, err := order.DiscountTotal()
	if err != nil {
		return nil, services.WrapInternal("failed to compute discount", err)
	}
	total, err := order.Total()
	if err != nil {
		return nil, services.WrapInternal("failed to compute total", err)
	}
	return &Summary{Order: order, Subtotal: subtotal, Discount: discount, Total: total}, nil
}
