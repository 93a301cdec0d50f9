package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
)

type OrderPlacedPayload struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	SessionID   string          `json:"sessionId"`
	Items       []OrderLine     `json:"items"`
	ItemCount   int             `json:"itemCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PlacedAt    time.Time       `json:"placedAt"`
}

type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderPlacedEvent = EventEnvelope[OrderPlacedPayload]

func NewOrderPlacedPayload(sessionID string, conf checkout.Confirmation) OrderPlacedPayload {
	p := OrderPlacedPayload{
		OrderID:     conf.OrderID,
		OrderNumber: conf.OrderNumber,
		SessionID:   sessionID,
		Items:       make([]OrderLine, 0, len(conf.Items)),
		ItemCount:   conf.Totals.ItemCount,
		TotalAmount: conf.Totals.Amount,
		PlacedAt:    conf.PlacedAt,
	}
	for _, it := range conf.Items {
		p.Items = append(p.Items, OrderLine{
			ProductID: it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return p
}
