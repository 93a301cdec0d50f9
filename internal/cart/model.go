package cart

import "github.com/shopspring/decimal"

// LineItem is one product entry in the cart. Quantity is always >= 1 while
// the item is present.
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (it LineItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Totals struct {
	ItemCount int             `json:"totalItems"`
	Amount    decimal.Decimal `json:"totalAmount"`
}
