package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultKey is the slot key the browser storefront has always used.
const DefaultKey = "aumigos-cart"

// ErrSlotEmpty is returned by a Slot when nothing is stored under a key.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a durable key-value location holding one serialized cart.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

type slotRecord struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func encodeItems(items []LineItem) ([]byte, error) {
	records := make([]slotRecord, 0, len(items))
	for _, it := range items {
		records = append(records, slotRecord{
			ID:       it.ID,
			Name:     it.Name,
			Price:    json.Number(it.UnitPrice.String()),
			Quantity: it.Quantity,
		})
	}
	return json.Marshal(records)
}

func decodeItems(raw []byte) ([]LineItem, error) {
	var records []slotRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode cart slot: %w", err)
	}

	items := make([]LineItem, 0, len(records))
	for i, rec := range records {
		price, err := decimal.NewFromString(string(rec.Price))
		if err != nil {
			return nil, fmt.Errorf("decode cart slot: item %d price: %w", i, err)
		}
		items = append(items, LineItem{
			ID:        rec.ID,
			Name:      rec.Name,
			UnitPrice: price,
			Quantity:  rec.Quantity,
		})
	}
	return items, nil
}
