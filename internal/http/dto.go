package httpapi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/format"
)

type lineItemResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	PriceFormatted    string          `json:"priceFormatted"`
	Quantity          int             `json:"quantity"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	SubtotalFormatted string          `json:"subtotalFormatted"`
}

type cartResponse struct {
	Items          []lineItemResponse `json:"items"`
	TotalItems     int                `json:"totalItems"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	TotalFormatted string             `json:"totalFormatted"`
}

func newLineItems(items []cart.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, 0, len(items))
	for _, it := range items {
		sub := it.Subtotal()
		out = append(out, lineItemResponse{
			ID:                it.ID,
			Name:              it.Name,
			Price:             it.UnitPrice,
			PriceFormatted:    format.BRL(it.UnitPrice),
			Quantity:          it.Quantity,
			Subtotal:          sub,
			SubtotalFormatted: format.BRL(sub),
		})
	}
	return out
}

func newCartResponse(items []cart.LineItem, totals cart.Totals) cartResponse {
	return cartResponse{
		Items:          newLineItems(items),
		TotalItems:     totals.ItemCount,
		TotalAmount:    totals.Amount,
		TotalFormatted: format.BRL(totals.Amount),
	}
}

type stepResponse struct {
	Number int    `json:"number"`
	Key    string `json:"key"`
	Title  string `json:"title"`
}

type checkoutResponse struct {
	CurrentStep int            `json:"currentStep"`
	TotalSteps  int            `json:"totalSteps"`
	Steps       []stepResponse `json:"steps"`
}

func newCheckoutResponse(flow *checkout.Flow) checkoutResponse {
	steps := flow.Steps()
	resp := checkoutResponse{
		CurrentStep: flow.Current(),
		TotalSteps:  len(steps),
		Steps:       make([]stepResponse, 0, len(steps)),
	}
	for i, s := range steps {
		resp.Steps = append(resp.Steps, stepResponse{Number: i + 1, Key: s.Key, Title: s.Title})
	}
	return resp
}

type confirmationResponse struct {
	OrderNumber    string             `json:"orderNumber"`
	OrderID        string             `json:"orderId"`
	Items          []lineItemResponse `json:"items"`
	TotalItems     int                `json:"totalItems"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	TotalFormatted string             `json:"totalFormatted"`
	PlacedAt       time.Time          `json:"placedAt"`
}

func newConfirmationResponse(c checkout.Confirmation) confirmationResponse {
	return confirmationResponse{
		OrderNumber:    c.OrderNumber,
		OrderID:        c.OrderID,
		Items:          newLineItems(c.Items),
		TotalItems:     c.Totals.ItemCount,
		TotalAmount:    c.Totals.Amount,
		TotalFormatted: format.BRL(c.Totals.Amount),
		PlacedAt:       c.PlacedAt,
	}
}

type productResponse struct {
	catalog.Product
	PriceFormatted string `json:"priceFormatted"`
}

type catalogResponse struct {
	Products []productResponse `json:"products"`
	Count    int               `json:"count"`
	Summary  string            `json:"summary"`
}

func newProductResponse(p catalog.Product) productResponse {
	return productResponse{Product: p, PriceFormatted: format.BRL(p.Price)}
}

func newCatalogResponse(products []catalog.Product) catalogResponse {
	resp := catalogResponse{
		Products: make([]productResponse, 0, len(products)),
		Count:    len(products),
		Summary:  fmt.Sprintf("%d produtos encontrados", len(products)),
	}
	for _, p := range products {
		resp.Products = append(resp.Products, newProductResponse(p))
	}
	return resp
}

type fieldsRequest struct {
	Fields checkout.Fields `json:"fields"`
}
