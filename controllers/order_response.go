package controllers

import (
	"time"

	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/payment"
	"github.com/Govind-619/GreenLedger/pricing"
	"github.com/shopspring/decimal"
)

type OrderItemMinimal struct {
	ProductID      uint            `json:"product_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

type OrderDetailsResponse struct {
	OrderID          uint               `json:"order_id"`
	Status           string             `json:"status"`
	TransferID       string             `json:"transfer_id,omitempty"`
	PaymentMethod    string             `json:"payment_method,omitempty"`
	Currency         string             `json:"currency"`
	SubtotalCents    int64              `json:"subtotal_cents"`
	TaxCents         int64              `json:"tax_cents"`
	TotalAmountCents int64              `json:"total_amount_cents"`
	Total            decimal.Decimal    `json:"total"`
	ShippingAddress  string             `json:"shipping_address"`
	BillingAddress   string             `json:"billing_address"`
	WebhookReceived  bool               `json:"webhook_received"`
	CreatedAt        time.Time          `json:"created_at"`
	Items            []OrderItemMinimal `json:"items"`
}

type CheckoutResponse struct {
	OrderID          uint   `json:"order_id"`
	TransferID       string `json:"transfer_id"`
	PaymentURL       string `json:"payment_url"`
	Processor        string `json:"processor"`
	Status           string `json:"status"`
	SubtotalCents    int64  `json:"subtotal_cents"`
	TaxCents         int64  `json:"tax_cents"`
	TotalAmountCents int64  `json:"total_amount_cents"`
}

func orderDetails(order *models.Order) OrderDetailsResponse {
	resp := OrderDetailsResponse{
		OrderID:          order.ID,
		Status:           order.Status,
		PaymentMethod:    order.PaymentMethod,
		Currency:         order.Currency,
		SubtotalCents:    order.SubtotalCents,
		TaxCents:         order.TaxCents,
		TotalAmountCents: order.TotalAmountCents,
		Total:            pricing.FromCents(order.TotalAmountCents),
		ShippingAddress:  order.ShippingAddress,
		BillingAddress:   order.BillingAddress,
		WebhookReceived:  order.WebhookReceived,
		CreatedAt:        order.CreatedAt,
		Items:            make([]OrderItemMinimal, 0, len(order.Items)),
	}
	if order.TransferID != nil {
		resp.TransferID = *order.TransferID
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemMinimal{
			ProductID:      item.ProductID,
			Name:           item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			UnitPrice:      pricing.FromCents(item.UnitPriceCents),
		})
	}
	return resp
}

func checkoutResponse(order *models.Order, transfer *payment.Transfer, processor string) CheckoutResponse {
	return CheckoutResponse{
		OrderID:          order.ID,
		TransferID:       transfer.TransferID,
		PaymentURL:       transfer.PaymentURL,
		Processor:        processor,
		Status:           order.Status,
		SubtotalCents:    order.SubtotalCents,
		TaxCents:         order.TaxCents,
		TotalAmountCents: order.TotalAmountCents,
	}
}
