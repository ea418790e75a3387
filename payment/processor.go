// Package payment talks to payment processors: creating transfers and
// authenticating and decoding their webhooks.
package payment

import (
	"context"
	"sort"

	"github.com/Govind-619/GreenLedger/models"
)

// Processor is one payment processor integration.
type Processor interface {
	// Name is the processor's route and payment_method value.
	Name() string
	// CreateTransfer starts a payment attempt. Errors are processor errors.
	CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	// SignatureHeader names the header carrying the webhook signature.
	SignatureHeader() string
	Verifier() *Verifier
	// DecodeWebhook parses an authenticated body. Errors are bad requests.
	DecodeWebhook(body []byte) (*WebhookEvent, error)
}

// TransferRequest is what a processor needs to bill an order.
type TransferRequest struct {
	OrderID       uint
	AmountCents   int64
	Currency      string
	Description   string
	CustomerEmail string
	ReturnURL     string
	CancelURL     string
	Items         []models.OrderItem
}

// Transfer is the processor's handle on one payment attempt.
type Transfer struct {
	TransferID string `json:"transfer_id"`
	PaymentURL string `json:"payment_url"`
	Status     string `json:"status"`
}

// WebhookEvent is a processor callback normalised to the fields
// reconciliation needs. Status uses ZenobiaPay's vocabulary: pending,
// processing, completed, failed, cancelled.
type WebhookEvent struct {
	TransferID   string
	Status       string
	AmountCents  int64
	Currency     string
	MerchantID   string
	CustomerName string
	CreatedAt    string
	UpdatedAt    string
	// Retryable marks a failed attempt after which the processor still
	// accepts payment for the same transfer. The order stays open.
	Retryable bool
}

// Registry looks processors up by name.
type Registry struct {
	processors map[string]Processor
}

// NewRegistry registers processors under their names.
func NewRegistry(processors ...Processor) *Registry {
	r := &Registry{processors: make(map[string]Processor, len(processors))}
	for _, p := range processors {
		r.processors[p.Name()] = p
	}
	return r
}

// Get returns the processor called name.
func (r *Registry) Get(name string) (Processor, bool) {
	p, ok := r.processors[name]
	return p, ok
}

// Names lists registered processors in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.processors))
	for name := range r.processors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func itemMetadata(items []models.OrderItem) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]interface{}{
			"id":          item.ProductID,
			"name":        item.ProductName,
			"price_cents": item.UnitPriceCents,
		})
	}
	return out
}
