package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Govind-619/GreenLedger/config"
	"github.com/Govind-619/GreenLedger/utils"
	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayName is the Razorpay processor name.
const RazorpayName = "razorpay"

// orderCreator is the part of the razorpay client used here.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay bills orders through Razorpay orders. The razorpay order id is the
// transfer id; the customer pays on our checkout page for that order.
type Razorpay struct {
	orders   orderCreator
	baseURL  string
	verifier *Verifier
}

type razorpayEntity struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Email    string `json:"email"`
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Order *struct {
			Entity razorpayEntity `json:"entity"`
		} `json:"order"`
		Payment *struct {
			Entity razorpayEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"`
}

// NewRazorpay returns a Razorpay processor using the key pair in cfg.
func NewRazorpay(cfg config.RazorpayConfig, baseURL string) *Razorpay {
	client := razorpay.NewClient(cfg.Key, cfg.Secret)
	return newRazorpay(client.Order, cfg.WebhookSecret, baseURL)
}

func newRazorpay(orders orderCreator, webhookSecret, baseURL string) *Razorpay {
	return &Razorpay{
		orders:   orders,
		baseURL:  strings.TrimRight(baseURL, "/"),
		verifier: NewVerifier(webhookSecret, EncodingHex),
	}
}

func (r *Razorpay) Name() string            { return RazorpayName }
func (r *Razorpay) SignatureHeader() string { return "X-Razorpay-Signature" }
func (r *Razorpay) Verifier() *Verifier     { return r.verifier }

// CreateTransfer creates a razorpay order. The client has no context support,
// so the call runs aside and is abandoned when ctx expires.
func (r *Razorpay) CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	data := map[string]interface{}{
		"amount":          req.AmountCents,
		"currency":        req.Currency,
		"receipt":         "order_rcptid_" + strconv.FormatUint(uint64(req.OrderID), 10),
		"payment_capture": 1,
		"notes": map[string]interface{}{
			"order_id":       req.OrderID,
			"customer_email": req.CustomerEmail,
			"description":    req.Description,
		},
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := r.orders.Create(data, nil)
		done <- result{body, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, utils.BadGatewayError("Payment processor timed out", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, utils.BadGatewayError("Failed to create Razorpay order", res.err)
	}

	id, _ := res.body["id"].(string)
	if id == "" {
		return nil, utils.BadGatewayError("Malformed processor response", errors.New("razorpay order id missing"))
	}
	status, _ := res.body["status"].(string)

	return &Transfer{
		TransferID: id,
		PaymentURL: fmt.Sprintf("%s/checkout/razorpay/%s", r.baseURL, id),
		Status:     status,
	}, nil
}

// DecodeWebhook maps razorpay order and payment events onto transfer
// statuses.
func (r *Razorpay) DecodeWebhook(body []byte) (*WebhookEvent, error) {
	var payload razorpayWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, utils.BadRequestError("Invalid payload", err)
	}

	var entity razorpayEntity
	transferID := ""
	switch {
	case payload.Payload.Order != nil:
		entity = payload.Payload.Order.Entity
		transferID = entity.ID
	case payload.Payload.Payment != nil:
		entity = payload.Payload.Payment.Entity
		transferID = entity.OrderID
	}
	if payload.Event == "" || transferID == "" {
		return nil, utils.BadRequestError("Invalid payload", errors.New("event and order id are required"))
	}

	status, retryable := razorpayStatus(payload.Event, entity.Status)
	event := &WebhookEvent{
		TransferID:  transferID,
		Status:      status,
		AmountCents: entity.Amount,
		Currency:    strings.ToUpper(entity.Currency),
		Retryable:   retryable,
	}
	if payload.CreatedAt > 0 {
		event.CreatedAt = strconv.FormatInt(payload.CreatedAt, 10)
	}
	return event, nil
}

// razorpayStatus maps an event onto a transfer status. A razorpay order keeps
// accepting payments after a declined one, so failures are retryable.
// Events without a fixed mapping use the entity's own status.
func razorpayStatus(event, entityStatus string) (string, bool) {
	switch event {
	case "order.paid", "payment.captured":
		return "completed", false
	case "payment.failed":
		return "failed", true
	}
	switch strings.ToLower(entityStatus) {
	case "paid", "captured":
		return "completed", false
	case "failed":
		return "failed", true
	case "":
		return "processing", false
	default:
		return strings.ToLower(entityStatus), false
	}
}
