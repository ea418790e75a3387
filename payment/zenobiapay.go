package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Govind-619/GreenLedger/config"
	"github.com/Govind-619/GreenLedger/utils"
	"golang.org/x/oauth2"
)

// ZenobiaPayName is the ZenobiaPay processor name.
const ZenobiaPayName = "zenobiapay"

// ZenobiaPay creates bank transfers through the ZenobiaPay API.
type ZenobiaPay struct {
	apiURL     string
	merchantID string
	client     *http.Client
	verifier   *Verifier
}

type zenobiaTransferRequest struct {
	AmountCents int64                  `json:"amount_cents"`
	Currency    string                 `json:"currency"`
	Description string                 `json:"description"`
	MerchantID  string                 `json:"merchant_id"`
	ReturnURL   string                 `json:"return_url"`
	CancelURL   string                 `json:"cancel_url"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type zenobiaTransferResponse struct {
	TransferID string `json:"transfer_id"`
	PaymentURL string `json:"payment_url"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

type zenobiaWebhook struct {
	TransferID   string  `json:"transfer_id"`
	Status       string  `json:"status"`
	AmountCents  int64   `json:"amount_cents"`
	Amount       int64   `json:"amount"`
	Currency     string  `json:"currency"`
	MerchantID   string  `json:"merchant_id"`
	CustomerName *string `json:"customer_name"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// NewZenobiaPay returns a client authenticating with the API key as a bearer
// token. Every request is bounded by timeout.
func NewZenobiaPay(cfg config.ZenobiaConfig, timeout time.Duration) *ZenobiaPay {
	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	client.Timeout = timeout

	return &ZenobiaPay{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		merchantID: cfg.MerchantID,
		client:     client,
		verifier:   NewVerifier(cfg.WebhookSecret, EncodingBase64),
	}
}

func (z *ZenobiaPay) Name() string            { return ZenobiaPayName }
func (z *ZenobiaPay) SignatureHeader() string { return "zenobia-signature" }
func (z *ZenobiaPay) Verifier() *Verifier     { return z.verifier }

// CreateTransfer posts a transfer and returns its id and hosted payment page.
func (z *ZenobiaPay) CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	body, err := json.Marshal(zenobiaTransferRequest{
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Description: req.Description,
		MerchantID:  z.merchantID,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
		Metadata: map[string]interface{}{
			"order_id":       req.OrderID,
			"customer_email": req.CustomerEmail,
			"items":          itemMetadata(req.Items),
		},
	})
	if err != nil {
		return nil, utils.BadGatewayError("Failed to encode transfer request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, z.apiURL+"/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, utils.BadGatewayError("Failed to build transfer request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := z.client.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, utils.BadGatewayError("Payment processor timed out", err)
		}
		return nil, utils.BadGatewayError("Payment processor unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, utils.BadGatewayError("Failed to read processor response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, utils.BadGatewayError("Payment processor rejected transfer",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 512)))
	}

	var out zenobiaTransferResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, utils.BadGatewayError("Malformed processor response", err)
	}
	if out.TransferID == "" || out.PaymentURL == "" {
		return nil, utils.BadGatewayError("Malformed processor response",
			errors.New("transfer_id and payment_url are required"))
	}

	return &Transfer{TransferID: out.TransferID, PaymentURL: out.PaymentURL, Status: out.Status}, nil
}

// DecodeWebhook parses a ZenobiaPay transfer callback.
func (z *ZenobiaPay) DecodeWebhook(body []byte) (*WebhookEvent, error) {
	var payload zenobiaWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, utils.BadRequestError("Invalid payload", err)
	}
	if payload.TransferID == "" || payload.Status == "" {
		return nil, utils.BadRequestError("Invalid payload", errors.New("transfer_id and status are required"))
	}

	event := &WebhookEvent{
		TransferID:  payload.TransferID,
		Status:      strings.ToLower(payload.Status),
		AmountCents: payload.AmountCents,
		Currency:    payload.Currency,
		MerchantID:  payload.MerchantID,
		CreatedAt:   payload.CreatedAt,
		UpdatedAt:   payload.UpdatedAt,
	}
	if event.AmountCents == 0 {
		event.AmountCents = payload.Amount
	}
	if payload.CustomerName != nil {
		event.CustomerName = *payload.CustomerName
	}
	return event, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
