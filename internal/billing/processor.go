// AngelaMos | 2026
// processor.go

package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type IntentStatus string

const (
	IntentSucceeded             IntentStatus = "succeeded"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentCanceled              IntentStatus = "canceled"
)

type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       IntentStatus      `json:"status"`
	AmountCents  int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

// PaymentProcessor creates payment intents that the client confirms out of
// band and later reports back by id.
type PaymentProcessor interface {
	CreateIntent(
		ctx context.Context,
		amountCents int64,
		currency string,
		metadata map[string]string,
		idempotencyKey string,
	) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

// HTTPProcessor speaks the Stripe-compatible payment_intents REST API.
type HTTPProcessor struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewHTTPProcessor(baseURL, secretKey string, timeout time.Duration) *HTTPProcessor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProcessor{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		secretKey: strings.TrimSpace(secretKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *HTTPProcessor) CreateIntent(
	ctx context.Context,
	amountCents int64,
	currency string,
	metadata map[string]string,
	idempotencyKey string,
) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/v1/payment_intents",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("build create intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	return p.do(req)
}

func (p *HTTPProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		p.baseURL+"/v1/payment_intents/"+url.PathEscape(id),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("build get intent request: %w", err)
	}

	return p.do(req)
}

type processorError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (p *HTTPProcessor) do(req *http.Request) (*Intent, error) {
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment processor request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		var errResp processorError
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, &ProcessorError{
				StatusCode: resp.StatusCode,
				Message:    errResp.Error.Message,
			}
		}
		return nil, &ProcessorError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("payment processor returned intent without id")
	}

	return &intent, nil
}

type ProcessorError struct {
	StatusCode int
	Message    string
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("payment processor error (%d): %s", e.StatusCode, e.Message)
}
