package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
)

// GatewayAuthorizer talks to a card processor's REST API.
type GatewayAuthorizer struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewGatewayAuthorizer(baseURL, secretKey string, timeout time.Duration) *GatewayAuthorizer {
	return &GatewayAuthorizer{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *GatewayAuthorizer) Name() string { return "gateway" }

type gatewayAuthorizeRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Customer string `json:"customer"`
	Card     struct {
		Number   string `json:"number"`
		ExpMonth string `json:"exp_month"`
		ExpYear  string `json:"exp_year"`
		CVC      string `json:"cvc"`
		Name     string `json:"name"`
	} `json:"card"`
}

type gatewayResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"` // authorized | declined | requires_action
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`
}

func (g *GatewayAuthorizer) Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error) {
	var body gatewayAuthorizeRequest
	body.Amount = req.Amount.StringFixed(2)
	body.Currency = req.Currency
	body.Customer = req.UserID
	body.Card.Number = NormalizeNumber(req.Card.Number)
	body.Card.ExpMonth, body.Card.ExpYear, _ = strings.Cut(req.Card.Expiry, "/")
	body.Card.CVC = req.Card.CVC
	body.Card.Name = req.Card.HolderName

	var res gatewayResponse
	status, err := g.do(ctx, "/v1/authorizations", req.IdempotencyKey, body, &res)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusPaymentRequired || res.Status == "declined":
		return nil, &apperr.PaymentDeclinedError{Reason: firstNonEmpty(res.DeclineCode, res.Message, "declined")}
	case res.Status == "requires_action":
		return nil, &apperr.PaymentDeclinedError{Reason: firstNonEmpty(res.DeclineCode, "authentication_required"), RequiresAction: true}
	case status >= 300 || res.ID == "":
		return nil, fmt.Errorf("payment gateway: unexpected status %d: %s", status, res.Message)
	}

	return &Authorization{Provider: g.Name(), Reference: res.ID, Amount: req.Amount}, nil
}

func (g *GatewayAuthorizer) Void(ctx context.Context, reference string) error {
	var res gatewayResponse
	status, err := g.do(ctx, "/v1/authorizations/"+reference+"/void", "void-"+reference, struct{}{}, &res)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("payment gateway: void %s: status %d: %s", reference, status, res.Message)
	}
	return nil
}

func (g *GatewayAuthorizer) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	body := map[string]string{"authorization": reference, "amount": amount.StringFixed(2)}
	var res gatewayResponse
	status, err := g.do(ctx, "/v1/refunds", "refund-"+reference, body, &res)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("payment gateway: refund %s: status %d: %s", reference, status, res.Message)
	}
	return nil
}

func (g *GatewayAuthorizer) do(ctx context.Context, path, idempotencyKey string, in, out interface{}) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, errors.Wrap(err, "encode gateway request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, errors.Wrap(err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "call payment gateway")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, errors.Wrap(err, "read gateway response")
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, errors.Wrap(err, "decode gateway response")
		}
	}
	return resp.StatusCode, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
