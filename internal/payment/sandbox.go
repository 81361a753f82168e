package payment

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
)

const (
	TestCardSuccess        = "4242424242424242"
	TestCardDeclined       = "4000000000000002"
	TestCardRequiresAction = "4000000000003220"
)

// SandboxAuthorizer simulates a processor in test mode keyed off well-known test card numbers.
type SandboxAuthorizer struct {
	AllowUnknownCards bool

	mu       sync.Mutex
	payments map[string]sandboxPayment
	now      func() time.Time
}

type sandboxPayment struct {
	amount  decimal.Decimal
	voided  bool
	refunds int
}

func NewSandboxAuthorizer(allowUnknown bool) *SandboxAuthorizer {
	return &SandboxAuthorizer{
		AllowUnknownCards: allowUnknown,
		payments:          make(map[string]sandboxPayment),
		now:               time.Now,
	}
}

func (s *SandboxAuthorizer) Name() string { return "sandbox" }

func (s *SandboxAuthorizer) Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch NormalizeNumber(req.Card.Number) {
	case TestCardSuccess:
	case TestCardDeclined:
		return nil, &apperr.PaymentDeclinedError{Reason: "card_declined"}
	case TestCardRequiresAction:
		return nil, &apperr.PaymentDeclinedError{Reason: "authentication_required", RequiresAction: true}
	default:
		if !s.AllowUnknownCards {
			return nil, &apperr.PaymentDeclinedError{Reason: "incorrect_number"}
		}
	}

	ref := fmt.Sprintf("pi_%d_%s", s.now().UnixMilli(), strings.ToLower(randomBase36(9)))

	s.mu.Lock()
	s.payments[ref] = sandboxPayment{amount: req.Amount}
	s.mu.Unlock()

	return &Authorization{Provider: s.Name(), Reference: ref, Amount: req.Amount}, nil
}

func (s *SandboxAuthorizer) Void(_ context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[reference]
	if !ok {
		return apperr.NotFound("payment", reference)
	}
	p.voided = true
	s.payments[reference] = p
	return nil
}

func (s *SandboxAuthorizer) Refund(_ context.Context, reference string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[reference]
	if !ok {
		return apperr.NotFound("payment", reference)
	}
	if amount.GreaterThan(p.amount) {
		return &apperr.ConflictError{Reason: "refund exceeds authorized amount"}
	}
	if p.refunds > 0 {
		return nil
	}
	p.refunds++
	s.payments[reference] = p
	return nil
}

// Voided and Refunded expose sandbox state to tests and the admin console.
func (s *SandboxAuthorizer) Voided(reference string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[reference].voided
}

func (s *SandboxAuthorizer) Refunded(reference string) bool {
	return s.RefundCount(reference) > 0
}

// RefundCount is how many refunds actually moved money for reference.
func (s *SandboxAuthorizer) RefundCount(reference string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[reference].refunds
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomBase36(n int) string {
	var b strings.Builder
	b.Grow(n)
	limit := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			idx = big.NewInt(time.Now().UnixNano() % int64(len(base36)))
		}
		b.WriteByte(base36[idx.Int64()])
	}
	return b.String()
}
