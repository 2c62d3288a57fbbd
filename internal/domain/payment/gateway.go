package payment

import (
	"context"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unavailable is the gateway used when no payment broker is configured. Every
// charge fails with ErrGatewayUnavailable.
type Unavailable struct{}

var _ Gateway = Unavailable{}

func (Unavailable) Charge(context.Context, Method, decimal.Decimal) (Receipt, error) {
	return Receipt{}, ErrGatewayUnavailable
}

// Sandbox approves every charge except those made with a declined card or an
// expired one. It never talks to a real broker.
type Sandbox struct {
	declined []string
	now      func() time.Time
}

var _ Gateway = (*Sandbox)(nil)

// NewSandbox returns a Sandbox that declines the given card numbers.
func NewSandbox(declinedCards ...string) *Sandbox {
	return &Sandbox{declined: declinedCards, now: time.Now}
}

// Charge approves the charge unless the method is a declined or expired card.
func (s *Sandbox) Charge(ctx context.Context, m Method, amount decimal.Decimal) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if amount.IsNegative() {
		return Receipt{}, errors.Wrapf(ErrInvalidAmount, "charge amount %s", amount)
	}
	now := s.now()
	if card, ok := m.(CreditCard); ok {
		if slices.Contains(s.declined, card.Number()) {
			return Receipt{}, errors.Wrapf(ErrDeclined, "card %s", card.MaskedNumber())
		}
		if card.Expired(now) {
			return Receipt{}, errors.Wrapf(ErrDeclined, "card %s expired", card.MaskedNumber())
		}
	}
	return Receipt{
		TransactionID: uuid.NewString(),
		Amount:        amount.Round(2),
		ChargedAt:     now,
	}, nil
}

// RetryConfig controls how Retrying backs off between attempts.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Retrying retries transient gateway failures with exponential backoff.
// Declines and invalid amounts are final and returned immediately.
type Retrying struct {
	next Gateway
	cfg  RetryConfig
}

var _ Gateway = (*Retrying)(nil)

// NewRetrying wraps next with retry.
func NewRetrying(next Gateway, cfg RetryConfig) *Retrying {
	return &Retrying{next: next, cfg: cfg}
}

// Charge calls the wrapped gateway until it succeeds, declines, or the retry
// budget or ctx runs out.
func (r *Retrying) Charge(ctx context.Context, m Method, amount decimal.Decimal) (Receipt, error) {
	if amount.IsNegative() {
		return Receipt{}, errors.Wrapf(ErrInvalidAmount, "charge amount %s", amount)
	}
	var receipt Receipt
	op := func() error {
		rc, err := r.next.Charge(ctx, m, amount)
		if err != nil {
			if errors.Is(err, ErrDeclined) || errors.Is(err, ErrGatewayUnavailable) || errors.Is(err, ErrInvalidAmount) {
				return backoff.Permanent(err)
			}
			return err
		}
		receipt = rc
		return nil
	}
	if err := backoff.Retry(op, r.policy(ctx)); err != nil {
		return Receipt{}, errors.Wrap(err, "charge")
	}
	return receipt, nil
}

func (r *Retrying) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if r.cfg.InitialInterval > 0 {
		b.InitialInterval = r.cfg.InitialInterval
	}
	if r.cfg.MaxInterval > 0 {
		b.MaxInterval = r.cfg.MaxInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, r.cfg.MaxRetries), ctx)
}
