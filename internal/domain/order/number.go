// internal/domain/order/number.go
package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/your-org/checkout-backend/internal/pkg/apperror"
)

const (
	DefaultNumberPrefix      = "ORD"
	DefaultNumberMaxAttempts = 100

	numberTimeLayout = "20060102150405"
	suffixMin        = 1000
	suffixMax        = 9999
)

// NumberChecker reports whether an order number is already persisted
type NumberChecker interface {
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

// NumberReserver claims a number for the caller. Reserve returns false when
// another caller already holds it.
type NumberReserver interface {
	Reserve(ctx context.Context, number string) (bool, error)
}

// NumberGenerator produces order numbers of the form ORD + yyyyMMddHHmmss + 4 digits
type NumberGenerator struct {
	prefix      string
	maxAttempts int
	reserver    NumberReserver
	now         func() time.Time
	suffix      func() int
}

// NumberOption customizes a NumberGenerator
type NumberOption func(*NumberGenerator)

// WithClock overrides the time source
func WithClock(now func() time.Time) NumberOption {
	return func(g *NumberGenerator) { g.now = now }
}

// WithSuffixSource overrides the random suffix source
func WithSuffixSource(suffix func() int) NumberOption {
	return func(g *NumberGenerator) { g.suffix = suffix }
}

// NewNumberGenerator creates a new order number generator
func NewNumberGenerator(prefix string, maxAttempts int, reserver NumberReserver, opts ...NumberOption) *NumberGenerator {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultNumberMaxAttempts
	}

	g := &NumberGenerator{
		prefix:      prefix,
		maxAttempts: maxAttempts,
		reserver:    reserver,
		now:         func() time.Time { return time.Now().UTC() },
		suffix:      func() int { return suffixMin + rand.IntN(suffixMax-suffixMin+1) },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a number that is neither persisted nor reserved by anyone else.
// The timestamp is fixed for the call and only the suffix is re-rolled.
func (g *NumberGenerator) Generate(ctx context.Context, checker NumberChecker) (string, error) {
	timestamp := g.now().Format(numberTimeLayout)

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		number := fmt.Sprintf("%s%s%04d", g.prefix, timestamp, g.suffix())

		exists, err := checker.ExistsByNumber(ctx, number)
		if err != nil {
			return "", fmt.Errorf("failed to check order number: %w", err)
		}
		if exists {
			continue
		}

		if g.reserver != nil {
			reserved, err := g.reserver.Reserve(ctx, number)
			if err != nil {
				return "", fmt.Errorf("failed to reserve order number: %w", err)
			}
			if !reserved {
				continue
			}
		}

		return number, nil
	}

	return "", apperror.Wrapf(ErrNumberExhausted, "no free order number after %d attempts", g.maxAttempts)
}

// LocalReserver keeps reservations in process memory.
// Entries expire after ttl, by which time the order row exists.
type LocalReserver struct {
	mu       sync.Mutex
	ttl      time.Duration
	reserved map[string]time.Time
	now      func() time.Time
}

// NewLocalReserver creates an in-process reserver
func NewLocalReserver(ttl time.Duration) *LocalReserver {
	return &LocalReserver{
		ttl:      ttl,
		reserved: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Reserve claims the number unless a live reservation exists
func (r *LocalReserver) Reserve(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if expires, ok := r.reserved[number]; ok && now.Before(expires) {
		return false, nil
	}

	// sweep expired entries so the map stays bounded
	for n, expires := range r.reserved {
		if !now.Before(expires) {
			delete(r.reserved, n)
		}
	}

	r.reserved[number] = now.Add(r.ttl)
	return true, nil
}
