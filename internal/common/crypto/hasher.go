package crypto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/AlibekovAA/shotplot/backend/internal/common/constants"
	"github.com/AlibekovAA/shotplot/backend/internal/observability/metrics"
)

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher produces self-describing one-way hashes and checks secrets
// against them. Verify reports a mismatch as (false, nil).
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// BcryptHasher runs bcrypt with a fixed cost. At most `workers` hash or
// verify computations run at once; callers past the limit wait for a slot
// until their context is done.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

func NewBcryptHasher(cost int, workers int64) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = constants.DefaultBcryptCost
	}
	if workers < 1 {
		workers = 1
	}
	return &BcryptHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(workers),
	}
}

func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if len(password) > constants.PasswordMaxBytes {
		return "", ErrPasswordTooLong
	}

	var hash []byte
	err := h.run(ctx, "hash", func() error {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), h.cost)
		return err
	})
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	var cmpErr error
	err := h.run(ctx, "verify", func() error {
		cmpErr = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		return nil
	})
	if err != nil {
		return false, err
	}

	switch {
	case cmpErr == nil:
		return true, nil
	case errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("invalid stored hash: %w", cmpErr)
	}
}

func (h *BcryptHasher) run(ctx context.Context, op string, fn func() error) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire hash worker: %w", err)
	}
	defer h.sem.Release(1)

	metrics.PasswordHashInFlight.Inc()
	defer metrics.PasswordHashInFlight.Dec()

	start := time.Now()
	err := fn()
	metrics.PasswordHashDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}
