// Package bakery implements the costing, inventory, sales, consignment and cash
// operations of the back office on top of a gorm database.
package bakery

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"sagradodoce/internal/costing"
	applog "sagradodoce/internal/log"
)

var (
	// ErrInvalidInput reports a request that fails validation before anything is written.
	ErrInvalidInput = costing.ErrInvalidInput
	// ErrNotFound reports a missing ingredient, recipe, sale, seller or consignment.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock reports a request for more than is available.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrReferentialIntegrity reports a delete blocked by rows that still reference the record.
	ErrReferentialIntegrity = errors.New("record is still referenced")
	// ErrInvalidTransition reports a status change that is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStorage wraps failures of the underlying database.
	ErrStorage = errors.New("storage failure")
)

var domainErrors = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrInsufficientStock,
	ErrReferentialIntegrity,
	ErrInvalidTransition,
	ErrStorage,
}

const defaultRetryBackoff = 200 * time.Millisecond

// Options tunes the service's policies.
type Options struct {
	// RejectNegativeStock fails sales and deliveries that would drive any ingredient below zero.
	RejectNegativeStock bool
	// RetryBackoff is the wait before the single retry of a transient storage failure.
	RetryBackoff time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
	// NewReference overrides sale reference generation.
	NewReference func() string
}

// Service exposes the bakery operations consumed by the HTTP handlers and tools.
type Service struct {
	db   *gorm.DB
	opts Options
}

// New builds a Service over db.
func New(db *gorm.DB, opts Options) *Service {
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewReference == nil {
		opts.NewReference = uuid.NewString
	}
	return &Service{db: db, opts: opts}
}

// DB returns the underlying database handle.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// Options reports the policies the service was built with, defaults applied.
func (s *Service) Options() Options {
	return s.opts
}

// transact runs fn in a single transaction. A transient storage failure reruns the
// whole transaction once after the configured backoff; fn must therefore assign its
// results rather than accumulate them across attempts.
func (s *Service) transact(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	attempt := func() error {
		return s.db.WithContext(ctx).Transaction(fn)
	}

	err := attempt()
	if err != nil && isTransient(err) {
		applog.Debug(ctx, "retrying transient storage failure", "op", op, "error", err, "backoff", s.opts.RetryBackoff.String())
		timer := time.NewTimer(s.opts.RetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return storageError(op, ctx.Err())
		case <-timer.C:
		}
		err = attempt()
	}

	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return storageError(op, err)
}

func isTransient(err error) bool {
	if isDomainError(err) {
		return false
	}
	return errors.Is(err, driver.ErrBadConn) || pgconn.SafeToRetry(err)
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// lookupError maps a single-row read failure onto ErrNotFound or ErrStorage.
func lookupError(op, entity string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity, id)
	}
	return storageError(op, err)
}

func notFound(entity string, id uint) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func referenced(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrReferentialIntegrity, fmt.Sprintf(format, args...))
}

func requireName(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", invalid("%s is required", field)
	}
	return trimmed, nil
}

func requirePositive(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return invalid("%s must be greater than zero", field)
	}
	return nil
}

func requireNonNegative(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return invalid("%s must not be negative", field)
	}
	return nil
}
