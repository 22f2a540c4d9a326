// Package storecall bounds repository calls with a timeout and retries transient store failures once.
package storecall

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Policy struct {
	Timeout time.Duration
	Retries int
	Logger  *slog.Logger
}

func NewPolicy(timeout time.Duration, retries int, lg *slog.Logger) Policy {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	if retries > 1 {
		retries = 1
	}
	if retries < 0 {
		retries = 0
	}
	return Policy{Timeout: timeout, Retries: retries, Logger: lg}
}

// Do runs fn under the policy timeout. Timeout and StoreUnavailable are retried at most once;
// every other error is returned as-is.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := 1 + p.Retries
	if attempts > 2 {
		attempts = 2
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = p.once(ctx, fn)
		if err == nil || !Retryable(err) || ctx.Err() != nil {
			return err
		}
		if attempt < attempts {
			p.log().WarnContext(ctx, "store call failed, retrying", "op", op, "attempt", attempt, "error", err)
		}
	}
	p.log().ErrorContext(ctx, "store call failed", "op", op, "error", err)
	return err
}

func (p Policy) once(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := internal.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return Classify(fn(callCtx))
}

func (p Policy) log() *slog.Logger {
	if p.Logger == nil {
		return logger.LoggerWrapper()
	}
	return p.Logger
}

// Get is Do for calls that produce a value.
func Get[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Retryable reports whether err is a transient store failure. A partial failure is never
// retryable, even when its cause was transient.
func Retryable(err error) bool {
	if errors.Is(err, internal.ErrPartialFailure) {
		return false
	}
	return errors.Is(err, internal.ErrTimeout) || errors.Is(err, internal.ErrStoreUnavailable)
}

// Classify maps driver-level failures onto the Timeout / StoreUnavailable kinds.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return internal.ErrTimeout.WithCause(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return internal.ErrTimeout.WithCause(err)
	}
	if isUnavailable(err) {
		return internal.ErrStoreUnavailable.WithCause(err)
	}
	return err
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
