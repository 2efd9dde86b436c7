package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"telcodash/pkg/apperror"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const maxAttempts = 3

// RetryDB retries statements that fail because the server could not be reached.
// Each retry waits step × attempt. Any other error is returned on the first attempt.
type RetryDB struct {
	db     DB
	step   time.Duration
	logger *zap.Logger
}

func NewRetryDB(db DB, step time.Duration, logger *zap.Logger) *RetryDB {
	if step <= 0 {
		step = 200 * time.Millisecond
	}
	return &RetryDB{db: db, step: step, logger: logger}
}

func (r *RetryDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := r.do(ctx, func() error {
		var err error
		tag, err = r.db.Exec(ctx, sql, args...)
		return err
	})
	return tag, err
}

func (r *RetryDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	var rows pgx.Rows
	err := r.do(ctx, func() error {
		var err error
		rows, err = r.db.Query(ctx, sql, args...)
		return err
	})
	return rows, err
}

// QueryRow defers execution to Scan, where connection failures surface.
func (r *RetryDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &retryRow{r: r, ctx: ctx, sql: sql, args: args}
}

type retryRow struct {
	r    *RetryDB
	ctx  context.Context
	sql  string
	args []any
}

func (row *retryRow) Scan(dest ...any) error {
	return row.r.do(row.ctx, func() error {
		return row.r.db.QueryRow(row.ctx, row.sql, row.args...).Scan(dest...)
	})
}

func (r *RetryDB) do(ctx context.Context, op func() error) error {
	attempt := 0
	policy := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: r.step}, maxAttempts-1), ctx)

	err := backoff.RetryNotify(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !IsConnectionError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		r.logger.Warn("Database unreachable, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil && IsConnectionError(err) {
		return fmt.Errorf("%w: %w", apperror.ErrTransient, err)
	}
	return err
}

type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.step * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// IsConnectionError reports whether err means the server was refused or lost.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
