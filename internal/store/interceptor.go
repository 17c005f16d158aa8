package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// QueryInterceptor is the subset of *sql.DB and *sql.Tx the sub-stores use.
type QueryInterceptor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type loggingInterceptor struct {
	next   QueryInterceptor
	logger *zap.SugaredLogger
}

func newLoggingInterceptor(next QueryInterceptor) *loggingInterceptor {
	return &loggingInterceptor{next: next, logger: zap.S().Named("store")}
}

func (l *loggingInterceptor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	l.logger.Debugw("exec", "query", query, "args", args)
	return l.next.ExecContext(ctx, query, args...)
}

func (l *loggingInterceptor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	l.logger.Debugw("query", "query", query, "args", args)
	return l.next.QueryContext(ctx, query, args...)
}

func (l *loggingInterceptor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	l.logger.Debugw("query row", "query", query, "args", args)
	return l.next.QueryRowContext(ctx, query, args...)
}
