package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgx each store needs; both *pgxpool.Pool and
// pgx.Tx satisfy it.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// txFromContext returns the transaction carried by ctx, if any.
func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// queryTarget resolves to the ambient transaction when one is open,
// falling back to the pool.
func queryTarget(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return pool
}

// unitOfWork runs a function inside one transaction carried via ctx.
type unitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork creates a transactional unit of work over the pool.
// Panics on a nil pool.
func NewUnitOfWork(pool *pgxpool.Pool) *unitOfWork {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &unitOfWork{pool: pool}
}

// Run executes fn inside a transaction. The transaction travels in ctx
// so every store call within fn joins it; fn's error rolls everything
// back.
func (u *unitOfWork) Run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFromContext(ctx); ok {
		// Already inside a unit of work; join it.
		return fn(ctx)
	}

	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
