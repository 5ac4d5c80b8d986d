package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgStorage struct {
	DB *pgxpool.Pool
}

const (
	schemaSql = `CREATE TABLE IF NOT EXISTS payments (
		correlationId UUID PRIMARY KEY,
		amount NUMERIC NOT NULL,
		requested_at TIMESTAMPTZ NOT NULL,
		service TEXT NOT NULL
	)`
	indexSql  = `CREATE INDEX IF NOT EXISTS payments_requested_at ON payments (requested_at)`
	insertSql = `INSERT INTO payments(correlationId, amount, requested_at, service)
		VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`
	summarySql = `
		SELECT service, COUNT(*), COALESCE(SUM(amount), 0)::text
		FROM payments
		WHERE ($1::timestamptz IS NULL OR requested_at >= $1)
		  AND ($2::timestamptz IS NULL OR requested_at <= $2)
		GROUP BY service`
	deleteAllSql = `DELETE FROM payments`
)

// NewPgStorage connects to dsn and makes sure the payments table exists.
func NewPgStorage(ctx context.Context, dsn string) (*PgStorage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	cfg.MinConns = 1
	cfg.MaxConns = 8

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not connect to postgres: %w", err)
	}

	for _, stmt := range []string{schemaSql, indexSql} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("could not ensure payments table: %w", err)
		}
	}
	return &PgStorage{DB: pool}, nil
}

func (s *PgStorage) Save(ctx context.Context, p ProcessedPayment) error {
	_, err := s.DB.Exec(ctx, insertSql, p.CorrelationId, p.Amount.String(), p.RequestedAt, p.Processor.Label())
	return err
}

func (s *PgStorage) GetSummary(ctx context.Context, from, to *time.Time) (Summary, error) {
	rows, err := s.DB.Query(ctx, summarySql, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := NewSummary()
	for rows.Next() {
		var service, total string
		var ps PaymentSummary
		if err := rows.Scan(&service, &ps.TotalRequests, &total); err != nil {
			return nil, err
		}
		id, ok := ProcessorFromLabel(service)
		if !ok {
			continue
		}
		if ps.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invalid amount sum %q: %w", total, err)
		}
		summary[id.Name()] = ps
	}
	return summary, rows.Err()
}

func (s *PgStorage) CleanUp(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, deleteAllSql)
	return err
}

func (s *PgStorage) Close() {
	s.DB.Close()
}
