package repository

import (
	"context"
	"errors"

	"coinpulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when a holding id does not exist.
var ErrNotFound = errors.New("repository: holding not found")

const createHoldingsTable = `
CREATE TABLE IF NOT EXISTS holdings (
    id          BIGSERIAL   PRIMARY KEY,
    asset_id    TEXT        NOT NULL,
    quantity    NUMERIC     NOT NULL CHECK (quantity >= 0),
    invested    NUMERIC     NOT NULL CHECK (invested >= 0),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_holdings_asset_id ON holdings (asset_id);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// HoldingRepository persists the user's purchase lots.
type HoldingRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewHoldingRepository(pool PgxPool, tracer trace.Tracer) *HoldingRepository {
	return &HoldingRepository{pool: pool, tracer: tracer}
}

func (r *HoldingRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "holding-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createHoldingsTable)
	return err
}

func (r *HoldingRepository) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	_, span := r.tracer.Start(ctx, "holding-repo.list-holdings")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, asset_id, quantity, invested, created_at
		 FROM holdings
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.ID, &h.AssetID, &h.Quantity, &h.Invested, &h.CreatedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (r *HoldingRepository) AddHolding(ctx context.Context, h domain.Holding) (domain.Holding, error) {
	_, span := r.tracer.Start(ctx, "holding-repo.add-holding")
	defer span.End()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO holdings (asset_id, quantity, invested)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		h.AssetID, h.Quantity, h.Invested,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return domain.Holding{}, err
	}
	return h, nil
}

func (r *HoldingRepository) DeleteHolding(ctx context.Context, id int64) error {
	_, span := r.tracer.Start(ctx, "holding-repo.delete-holding")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM holdings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
