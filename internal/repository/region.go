package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"valorant-companion/internal/domain"

	"github.com/rs/zerolog"
)

type RegionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRegionRepository(sqlDB *sql.DB, logger zerolog.Logger) *RegionRepository {
	return &RegionRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Get returns the stored binding for accountID, or nil when none exists.
func (r *RegionRepository) Get(ctx context.Context, accountID string) (*domain.RegionBinding, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT account_id, region, shard, last_updated FROM region_bindings WHERE account_id = ?`,
		accountID,
	)

	var b domain.RegionBinding
	err := row.Scan(&b.AccountID, &b.Region, &b.Shard, &b.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read region binding: %w", err)
	}
	return &b, nil
}

func (r *RegionRepository) Upsert(ctx context.Context, b domain.RegionBinding) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO region_bindings (account_id, region, shard, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			region = excluded.region,
			shard = excluded.shard,
			last_updated = excluded.last_updated`,
		b.AccountID, b.Region, b.Shard, b.LastUpdated.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert region binding %s: %w", b.AccountID, err)
	}

	r.logger.Debug().
		Str("account_id", b.AccountID).
		Str("region", b.Region).
		Str("shard", b.Shard).
		Time("last_updated", b.LastUpdated).
		Msg("region binding stored")
	return nil
}
