package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/antiraid/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	indexes := []struct {
		model   any
		name    string
		columns []string
	}{
		// Aggregation scans active stings of a guild
		{(*types.Sting)(nil), "idx_stings_guild_state", []string{"guild_id", "state"}},
		{(*types.Sting)(nil), "idx_stings_guild_target", []string{"guild_id", "target"}},
		{(*types.Sting)(nil), "idx_stings_created_at", []string{"created_at"}},
		{(*types.Sting)(nil), "idx_stings_state_expires_at", []string{"state", "expires_at"}},
		{(*types.Punishment)(nil), "idx_punishments_guild_state", []string{"guild_id", "state"}},
		{(*types.Punishment)(nil), "idx_punishments_guild_target", []string{"guild_id", "target"}},
	}

	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, index := range indexes {
			if _, err := db.NewCreateIndex().
				Model(index.model).
				Index(index.name).
				Column(index.columns...).
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index %s: %w", index.name, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, index := range indexes {
			if _, err := db.NewDropIndex().
				Index(index.name).
				IfExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop index %s: %w", index.name, err)
			}
		}

		return nil
	})
}
