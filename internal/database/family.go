// internal/database/family.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/happyfamilies/internal/models"
)

// FamilyRepository stores the family catalog in Postgres.
type FamilyRepository struct {
	pool *pgxpool.Pool
}

func NewFamilyRepository(pool *pgxpool.Pool) *FamilyRepository {
	return &FamilyRepository{pool: pool}
}

// EnsureSchema creates the families table if it does not exist.
func (r *FamilyRepository) EnsureSchema(ctx context.Context) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			CREATE TABLE IF NOT EXISTS families (
				id         TEXT PRIMARY KEY,
				name       TEXT NOT NULL,
				color      TEXT NOT NULL,
				theme      TEXT NOT NULL DEFAULT '',
				emoji      TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`
		_, err := tx.Exec(ctx, q)
		return err
	})
	if err != nil {
		return fmt.Errorf("create families table: %w", err)
	}
	return nil
}

// LoadFamilies returns every stored family, oldest first.
func (r *FamilyRepository) LoadFamilies(ctx context.Context) ([]models.Family, error) {
	q := `
		SELECT id, name, color, theme, emoji
		FROM families
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query families: %w", err)
	}
	defer rows.Close()

	var families []models.Family
	for rows.Next() {
		var f models.Family
		if err := rows.Scan(&f.ID, &f.Name, &f.Color, &f.Theme, &f.Emoji); err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate families: %w", err)
	}
	return families, nil
}

// SaveFamily inserts f. An existing row with the same id is left untouched.
func (r *FamilyRepository) SaveFamily(ctx context.Context, f models.Family) error {
	q := `
		INSERT INTO families (id, name, color, theme, emoji)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, q, f.ID, f.Name, f.Color, f.Theme, f.Emoji); err != nil {
		return fmt.Errorf("insert family %s: %w", f.ID, err)
	}
	return nil
}
