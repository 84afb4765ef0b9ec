package testutil

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedOffer inserts an offer row directly, bypassing the store.
func SeedOffer(t *testing.T, ctx context.Context, pool *pgxpool.Pool, jobTitle string, applicationCount int64) {
	t.Helper()
	_, err := pool.Exec(ctx, `
		INSERT INTO offers (job_title, number_of_applications)
		VALUES ($1, $2)
	`, jobTitle, applicationCount)
	if err != nil {
		t.Fatalf("failed to insert test offer %s: %v", jobTitle, err)
	}
}

// TruncateAll removes every offer and application.
func TruncateAll(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE applications, offers`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
