package storage

import (
	"context"
	"os"
	"testing"

	"spicegarden-storefront/internal/db"
	"spicegarden-storefront/internal/migrate"
)

func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE profile_storage`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	s := NewPostgres(pool).Scope("integration")
	if err := s.Set(ctx, "k", "one"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", "two"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "two" {
		t.Fatalf("unexpected get %q %v %v", v, ok, err)
	}
	if _, ok, _ := NewPostgres(pool).Scope("other").Get(ctx, "k"); ok {
		t.Fatalf("slot leaked across profiles")
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected key deleted")
	}
}
