package main

import (
	"context"
	"log"
	"os"

	"github.com/alecthomas/kong"

	"spicegarden-storefront/internal/config"
	"spicegarden-storefront/internal/db"
	"spicegarden-storefront/internal/migrate"
)

var cli struct {
	DSN      string `name:"dsn" help:"Postgres connection string." env:"DB_DSN"`
	Rollback int    `help:"Revert this many migration steps instead of applying." default:"0"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Description(`Spice Garden storefront - profile storage migrations`),
		kong.UsageOnError(),
	)

	cfg := config.FromEnv()
	if cli.DSN != "" {
		cfg.DBConnString = cli.DSN
	}
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, 1)
	kctx.FatalIfErrorf(err, "connect db")
	defer pool.Close()

	if cli.Rollback > 0 {
		if err := migrate.Rollback(ctx, pool, cli.Rollback); err != nil {
			logger.Fatalf("rollback migrations: %v", err)
		}
		logger.Printf("rolled back %d step(s)", cli.Rollback)
		return
	}

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	logger.Println("migrations applied")
}
