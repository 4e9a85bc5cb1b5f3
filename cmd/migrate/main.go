package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"alpha-ledger/config"
	"alpha-ledger/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const defaultDir = "internal/adapter/storage/postgres/migrations"

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version")
	dir := flag.String("dir", defaultDir, "goose migrations directory")
	configPath := flag.String("config", "", "config file path (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("failed to set goose dialect")
	}

	if err := goose.RunContext(ctx, *cmd, db, *dir, flag.Args()...); err != nil {
		log.Fatal().Err(err).Str("cmd", *cmd).Msg("migration failed")
	}

	log.Info().Str("cmd", *cmd).Str("dir", *dir).Msg("migration complete")
}
