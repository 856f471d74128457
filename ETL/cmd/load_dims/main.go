package main

import (
	"context"
	"fmt"
	"log"

	"github.com/LilVoxy/nz_rent_etl/ETL/config"
	"github.com/LilVoxy/nz_rent_etl/ETL/load"
	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

// loadStar загружает измерения и факты и закрывает соединение
func loadStar(ctx context.Context, cfg config.Config, logger *utils.ETLLogger) error {
	db, err := config.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer config.Close(db, logger)

	loader := load.NewStarLoader(db, logger, config.TargetSchema)
	if err := loader.EnsureStarSchema(ctx); err != nil {
		return err
	}
	_, err = loader.Load(ctx)
	return err
}

// countFacts считает факты через новое соединение
func countFacts(ctx context.Context, cfg config.Config, logger *utils.ETLLogger) (int64, error) {
	db, err := config.Connect(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer config.Close(db, logger)

	return load.CountFacts(ctx, db, config.TargetSchema)
}

func run(ctx context.Context, cfg config.Config, logger *utils.ETLLogger) error {
	if err := loadStar(ctx, cfg, logger); err != nil {
		return err
	}

	facts, err := countFacts(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Rows in fact_rent: %d\n", facts)
	return nil
}

func main() {
	cfg := config.Load()

	logger, err := utils.NewETLLogger(cfg.Verbose, cfg.LogDir)
	if err != nil {
		log.Fatalf("Ошибка при создании логгера: %v", err)
	}
	defer logger.Close()

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Fatal(err)
	}
}
