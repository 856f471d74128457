package main

import (
	"context"
	"log"
	"os"

	"github.com/LilVoxy/nz_rent_etl/ETL/config"
	"github.com/LilVoxy/nz_rent_etl/ETL/connectivity"
	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

func run(ctx context.Context, cfg config.Config, logger *utils.ETLLogger) error {
	db, err := config.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer config.Close(db, logger)

	result, err := connectivity.Check(ctx, db)
	if err != nil {
		return err
	}
	return result.Print(os.Stdout)
}

func main() {
	cfg := config.Load()

	logger, err := utils.NewETLLogger(cfg.Verbose, cfg.LogDir)
	if err != nil {
		log.Fatalf("Ошибка при создании логгера: %v", err)
	}
	defer logger.Close()

	logger.Debug("Проверка подключения к %s", cfg)
	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Fatal(err)
	}
}
