package main

import (
	"context"
	"fmt"
	"log"

	"github.com/LilVoxy/nz_rent_etl/ETL/config"
	"github.com/LilVoxy/nz_rent_etl/ETL/load"
	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

func run(ctx context.Context, cfg config.Config, logger *utils.ETLLogger) error {
	db, err := config.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer config.Close(db, logger)

	total, err := load.NewStagingLoader(db, logger, config.TargetSchema).LoadFile(ctx, config.StagingCSVPath)
	if err != nil {
		return err
	}

	fmt.Printf("Rows in staging: %d\n", total)
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
