package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/LilVoxy/nz_rent_etl/ETL/config"
	"github.com/LilVoxy/nz_rent_etl/ETL/connectivity"
	"github.com/LilVoxy/nz_rent_etl/ETL/load"
	"github.com/LilVoxy/nz_rent_etl/ETL/models"
	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

type ETLRunner struct {
	config      config.Config
	db          *sqlx.DB
	logger      *utils.ETLLogger
	loadManager *load.LoadManager
	etlLogRepo  models.ETLLogRepository
	csvPath     string
	out         io.Writer
}

// NewETLRunner создает новый экземпляр ETLRunner
func NewETLRunner(ctx context.Context, cfg config.Config, logger *utils.ETLLogger) (*ETLRunner, error) {
	logger.Info("Инициализация ETL Runner")

	db, err := config.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Журнал лежит в схеме подключения (MYSQL_DB)
	etlLogRepo := models.NewMySQLETLLogRepository(db, cfg.DBName)

	// Создаем таблицу логов, если она еще не существует
	if err := etlLogRepo.CreateETLLogTable(ctx); err != nil {
		config.Close(db, logger)
		return nil, err
	}

	return &ETLRunner{
		config:      cfg,
		db:          db,
		logger:      logger,
		loadManager: load.NewLoadManager(db, logger, config.TargetSchema),
		etlLogRepo:  etlLogRepo,
		csvPath:     config.StagingCSVPath,
		out:         os.Stdout,
	}, nil
}

// Close закрывает соединение с базой данных
func (r *ETLRunner) Close() {
	r.logger.Info("Завершение работы ETL Runner")
	config.Close(r.db, r.logger)
}

// ExecuteETL выполняет проверку подключения, загрузку staging и звезды
func (r *ETLRunner) ExecuteETL(ctx context.Context) error {
	r.logger.LogETLStart()
	startTime := time.Now()

	// Создаем запись в журнале ETL
	logID, err := r.etlLogRepo.CreateLogEntry(ctx, startTime)
	if err != nil {
		return err
	}

	lastRun, err := r.etlLogRepo.GetLastSuccessfulRun(ctx)
	if err != nil {
		r.logger.Error("Не удалось получить информацию о последнем успешном запуске: %v", err)
	}
	if lastRun != nil {
		r.logger.Info("Последний успешный запуск: %v, строк в fact_rent: %d", lastRun.EndTime, lastRun.FactRows)
	}

	// 1. Проверка подключения
	check, err := connectivity.Check(ctx, r.db)
	if err != nil {
		r.updateETLRunLogFailure(ctx, logID, err)
		return eris.Wrap(err, "ошибка при проверке подключения")
	}
	if err := check.Print(r.out); err != nil {
		err = eris.Wrap(err, "ошибка при выводе результатов проверки")
		r.updateETLRunLogFailure(ctx, logID, err)
		return err
	}

	// 2. Staging, измерения и факты
	summary, err := r.loadManager.Load(ctx, r.csvPath)
	if err != nil {
		r.updateETLRunLogFailure(ctx, logID, err)
		return err
	}

	// 3. Итоговые количества строк
	counts, err := load.TableCounts(ctx, r.db, config.TargetSchema)
	if err != nil {
		r.updateETLRunLogFailure(ctx, logID, err)
		return err
	}
	for _, c := range counts {
		if _, err := fmt.Fprintf(r.out, "Rows in %s: %d\n", c.Table, c.Rows); err != nil {
			err = eris.Wrap(err, "ошибка при выводе количества строк")
			r.updateETLRunLogFailure(ctx, logID, err)
			return err
		}
	}

	// Успех фиксируется только после вывода отчета
	if err := r.etlLogRepo.UpdateLogEntrySuccess(ctx, logID, time.Now(), summary.StagingRows, summary.FactRows); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале ETL: %v", err)
	}

	r.logger.LogETLComplete(startTime, summary.StagingRows, summary.FactRows)
	return nil
}

// updateETLRunLogFailure обновляет запись в журнале ETL при ошибке
func (r *ETLRunner) updateETLRunLogFailure(ctx context.Context, id int, cause error) {
	if err := r.etlLogRepo.UpdateLogEntryFailure(ctx, id, time.Now(), cause.Error()); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале ETL: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *utils.ETLLogger) error {
	runner, err := NewETLRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	return runner.ExecuteETL(ctx)
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
