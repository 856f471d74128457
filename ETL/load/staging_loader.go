package load

import (
	"context"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/LilVoxy/nz_rent_etl/ETL/extractors"
	"github.com/LilVoxy/nz_rent_etl/ETL/models"
	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

// DefaultBatchSize количество строк в одном INSERT
const DefaultBatchSize = 1000

// StagingLoader отвечает за загрузку CSV в таблицу stg_rent
type StagingLoader struct {
	db        *sqlx.DB
	logger    *utils.ETLLogger
	extractor *extractors.CSVExtractor
	schema    string
	batchSize int
}

// NewStagingLoader создает новый экземпляр StagingLoader
func NewStagingLoader(db *sqlx.DB, logger *utils.ETLLogger, schema string) *StagingLoader {
	return &StagingLoader{
		db:        db,
		logger:    logger,
		extractor: extractors.NewCSVExtractor(logger),
		schema:    schema,
		batchSize: DefaultBatchSize,
	}
}

// EnsureStagingTable создает stg_rent, если ее еще нет.
// Транзакция фиксируется до начала загрузки строк
func (l *StagingLoader) EnsureStagingTable(ctx context.Context) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "ошибка при начале транзакции")
	}

	if _, err := tx.ExecContext(ctx, "USE `"+l.schema+"`"); err != nil {
		rollback(tx, l.logger)
		return eris.Wrapf(err, "ошибка при выборе схемы %s", l.schema)
	}

	if _, err := tx.ExecContext(ctx, stagingTableDDL(l.schema)); err != nil {
		rollback(tx, l.logger)
		return eris.Wrap(err, "ошибка при создании таблицы stg_rent")
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "ошибка при фиксации транзакции")
	}

	l.logger.Debug("Таблица %s готова", qualified(l.schema, StagingTable))
	return nil
}

// Append добавляет строки в stg_rent без проверки на дубликаты.
// Все пачки пишутся в одной транзакции
func (l *StagingLoader) Append(ctx context.Context, rows []models.StagingRow) (int64, error) {
	if len(rows) == 0 {
		l.logger.Debug("Нет строк для загрузки в staging")
		return 0, nil
	}

	startTime := time.Now()
	l.logger.Info("Начало загрузки строк в staging (всего: %d)", len(rows))

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "ошибка при начале транзакции")
	}

	var appended int64
	for start := 0; start < len(rows); start += l.batchSize {
		end := start + l.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		query, args := buildStagingInsert(l.schema, rows[start:end])
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			rollback(tx, l.logger)
			return 0, eris.Wrapf(err, "ошибка при вставке строк %d-%d", start+1, end)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			rollback(tx, l.logger)
			return 0, eris.Wrap(err, "ошибка при получении количества вставленных строк")
		}
		appended += affected

		l.logger.Debug("Загружено %d из %d строк...", end, len(rows))
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "ошибка при фиксации транзакции")
	}

	l.logger.Info("Загрузка в staging завершена. Загружено строк: %d. Длительность: %v", appended, time.Since(startTime))
	return appended, nil
}

// Count возвращает общее количество строк в stg_rent
func (l *StagingLoader) Count(ctx context.Context) (int64, error) {
	return CountRows(ctx, l.db, l.schema, StagingTable)
}

// LoadFile создает таблицу, читает CSV и дописывает его в staging.
// Возвращает общее количество строк в stg_rent после загрузки
func (l *StagingLoader) LoadFile(ctx context.Context, path string) (int64, error) {
	if err := l.EnsureStagingTable(ctx); err != nil {
		return 0, err
	}

	rows, err := l.extractor.Extract(path)
	if err != nil {
		return 0, err
	}

	if _, err := l.Append(ctx, rows); err != nil {
		return 0, err
	}

	return l.Count(ctx)
}

// buildStagingInsert собирает многострочный INSERT для пачки строк
func buildStagingInsert(schema string, rows []models.StagingRow) (string, []interface{}) {
	ib := sqlbuilder.MySQL.NewInsertBuilder()
	ib.InsertInto(qualified(schema, StagingTable))
	ib.Cols(models.StagingColumns...)
	for _, row := range rows {
		ib.Values(row.Values()...)
	}
	return ib.Build()
}

// rollback откатывает транзакцию и логирует ошибку отката
func rollback(tx *sqlx.Tx, logger *utils.ETLLogger) {
	if err := tx.Rollback(); err != nil {
		logger.Error("Ошибка при откате транзакции: %v", err)
	}
}
