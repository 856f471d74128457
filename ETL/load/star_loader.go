package load

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

// StatementResult результат выполнения одного шага
type StatementResult struct {
	Statement    Statement
	RowsAffected int64
}

// StarLoader загружает измерения и факты из stg_rent
type StarLoader struct {
	db         *sqlx.DB
	logger     *utils.ETLLogger
	schema     string
	statements []Statement
}

// NewStarLoader создает новый экземпляр StarLoader
func NewStarLoader(db *sqlx.DB, logger *utils.ETLLogger, schema string) *StarLoader {
	return &StarLoader{
		db:         db,
		logger:     logger,
		schema:     schema,
		statements: StarStatements(schema),
	}
}

// Statements шаги загрузки в порядке выполнения
func (l *StarLoader) Statements() []Statement {
	return l.statements
}

// EnsureStarSchema создает измерения и таблицу фактов, если их нет.
// DDL в MySQL фиксируется неявно, поэтому выполняется вне транзакции загрузки
func (l *StarLoader) EnsureStarSchema(ctx context.Context) error {
	for _, ddl := range starSchemaDDL(l.schema) {
		if _, err := l.db.ExecContext(ctx, ddl); err != nil {
			return eris.Wrap(err, "ошибка при создании таблиц звезды")
		}
	}
	l.logger.Debug("Таблицы измерений и фактов готовы")
	return nil
}

// Load выполняет все шаги в одной транзакции.
// При ошибке любого шага откатываются все
func (l *StarLoader) Load(ctx context.Context) ([]StatementResult, error) {
	startTime := time.Now()
	l.logger.Info("Начало загрузки измерений и фактов")

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "ошибка при начале транзакции")
	}

	results := make([]StatementResult, 0, len(l.statements))
	for _, stmt := range l.statements {
		result, err := tx.ExecContext(ctx, stmt.SQL)
		if err != nil {
			rollback(tx, l.logger)
			l.logger.Error("Шаг %q завершился ошибкой, транзакция откачена: %v", stmt, err)
			return nil, eris.Wrapf(err, "ошибка на шаге %q", stmt)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			rollback(tx, l.logger)
			return nil, eris.Wrapf(err, "ошибка при получении количества строк на шаге %q", stmt)
		}

		l.logger.Debug("Шаг %q: затронуто строк %d", stmt, affected)
		results = append(results, StatementResult{Statement: stmt, RowsAffected: affected})
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "ошибка при фиксации транзакции")
	}

	l.logger.Info("Загрузка измерений и фактов завершена. Длительность: %v", time.Since(startTime))
	return results, nil
}
