package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
)

// etlLogTable имя таблицы журнала без схемы
const etlLogTable = "etl_run_log"

// Шаблоны запросов, %s - полное имя таблицы журнала
const createETLLogTableQuery = `
	CREATE TABLE IF NOT EXISTS %s (
		id INT AUTO_INCREMENT PRIMARY KEY,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		staging_rows BIGINT DEFAULT 0,
		fact_rows BIGINT DEFAULT 0,
		error_message TEXT,
		execution_time_seconds FLOAT
	) ENGINE=InnoDB`

const insertETLLogQuery = `INSERT INTO %s (start_time, status) VALUES (?, 'in_progress')`

const selectStartTimeQuery = `SELECT start_time FROM %s WHERE id = ?`

const updateETLLogSuccessQuery = `
	UPDATE %s
	SET
		end_time = ?,
		status = 'success',
		staging_rows = ?,
		fact_rows = ?,
		execution_time_seconds = ?
	WHERE id = ?`

const updateETLLogFailureQuery = `
	UPDATE %s
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?`

const selectLastSuccessfulRunQuery = `
	SELECT
		id, start_time, end_time, status,
		staging_rows, fact_rows,
		IFNULL(error_message, '') AS error_message, execution_time_seconds
	FROM %s
	WHERE status = 'success'
	ORDER BY end_time DESC
	LIMIT 1`

// MySQLETLLogRepository реализация ETLLogRepository для MySQL.
// Таблица журнала всегда адресуется через схему, текущая схема соединения не используется
type MySQLETLLogRepository struct {
	db    *sqlx.DB
	table string
}

// NewMySQLETLLogRepository создает новый экземпляр MySQLETLLogRepository
// для журнала в указанной схеме
func NewMySQLETLLogRepository(db *sqlx.DB, schema string) *MySQLETLLogRepository {
	table := etlLogTable
	if schema != "" {
		table = schema + "." + etlLogTable
	}
	return &MySQLETLLogRepository{
		db:    db,
		table: table,
	}
}

// Table полное имя таблицы журнала
func (r *MySQLETLLogRepository) Table() string {
	return r.table
}

func (r *MySQLETLLogRepository) query(template string) string {
	return fmt.Sprintf(template, r.table)
}

// CreateETLLogTable создает таблицу для журнала ETL процесса, если она не существует
func (r *MySQLETLLogRepository) CreateETLLogTable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.query(createETLLogTableQuery)); err != nil {
		return eris.Wrap(err, "ошибка при создании таблицы журнала ETL")
	}
	return nil
}

// CreateLogEntry создает новую запись о запуске ETL
func (r *MySQLETLLogRepository) CreateLogEntry(ctx context.Context, startTime time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, r.query(insertETLLogQuery), startTime)
	if err != nil {
		return 0, eris.Wrap(err, "ошибка при создании записи о запуске ETL")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "ошибка при получении ID созданной записи")
	}

	return int(id), nil
}

// UpdateLogEntrySuccess обновляет запись при успешном завершении ETL
func (r *MySQLETLLogRepository) UpdateLogEntrySuccess(ctx context.Context, id int, endTime time.Time, stagingRows, factRows int64) error {
	executionTime, err := r.executionTime(ctx, id, endTime)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, r.query(updateETLLogSuccessQuery), endTime, stagingRows, factRows, executionTime, id)
	if err != nil {
		return eris.Wrap(err, "ошибка при обновлении записи о запуске ETL")
	}

	return nil
}

// UpdateLogEntryFailure обновляет запись при неудачном завершении ETL
func (r *MySQLETLLogRepository) UpdateLogEntryFailure(ctx context.Context, id int, endTime time.Time, errorMessage string) error {
	executionTime, err := r.executionTime(ctx, id, endTime)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, r.query(updateETLLogFailureQuery), endTime, errorMessage, executionTime, id)
	if err != nil {
		return eris.Wrap(err, "ошибка при обновлении записи о запуске ETL")
	}

	return nil
}

// GetLastSuccessfulRun получает информацию о последнем успешном запуске ETL.
// Возвращает nil без ошибки, если успешных запусков еще не было
func (r *MySQLETLLogRepository) GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error) {
	var log ETLRunLog
	err := r.db.GetContext(ctx, &log, r.query(selectLastSuccessfulRunQuery))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "ошибка при получении информации о последнем успешном запуске ETL")
	}

	return &log, nil
}

// executionTime рассчитывает время выполнения в секундах
func (r *MySQLETLLogRepository) executionTime(ctx context.Context, id int, endTime time.Time) (float64, error) {
	var startTime time.Time
	if err := r.db.GetContext(ctx, &startTime, r.query(selectStartTimeQuery), id); err != nil {
		return 0, eris.Wrap(err, "ошибка при получении времени начала ETL")
	}
	return endTime.Sub(startTime).Seconds(), nil
}
