package models

import (
	"context"
	"time"
)

// Статусы запуска ETL
const (
	StatusInProgress = "in_progress"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// ETLRunLog представляет запись о запуске ETL процесса
type ETLRunLog struct {
	ID                   int       `db:"id"`
	StartTime            time.Time `db:"start_time"`
	EndTime              time.Time `db:"end_time"`
	Status               string    `db:"status"`
	StagingRows          int64     `db:"staging_rows"`
	FactRows             int64     `db:"fact_rows"`
	ErrorMessage         string    `db:"error_message"`
	ExecutionTimeSeconds float64   `db:"execution_time_seconds"`
}

// ETLLogRepository представляет репозиторий для работы с журналом ETL
type ETLLogRepository interface {
	// CreateETLLogTable создает таблицу журнала, если она не существует
	CreateETLLogTable(ctx context.Context) error

	// CreateLogEntry создает новую запись о запуске ETL
	CreateLogEntry(ctx context.Context, startTime time.Time) (int, error)

	// UpdateLogEntrySuccess обновляет запись при успешном завершении ETL
	UpdateLogEntrySuccess(ctx context.Context, id int, endTime time.Time, stagingRows, factRows int64) error

	// UpdateLogEntryFailure обновляет запись при неудачном завершении ETL
	UpdateLogEntryFailure(ctx context.Context, id int, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun получает информацию о последнем успешном запуске ETL
	GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error)
}
