package config

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

const driverName = "mysql"

// Connect открывает подключение к базе данных и проверяет его
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, eris.Wrapf(err, "ошибка подключения к базе данных %s", cfg)
	}

	// Настройка параметров подключения
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "не удалось установить соединение с базой данных %s", cfg)
	}

	return db, nil
}

// Close закрывает подключение к базе данных
func Close(db *sqlx.DB, logger *utils.ETLLogger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("Ошибка при закрытии соединения с базой данных: %v", err)
		return
	}
	logger.Debug("Соединение с базой данных закрыто")
}
