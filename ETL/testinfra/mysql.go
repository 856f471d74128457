package testinfra

import (
	"context"
	"net"
	"os"
	"sync"
	"testing"

	drv "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/LilVoxy/nz_rent_etl/ETL/config"
)

const (
	MySQLImage    = "mysql:8.0.36"
	MySQLUser     = "root"
	MySQLPassword = "etl_test"

	// DSNEnv позволяет указать готовую базу вместо контейнера
	DSNEnv = "ETL_TEST_MYSQL_DSN"
)

var (
	containerOnce sync.Once
	containerCfg  config.Config
	containerErr  error
)

// StartMySQL запускает MySQL с пустой базой nz_rent
func StartMySQL(ctx context.Context) (config.Config, error) {
	ctr, err := mysql.Run(ctx,
		MySQLImage,
		mysql.WithDatabase(config.TargetSchema),
		mysql.WithUsername(MySQLUser),
		mysql.WithPassword(MySQLPassword),
	)
	if err != nil {
		return config.Config{}, eris.Wrap(err, "не удалось запустить контейнер MySQL")
	}

	dsn, err := ctr.ConnectionString(ctx)
	if err != nil {
		testcontainers.TerminateContainer(ctr) //nolint:errcheck
		return config.Config{}, eris.Wrap(err, "не удалось получить строку подключения")
	}

	return configFromDSN(dsn)
}

// configFromDSN собирает Config из DSN драйвера
func configFromDSN(dsn string) (config.Config, error) {
	parsed, err := drv.ParseDSN(dsn)
	if err != nil {
		return config.Config{}, eris.Wrap(err, "некорректный DSN")
	}

	host, port, err := net.SplitHostPort(parsed.Addr)
	if err != nil {
		return config.Config{}, eris.Wrapf(err, "некорректный адрес %s", parsed.Addr)
	}

	return config.Config{
		User:     parsed.User,
		Password: parsed.Passwd,
		Host:     host,
		Port:     port,
		DBName:   parsed.DBName,
	}, nil
}

func getOrStartContainer() (config.Config, error) {
	containerOnce.Do(func() {
		containerCfg, containerErr = StartMySQL(context.Background())
	})
	return containerCfg, containerErr
}

// RequireMySQL возвращает конфигурацию тестовой базы или пропускает тест.
// Порядок: ETL_TEST_MYSQL_DSN, затем контейнер
func RequireMySQL(t *testing.T) config.Config {
	t.Helper()

	if testing.Short() {
		t.Skip("Интеграционный тест пропущен в режиме -short")
	}

	if dsn := os.Getenv(DSNEnv); dsn != "" {
		cfg, err := configFromDSN(dsn)
		if err != nil {
			t.Fatalf("%s: %v", DSNEnv, err)
		}
		return cfg
	}

	cfg, err := getOrStartContainer()
	if err != nil {
		t.Skipf("%s не задан и Docker недоступен: %v", DSNEnv, err)
	}
	return cfg
}

// ResetTables удаляет таблицы хранилища, чтобы тест начинал с пустой базы
func ResetTables(t *testing.T, db *sqlx.DB) {
	t.Helper()

	for _, table := range []string{"fact_rent", "dim_time", "dim_suburb", "dim_property_type", "stg_rent", "etl_run_log"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + config.TargetSchema + "." + table); err != nil {
			t.Fatalf("не удалось удалить %s: %v", table, err)
		}
	}
}
