package config

import (
	"net"
	"os"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

const (
	// TargetSchema схема, в которой лежат таблицы звезды
	TargetSchema = "nz_rent"

	// StagingCSVPath относительный путь к исходному CSV
	StagingCSVPath = "data/staging/staging_rent.csv"
)

// Переменные окружения
const (
	envUser     = "MYSQL_USER"
	envPassword = "MYSQL_PASSWORD"
	envHost     = "MYSQL_HOST"
	envPort     = "MYSQL_PORT"
	envDB       = "MYSQL_DB"
	envVerbose  = "ETL_VERBOSE"
	envLogDir   = "ETL_LOG_DIR"
)

// Config содержит конфигурацию ETL-процесса.
// Создается один раз при старте и дальше передается по значению.
type Config struct {
	User     string
	Password string
	Host     string
	Port     string
	DBName   string

	// Включение/отключение подробного логирования
	Verbose bool

	// Каталог для файла лога, пустая строка - только stderr
	LogDir string
}

// Load читает .env (если он есть) и собирает конфигурацию из окружения.
// Отсутствующие переменные остаются пустыми: ошибка проявится при подключении.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv собирает конфигурацию только из переменных окружения
func FromEnv() Config {
	verbose, _ := strconv.ParseBool(os.Getenv(envVerbose))

	return Config{
		User:     os.Getenv(envUser),
		Password: os.Getenv(envPassword),
		Host:     os.Getenv(envHost),
		Port:     os.Getenv(envPort),
		DBName:   os.Getenv(envDB),
		Verbose:  verbose,
		LogDir:   os.Getenv(envLogDir),
	}
}

// DSN возвращает строку подключения для go-sql-driver/mysql
func (c Config) DSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.Host, c.Port)
	dsn.DBName = c.DBName
	dsn.ParseTime = true
	return dsn.FormatDSN()
}

// String не раскрывает пароль
func (c Config) String() string {
	return c.User + "@" + net.JoinHostPort(c.Host, c.Port) + "/" + c.DBName
}
