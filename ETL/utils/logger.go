package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// ETLLogger представляет логгер для ETL-процесса
type ETLLogger struct {
	log       *logrus.Logger
	file      *os.File
	isVerbose bool
}

// NewETLLogger создает новый экземпляр логгера для ETL.
// Если logDir не пустой, лог дублируется в файл etl_log_<дата>.log
func NewETLLogger(verbose bool, logDir string) (*ETLLogger, error) {
	if logDir == "" {
		return NewETLLoggerWithWriter(os.Stderr, verbose), nil
	}

	// Создаем или открываем лог-файл для записи
	currentTime := time.Now().Format("2006-01-02")
	logFileName := filepath.Join(logDir, fmt.Sprintf("etl_log_%s.log", currentTime))

	file, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, eris.Wrapf(err, "не удалось открыть или создать файл лога %s", logFileName)
	}

	logger := NewETLLoggerWithWriter(io.MultiWriter(os.Stderr, file), verbose)
	logger.file = file
	return logger, nil
}

// NewETLLoggerWithWriter создает логгер, пишущий в произвольный writer
func NewETLLoggerWithWriter(w io.Writer, verbose bool) *ETLLogger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	return &ETLLogger{
		log:       log,
		isVerbose: verbose,
	}
}

// Close закрывает файл лога, если он был открыт
func (l *ETLLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Info логирует информационное сообщение
func (l *ETLLogger) Info(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

// Error логирует сообщение об ошибке
func (l *ETLLogger) Error(format string, v ...interface{}) {
	l.log.Errorf(format, v...)
}

// Debug логирует отладочное сообщение (только если включен verbose режим)
func (l *ETLLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}
	l.log.Debugf(format, v...)
}

// Fatal логирует ошибку вместе со стеком и завершает процесс
func (l *ETLLogger) Fatal(err error) {
	l.log.Error(eris.ToString(err, true))
	l.Close()
	os.Exit(1)
}

// LogETLStart логирует начало ETL-процесса
func (l *ETLLogger) LogETLStart() {
	l.Info("Начало выполнения ETL-процесса")
}

// LogETLComplete логирует завершение ETL-процесса
func (l *ETLLogger) LogETLComplete(startTime time.Time, stagingRows, factRows int64) {
	duration := time.Since(startTime)
	l.Info("ETL-процесс завершён. Длительность: %v", duration)
	l.Info("Строк в staging: %d, строк в fact_rent: %d", stagingRows, factRows)
}

// LogPhaseStart логирует начало фазы
func (l *ETLLogger) LogPhaseStart(phase string) {
	l.Info("Начало фазы %s", phase)
}

// LogPhaseComplete логирует завершение фазы
func (l *ETLLogger) LogPhaseComplete(phase string, duration time.Duration) {
	l.Info("Фаза %s завершена. Длительность: %v", phase, duration)
}
