package extractors

import (
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/LilVoxy/nz_rent_etl/ETL/models"
	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

// CSVExtractor читает исходный CSV со статистикой аренды
type CSVExtractor struct {
	logger *utils.ETLLogger
}

// NewCSVExtractor создает новый экземпляр CSVExtractor
func NewCSVExtractor(logger *utils.ETLLogger) *CSVExtractor {
	return &CSVExtractor{
		logger: logger,
	}
}

// Extract читает файл по указанному пути
func (e *CSVExtractor) Extract(path string) ([]models.StagingRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ошибка при открытии файла %s", path)
	}
	defer file.Close()

	rows, err := e.ExtractFrom(file)
	if err != nil {
		return nil, eris.Wrapf(err, "ошибка при чтении файла %s", path)
	}
	return rows, nil
}

// ExtractFrom декодирует CSV из reader в строки staging.
// BOM в начале файла отбрасывается, все колонки staging обязательны в заголовке
func (e *CSVExtractor) ExtractFrom(r io.Reader) ([]models.StagingRow, error) {
	startTime := time.Now()

	src := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	dec, err := csvutil.NewDecoder(csv.NewReader(src))
	if err != nil {
		return nil, eris.Wrap(err, "ошибка при чтении заголовка CSV")
	}
	dec.DisallowMissingColumns = true

	var rows []models.StagingRow
	for {
		var row models.StagingRow
		err := dec.Decode(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "ошибка в записи %d", len(rows)+1)
		}
		rows = append(rows, row)

		// Логируем прогресс каждые 10000 строк
		if len(rows)%10000 == 0 {
			e.logger.Debug("Прочитано %d строк...", len(rows))
		}
	}

	e.logger.Info("Прочитано строк из CSV: %d. Длительность: %v", len(rows), time.Since(startTime))
	return rows, nil
}
