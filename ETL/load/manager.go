package load

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

// Summary итог полного прогона загрузки
type Summary struct {
	StagingRows int64
	FactRows    int64
}

// LoadManager отвечает за порядок фаз загрузки: сначала staging, затем звезда
type LoadManager struct {
	db     *sqlx.DB
	logger *utils.ETLLogger
	schema string
	loader Loader
}

// NewLoadManager создает новый экземпляр LoadManager
func NewLoadManager(db *sqlx.DB, logger *utils.ETLLogger, schema string) *LoadManager {
	return &LoadManager{
		db:     db,
		logger: logger,
		schema: schema,
		loader: NewMySQLLoader(
			NewStagingLoader(db, logger, schema),
			NewStarLoader(db, logger, schema),
		),
	}
}

// Load выполняет обе фазы загрузки для CSV по указанному пути
func (m *LoadManager) Load(ctx context.Context, csvPath string) (Summary, error) {
	var summary Summary

	// 1. Загружаем staging
	phaseStart := time.Now()
	m.logger.LogPhaseStart("Staging")
	stagingRows, err := m.loader.LoadStaging(ctx, csvPath)
	if err != nil {
		m.logger.Error("Ошибка при загрузке staging: %v", err)
		return summary, eris.Wrap(err, "ошибка в фазе Staging")
	}
	summary.StagingRows = stagingRows
	m.logger.LogPhaseComplete("Staging", time.Since(phaseStart))

	// 2. Загружаем измерения и факты
	phaseStart = time.Now()
	m.logger.LogPhaseStart("Star")
	if _, err := m.loader.LoadStar(ctx); err != nil {
		m.logger.Error("Ошибка при загрузке измерений и фактов: %v", err)
		return summary, eris.Wrap(err, "ошибка в фазе Star")
	}
	m.logger.LogPhaseComplete("Star", time.Since(phaseStart))

	factRows, err := CountFacts(ctx, m.db, m.schema)
	if err != nil {
		return summary, err
	}
	summary.FactRows = factRows

	return summary, nil
}
