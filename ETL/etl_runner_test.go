package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/nz_rent_etl/ETL/config"
	"github.com/LilVoxy/nz_rent_etl/ETL/load"
	"github.com/LilVoxy/nz_rent_etl/ETL/models"
	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

type fakeLogRepo struct {
	created  int
	success  []int64
	failures []string

	// вывод runner на момент фиксации успеха
	report          *bytes.Buffer
	reportAtSuccess string
}

func (f *fakeLogRepo) CreateETLLogTable(ctx context.Context) error { return nil }

func (f *fakeLogRepo) CreateLogEntry(ctx context.Context, startTime time.Time) (int, error) {
	f.created++
	return f.created, nil
}

func (f *fakeLogRepo) UpdateLogEntrySuccess(ctx context.Context, id int, endTime time.Time, stagingRows, factRows int64) error {
	f.success = append(f.success, stagingRows, factRows)
	if f.report != nil {
		f.reportAtSuccess = f.report.String()
	}
	return nil
}

func (f *fakeLogRepo) UpdateLogEntryFailure(ctx context.Context, id int, endTime time.Time, errorMessage string) error {
	f.failures = append(f.failures, errorMessage)
	return nil
}

func (f *fakeLogRepo) GetLastSuccessfulRun(ctx context.Context) (*models.ETLRunLog, error) {
	return nil, nil
}

const runnerCSV = `date_month,suburb_name,region,territorial_authority,property_type,median_rent,count_bonds,lat,lon
2023-01-01,Ponsonby,Auckland,Auckland,1 Bedroom,450.00,12,-36.848461,174.739656
`

func newTestRunner(t *testing.T) (*ETLRunner, sqlmock.Sqlmock, *fakeLogRepo, *bytes.Buffer) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "mysql")
	logger := utils.NewETLLoggerWithWriter(io.Discard, false)
	out := &bytes.Buffer{}
	repo := &fakeLogRepo{report: out}

	path := filepath.Join(t.TempDir(), "staging_rent.csv")
	require.NoError(t, os.WriteFile(path, []byte(runnerCSV), 0o644))

	return &ETLRunner{
		db:          db,
		logger:      logger,
		loadManager: load.NewLoadManager(db, logger, config.TargetSchema),
		etlLogRepo:  repo,
		csvPath:     path,
		out:         out,
	}, mock, repo, out
}

func expectConnectivity(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT DATABASE\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"DATABASE()"}).AddRow("nz_rent"))
	mock.ExpectQuery(`SELECT VERSION\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"VERSION()"}).AddRow("8.0.36"))
	mock.ExpectQuery(`SELECT 1 AS ok`).
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(int64(1)))
}

func expectCount(mock sqlmock.Sqlmock, table string, n int64) {
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM nz_rent\.` + table).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(n))
}

func expectLoad(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("USE `nz_rent`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS nz_rent\.stg_rent`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO nz_rent\.stg_rent`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectCount(mock, "stg_rent", 1)

	for _, table := range []string{"dim_time", "dim_suburb", "dim_property_type", "fact_rent"} {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS nz_rent\.` + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectBegin()
	mock.ExpectExec("USE `nz_rent`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO dim_time`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO dim_suburb`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO dim_property_type`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO fact_rent`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectCount(mock, "fact_rent", 1)
}

func TestExecuteETL(t *testing.T) {
	runner, mock, repo, out := newTestRunner(t)

	expectConnectivity(mock)
	expectLoad(mock)

	for _, table := range load.AllTables {
		expectCount(mock, table, 1)
	}

	require.NoError(t, runner.ExecuteETL(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []int64{1, 1}, repo.success)
	assert.Empty(t, repo.failures)
	assert.Contains(t, out.String(), "nz_rent\n8.0.36\n[[1]]\n")
	assert.Contains(t, out.String(), "Rows in dim_suburb: 1\n")
	assert.Contains(t, out.String(), "Rows in fact_rent: 1\n")
	assert.Contains(t, repo.reportAtSuccess, "Rows in fact_rent: 1\n", "success is recorded after the report")
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestExecuteETL_PrintFailureRecorded(t *testing.T) {
	runner, mock, repo, _ := newTestRunner(t)
	runner.out = failingWriter{}

	expectConnectivity(mock)

	err := runner.ExecuteETL(context.Background())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Empty(t, repo.success)
	require.Len(t, repo.failures, 1)
	assert.Contains(t, repo.failures[0], "broken pipe")
}

func TestExecuteETL_ReportFailureNotMarkedSuccess(t *testing.T) {
	runner, mock, repo, out := newTestRunner(t)

	expectConnectivity(mock)
	expectLoad(mock)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM nz_rent\.stg_rent`).WillReturnError(errors.New("lock wait timeout"))

	err := runner.ExecuteETL(context.Background())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Empty(t, repo.success)
	require.Len(t, repo.failures, 1)
	assert.Contains(t, repo.failures[0], "lock wait timeout")
	assert.NotContains(t, out.String(), "Rows in")
}

func TestExecuteETL_RecordsFailure(t *testing.T) {
	runner, mock, repo, _ := newTestRunner(t)

	mock.ExpectQuery(`SELECT DATABASE\(\)`).WillReturnError(errors.New("connection reset"))

	err := runner.ExecuteETL(context.Background())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Empty(t, repo.success)
	require.Len(t, repo.failures, 1)
	assert.Contains(t, repo.failures[0], "connection reset")
}
