package load_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/nz_rent_etl/ETL/config"
	"github.com/LilVoxy/nz_rent_etl/ETL/load"
	"github.com/LilVoxy/nz_rent_etl/ETL/testinfra"
	"github.com/LilVoxy/nz_rent_etl/ETL/utils"
)

const integrationCSV = `date_month,suburb_name,region,territorial_authority,property_type,median_rent,count_bonds,lat,lon
2023-01-01,Ponsonby,Auckland,Auckland,1 Bedroom,450.00,12,-36.848461,174.739656
2023-01-01, Te Aro ,Wellington,,2 Bedroom,520.50,7,0.0,0.0
2023-02-01,Riccarton,Canterbury,Christchurch City, House ,610.00,4,,
2023-02-01,Ponsonby,Auckland,Auckland,1 Bedroom,455.00,9,-36.848461,174.739656
2023-02-01,Mt Eden,  ,  ,1 Bedroom,500.00,3,-36.88,174.75
`

type fixture struct {
	cfg     config.Config
	db      *sqlx.DB
	logger  *utils.ETLLogger
	csvPath string
}

func setup(t *testing.T) fixture {
	t.Helper()

	cfg := testinfra.RequireMySQL(t)
	ctx := context.Background()

	db, err := config.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	testinfra.ResetTables(t, db)

	path := filepath.Join(t.TempDir(), "staging_rent.csv")
	require.NoError(t, os.WriteFile(path, []byte(integrationCSV), 0o644))

	return fixture{
		cfg:     cfg,
		db:      db,
		logger:  utils.NewETLLoggerWithWriter(io.Discard, false),
		csvPath: path,
	}
}

func (f fixture) loadStaging(t *testing.T) int64 {
	t.Helper()

	total, err := load.NewStagingLoader(f.db, f.logger, config.TargetSchema).LoadFile(context.Background(), f.csvPath)
	require.NoError(t, err)
	return total
}

func (f fixture) loadStar(t *testing.T) {
	t.Helper()

	loader := load.NewStarLoader(f.db, f.logger, config.TargetSchema)
	require.NoError(t, loader.EnsureStarSchema(context.Background()))
	_, err := loader.Load(context.Background())
	require.NoError(t, err)
}

func (f fixture) count(t *testing.T, table string) int64 {
	t.Helper()

	n, err := load.CountRows(context.Background(), f.db, config.TargetSchema, table)
	require.NoError(t, err)
	return n
}

func TestIntegration_StagingDoublesOnReload(t *testing.T) {
	f := setup(t)

	assert.Equal(t, int64(5), f.loadStaging(t))
	assert.Equal(t, int64(10), f.loadStaging(t))
}

func TestIntegration_DimensionsIdempotentFactsDoubled(t *testing.T) {
	f := setup(t)
	f.loadStaging(t)

	f.loadStar(t)
	dims := map[string]int64{}
	for _, table := range []string{load.TimeTable, load.SuburbTable, load.PropertyTypeTable} {
		dims[table] = f.count(t, table)
	}
	firstFacts := f.count(t, load.FactTable)

	assert.Equal(t, int64(2), dims[load.TimeTable])
	assert.Equal(t, int64(4), dims[load.SuburbTable])
	assert.Equal(t, int64(3), dims[load.PropertyTypeTable])
	// строки с пробелами в метках не совпадают с измерениями и отбрасываются
	assert.Equal(t, int64(2), firstFacts)

	f.loadStar(t)
	for table, n := range dims {
		assert.Equal(t, n, f.count(t, table), "таблица %s", table)
	}
	assert.Equal(t, 2*firstFacts, f.count(t, load.FactTable))
}

func TestIntegration_JoinCompleteness(t *testing.T) {
	f := setup(t)
	f.loadStaging(t)
	f.loadStar(t)

	facts, err := testinfra.NewStarReader(f.db, config.TargetSchema).Facts(context.Background(), testinfra.FactKey{
		Month:        time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		SuburbName:   "Ponsonby",
		Region:       "Auckland",
		PropertyType: "1 Bedroom",
	})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "450.00", facts[0].MedianRent.String)
	assert.Equal(t, int64(12), facts[0].CountBonds.Int64)
}

func TestIntegration_SuburbNormalization(t *testing.T) {
	f := setup(t)
	f.loadStaging(t)
	f.loadStar(t)

	reader := testinfra.NewStarReader(f.db, config.TargetSchema)

	suburb, err := reader.Suburb(context.Background(), "Te Aro")
	require.NoError(t, err)
	require.NotNil(t, suburb)
	assert.Equal(t, "Wellington", suburb.Region.String)
	assert.False(t, suburb.TerritorialAuthority.Valid)
	assert.False(t, suburb.Lat.Valid)
	assert.False(t, suburb.Lon.Valid)

	ponsonby, err := reader.Suburb(context.Background(), "Ponsonby")
	require.NoError(t, err)
	require.NotNil(t, ponsonby)
	assert.InDelta(t, -36.848461, ponsonby.Lat.Float64, 1e-6)

	mtEden, err := reader.Suburb(context.Background(), "Mt Eden")
	require.NoError(t, err)
	require.NotNil(t, mtEden)
	assert.False(t, mtEden.Region.Valid, "регион из одних пробелов сохраняется как NULL")
	assert.False(t, mtEden.TerritorialAuthority.Valid)
	assert.InDelta(t, 174.75, mtEden.Lon.Float64, 1e-6)

	types, err := reader.PropertyTypes(context.Background())
	require.NoError(t, err)
	var labels []string
	for _, pt := range types {
		labels = append(labels, pt.Name)
	}
	assert.Equal(t, []string{"1 Bedroom", "2 Bedroom", "House"}, labels)

	months, err := reader.TimeDimensions(context.Background())
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, 2023, months[1].Year)
	assert.Equal(t, 2, months[1].Month)
}

func TestIntegration_LoadManager(t *testing.T) {
	f := setup(t)

	summary, err := load.NewLoadManager(f.db, f.logger, config.TargetSchema).Load(context.Background(), f.csvPath)
	require.NoError(t, err)
	assert.Equal(t, load.Summary{StagingRows: 5, FactRows: 2}, summary)

	counts, err := load.TableCounts(context.Background(), f.db, config.TargetSchema)
	require.NoError(t, err)
	require.Len(t, counts, len(load.AllTables))
	assert.Equal(t, load.StagingTable, counts[0].Table)
}
