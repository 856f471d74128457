package testinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/LilVoxy/nz_rent_etl/ETL/load"
)

// TimeDimension строка dim_time
type TimeDimension struct {
	ID        int       `db:"time_id"`
	DateMonth time.Time `db:"date_month"`
	Year      int       `db:"year"`
	Quarter   int       `db:"quarter"`
	Month     int       `db:"month"`
}

// SuburbDimension строка dim_suburb
type SuburbDimension struct {
	ID                   int             `db:"suburb_id"`
	SuburbName           string          `db:"suburb_name"`
	TerritorialAuthority sql.NullString  `db:"territorial_authority"`
	Region               sql.NullString  `db:"region"`
	SuburbCode           sql.NullString  `db:"suburb_code"`
	Lat                  sql.NullFloat64 `db:"lat"`
	Lon                  sql.NullFloat64 `db:"lon"`
}

// PropertyTypeDimension строка dim_property_type
type PropertyTypeDimension struct {
	ID   int    `db:"property_type_id"`
	Name string `db:"property_type_name"`
}

// RentFact строка fact_rent
type RentFact struct {
	TimeID         int            `db:"time_id"`
	SuburbID       int            `db:"suburb_id"`
	PropertyTypeID int            `db:"property_type_id"`
	MedianRent     sql.NullString `db:"median_rent"`
	CountBonds     sql.NullInt64  `db:"count_bonds"`
}

// FactKey натуральный ключ факта аренды
type FactKey struct {
	Month        time.Time
	SuburbName   string
	Region       string
	PropertyType string
}

// StarReader читает измерения и факты для проверок после загрузки
type StarReader struct {
	db     sqlx.QueryerContext
	schema string
}

// NewStarReader создает новый экземпляр StarReader
func NewStarReader(db sqlx.QueryerContext, schema string) *StarReader {
	return &StarReader{db: db, schema: schema}
}

func (r *StarReader) table(name string) string {
	return r.schema + "." + name
}

// TimeDimensions возвращает все месяцы в порядке возрастания
func (r *StarReader) TimeDimensions(ctx context.Context) ([]TimeDimension, error) {
	sb := sqlbuilder.MySQL.NewSelectBuilder()
	sb.Select("time_id", "date_month", "year", "quarter", "month").
		From(r.table(load.TimeTable)).
		OrderBy("date_month")

	var dims []TimeDimension
	query, args := sb.Build()
	if err := sqlx.SelectContext(ctx, r.db, &dims, query, args...); err != nil {
		return nil, eris.Wrap(err, "ошибка при чтении dim_time")
	}
	return dims, nil
}

// Suburb возвращает пригород по имени или nil, если его нет
func (r *StarReader) Suburb(ctx context.Context, name string) (*SuburbDimension, error) {
	sb := sqlbuilder.MySQL.NewSelectBuilder()
	sb.Select("suburb_id", "suburb_name", "territorial_authority", "region", "suburb_code", "lat", "lon").
		From(r.table(load.SuburbTable)).
		Where(sb.Equal("suburb_name", name))

	var dims []SuburbDimension
	query, args := sb.Build()
	if err := sqlx.SelectContext(ctx, r.db, &dims, query, args...); err != nil {
		return nil, eris.Wrapf(err, "ошибка при чтении пригорода %q", name)
	}
	if len(dims) == 0 {
		return nil, nil
	}
	return &dims[0], nil
}

// PropertyTypes возвращает типы жилья по алфавиту
func (r *StarReader) PropertyTypes(ctx context.Context) ([]PropertyTypeDimension, error) {
	sb := sqlbuilder.MySQL.NewSelectBuilder()
	sb.Select("property_type_id", "property_type_name").
		From(r.table(load.PropertyTypeTable)).
		OrderBy("property_type_name")

	var dims []PropertyTypeDimension
	query, args := sb.Build()
	if err := sqlx.SelectContext(ctx, r.db, &dims, query, args...); err != nil {
		return nil, eris.Wrap(err, "ошибка при чтении dim_property_type")
	}
	return dims, nil
}

// Facts возвращает факты по натуральному ключу через все три измерения
func (r *StarReader) Facts(ctx context.Context, key FactKey) ([]RentFact, error) {
	sb := sqlbuilder.MySQL.NewSelectBuilder()
	sb.Select("f.time_id", "f.suburb_id", "f.property_type_id", "f.median_rent", "f.count_bonds").
		From(r.table(load.FactTable)+" f").
		Join(r.table(load.TimeTable)+" t", "t.time_id = f.time_id").
		Join(r.table(load.SuburbTable)+" s", "s.suburb_id = f.suburb_id").
		Join(r.table(load.PropertyTypeTable)+" p", "p.property_type_id = f.property_type_id").
		Where(
			sb.Equal("t.date_month", key.Month.Format("2006-01-02")),
			sb.Equal("s.suburb_name", key.SuburbName),
			sb.Equal("s.region", key.Region),
			sb.Equal("p.property_type_name", key.PropertyType),
		)

	var facts []RentFact
	query, args := sb.Build()
	if err := sqlx.SelectContext(ctx, r.db, &facts, query, args...); err != nil {
		return nil, eris.Wrap(err, "ошибка при чтении fact_rent")
	}
	return facts, nil
}
