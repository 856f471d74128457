package models

import (
	"database/sql"
	"database/sql/driver"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// StagingRow представляет одну строку исходного CSV в таблице stg_rent
type StagingRow struct {
	DateMonth            Month      `csv:"date_month" db:"date_month"`
	SuburbName           NullString `csv:"suburb_name" db:"suburb_name"`
	Region               NullString `csv:"region" db:"region"`
	TerritorialAuthority NullString `csv:"territorial_authority" db:"territorial_authority"`
	PropertyType         NullString `csv:"property_type" db:"property_type"`
	MedianRent           Decimal    `csv:"median_rent" db:"median_rent"`
	CountBonds           NullInt    `csv:"count_bonds" db:"count_bonds"`
	Lat                  Decimal    `csv:"lat" db:"lat"`
	Lon                  Decimal    `csv:"lon" db:"lon"`
}

// StagingColumns порядок колонок stg_rent
var StagingColumns = []string{
	"date_month",
	"suburb_name",
	"region",
	"territorial_authority",
	"property_type",
	"median_rent",
	"count_bonds",
	"lat",
	"lon",
}

// Values возвращает значения строки в порядке StagingColumns
func (r StagingRow) Values() []interface{} {
	return []interface{}{
		r.DateMonth,
		r.SuburbName,
		r.Region,
		r.TerritorialAuthority,
		r.PropertyType,
		r.MedianRent,
		r.CountBonds,
		r.Lat,
		r.Lon,
	}
}

// Маркеры пропуска в числовых и датовых колонках
var naTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {}, "-nan": {},
	"1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {},
	"None": {}, "n/a": {}, "nan": {}, "null": {},
}

// isMissing пустое значение или маркер пропуска
func isMissing(s string) bool {
	if s == "" {
		return true
	}
	_, ok := naTokens[s]
	return ok
}

// Десятичная запись без экспоненты, бесконечностей и шестнадцатеричной формы
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// Форматы даты, которые встречаются в выгрузках
var monthLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006/01/02",
	"2006-01",
}

// Month дата без времени суток. Пустое значение - NULL
type Month struct {
	sql.NullTime
}

// NewMonth создает Month из даты, отбрасывая время суток
func NewMonth(year int, month time.Month, day int) Month {
	return Month{sql.NullTime{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}}
}

// UnmarshalText разбирает дату из CSV
func (m *Month) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if isMissing(s) {
		m.NullTime = sql.NullTime{}
		return nil
	}

	for _, layout := range monthLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		m.NullTime = sql.NullTime{
			Time:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Valid: true,
		}
		return nil
	}

	return eris.Errorf("не удалось разобрать дату %q", s)
}

// Value отдает дату в формате DATE
func (m Month) Value() (driver.Value, error) {
	if !m.Valid {
		return nil, nil
	}
	return m.Time.Format("2006-01-02"), nil
}

// NullString строка, пустое значение - NULL
type NullString struct {
	sql.NullString
}

// NewNullString создает непустую строку
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: true}}
}

// UnmarshalText сохраняет строку как есть, пустую превращает в NULL
func (n *NullString) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		n.NullString = sql.NullString{}
		return nil
	}
	n.NullString = sql.NullString{String: string(text), Valid: true}
	return nil
}

// Decimal десятичное число в текстовом виде (для DECIMAL колонок)
type Decimal struct {
	sql.NullString
}

// NewDecimal создает Decimal из текста без проверки
func NewDecimal(s string) Decimal {
	return Decimal{sql.NullString{String: s, Valid: true}}
}

// UnmarshalText проверяет, что значение записано как десятичное число.
// Пустое значение и маркеры пропуска (NaN, NA, ...) - NULL
func (d *Decimal) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if isMissing(s) {
		d.NullString = sql.NullString{}
		return nil
	}

	if !decimalPattern.MatchString(s) {
		return eris.Errorf("некорректное десятичное значение %q", s)
	}

	d.NullString = sql.NullString{String: s, Valid: true}
	return nil
}

// NullInt целое число, пустое значение - NULL
type NullInt struct {
	sql.NullInt64
}

// NewNullInt создает непустое целое
func NewNullInt(v int64) NullInt {
	return NullInt{sql.NullInt64{Int64: v, Valid: true}}
}

// UnmarshalText разбирает целое число
func (n *NullInt) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if isMissing(s) {
		n.NullInt64 = sql.NullInt64{}
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return eris.Wrapf(err, "некорректное целое значение %q", s)
	}

	n.NullInt64 = sql.NullInt64{Int64: v, Valid: true}
	return nil
}
