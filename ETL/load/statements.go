package load

// StatementKind тип шага загрузки звезды
type StatementKind int

const (
	// KindUseSchema выбор целевой схемы
	KindUseSchema StatementKind = iota
	// KindUpsertDimension вставка/обновление измерения
	KindUpsertDimension
	// KindInsertFact вставка фактов
	KindInsertFact
)

func (k StatementKind) String() string {
	switch k {
	case KindUseSchema:
		return "use schema"
	case KindUpsertDimension:
		return "upsert dimension"
	case KindInsertFact:
		return "insert fact"
	default:
		return "unknown"
	}
}

// Statement один шаг загрузки звезды.
// Шаги выполняются по порядку в одной транзакции
type Statement struct {
	Kind  StatementKind
	Table string
	SQL   string
}

func (s Statement) String() string {
	if s.Table == "" {
		return s.Kind.String()
	}
	return s.Kind.String() + " " + s.Table
}

const upsertTimeDimensionSQL = `
INSERT INTO dim_time (date_month, year, quarter, month)
SELECT DISTINCT date_month, YEAR(date_month), QUARTER(date_month), MONTH(date_month)
FROM stg_rent WHERE date_month IS NOT NULL
ON DUPLICATE KEY UPDATE date_month = VALUES(date_month)`

// Пустые строки и нулевые координаты превращаются в NULL
const upsertSuburbDimensionSQL = `
INSERT INTO dim_suburb (suburb_name, territorial_authority, region, suburb_code, lat, lon)
SELECT DISTINCT TRIM(suburb_name), NULLIF(TRIM(territorial_authority), ''), NULLIF(TRIM(region), ''), NULL, NULLIF(lat, 0.0), NULLIF(lon, 0.0)
FROM stg_rent WHERE suburb_name IS NOT NULL
ON DUPLICATE KEY UPDATE region = VALUES(region), territorial_authority = VALUES(territorial_authority)`

const upsertPropertyTypeDimensionSQL = `
INSERT INTO dim_property_type (property_type_name)
SELECT DISTINCT TRIM(property_type) FROM stg_rent WHERE property_type IS NOT NULL
ON DUPLICATE KEY UPDATE property_type_name = VALUES(property_type_name)`

// Inner join: строки staging без пары в каком-либо измерении отбрасываются
const insertRentFactSQL = `
INSERT INTO fact_rent (time_id, suburb_id, property_type_id, median_rent, count_bonds)
SELECT t.time_id, s.suburb_id, p.property_type_id, r.median_rent, r.count_bonds
FROM stg_rent r
JOIN dim_time t ON t.date_month = r.date_month
JOIN dim_suburb s ON s.suburb_name = r.suburb_name AND (s.region <=> r.region)
JOIN dim_property_type p ON p.property_type_name = r.property_type`

// StarStatements возвращает фиксированную последовательность шагов загрузки
// измерений и фактов для указанной схемы
func StarStatements(schema string) []Statement {
	return []Statement{
		{Kind: KindUseSchema, SQL: "USE `" + schema + "`"},
		{Kind: KindUpsertDimension, Table: "dim_time", SQL: upsertTimeDimensionSQL},
		{Kind: KindUpsertDimension, Table: "dim_suburb", SQL: upsertSuburbDimensionSQL},
		{Kind: KindUpsertDimension, Table: "dim_property_type", SQL: upsertPropertyTypeDimensionSQL},
		{Kind: KindInsertFact, Table: "fact_rent", SQL: insertRentFactSQL},
	}
}
