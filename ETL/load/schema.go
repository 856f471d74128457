package load

import (
	"github.com/huandu/go-sqlbuilder"
)

// Таблицы хранилища
const (
	StagingTable      = "stg_rent"
	TimeTable         = "dim_time"
	SuburbTable       = "dim_suburb"
	PropertyTypeTable = "dim_property_type"
	FactTable         = "fact_rent"
)

// AllTables таблицы в порядке загрузки
var AllTables = []string{StagingTable, TimeTable, SuburbTable, PropertyTypeTable, FactTable}

func qualified(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

// stagingTableDDL создает stg_rent с фиксированным набором колонок
func stagingTableDDL(schema string) string {
	ctb := sqlbuilder.MySQL.NewCreateTableBuilder()
	ctb.CreateTable(qualified(schema, StagingTable)).IfNotExists()
	ctb.Define("date_month", "DATE")
	ctb.Define("suburb_name", "VARCHAR(128)")
	ctb.Define("region", "VARCHAR(128)")
	ctb.Define("territorial_authority", "VARCHAR(128)")
	ctb.Define("property_type", "VARCHAR(64)")
	ctb.Define("median_rent", "DECIMAL(10,2)")
	ctb.Define("count_bonds", "INT")
	ctb.Define("lat", "DECIMAL(9,6)")
	ctb.Define("lon", "DECIMAL(9,6)")
	ctb.Option("ENGINE=InnoDB")
	return ctb.String()
}

// starSchemaDDL создает измерения и таблицу фактов.
// У fact_rent нет уникального ключа по натуральным ключам
func starSchemaDDL(schema string) []string {
	timeDim := sqlbuilder.MySQL.NewCreateTableBuilder()
	timeDim.CreateTable(qualified(schema, TimeTable)).IfNotExists()
	timeDim.Define("time_id", "INT", "NOT NULL", "AUTO_INCREMENT", "PRIMARY KEY")
	timeDim.Define("date_month", "DATE", "NOT NULL")
	timeDim.Define("year", "SMALLINT", "NOT NULL")
	timeDim.Define("quarter", "TINYINT", "NOT NULL")
	timeDim.Define("month", "TINYINT", "NOT NULL")
	timeDim.Define("UNIQUE KEY", "uq_dim_time_date_month (date_month)")
	timeDim.Option("ENGINE=InnoDB")

	suburbDim := sqlbuilder.MySQL.NewCreateTableBuilder()
	suburbDim.CreateTable(qualified(schema, SuburbTable)).IfNotExists()
	suburbDim.Define("suburb_id", "INT", "NOT NULL", "AUTO_INCREMENT", "PRIMARY KEY")
	suburbDim.Define("suburb_name", "VARCHAR(128)", "NOT NULL")
	suburbDim.Define("territorial_authority", "VARCHAR(128)")
	suburbDim.Define("region", "VARCHAR(128)")
	suburbDim.Define("suburb_code", "VARCHAR(32)")
	suburbDim.Define("lat", "DECIMAL(9,6)")
	suburbDim.Define("lon", "DECIMAL(9,6)")
	suburbDim.Define("UNIQUE KEY", "uq_dim_suburb_name (suburb_name)")
	suburbDim.Option("ENGINE=InnoDB")

	propertyDim := sqlbuilder.MySQL.NewCreateTableBuilder()
	propertyDim.CreateTable(qualified(schema, PropertyTypeTable)).IfNotExists()
	propertyDim.Define("property_type_id", "INT", "NOT NULL", "AUTO_INCREMENT", "PRIMARY KEY")
	propertyDim.Define("property_type_name", "VARCHAR(64)", "NOT NULL")
	propertyDim.Define("UNIQUE KEY", "uq_dim_property_type_name (property_type_name)")
	propertyDim.Option("ENGINE=InnoDB")

	fact := sqlbuilder.MySQL.NewCreateTableBuilder()
	fact.CreateTable(qualified(schema, FactTable)).IfNotExists()
	fact.Define("time_id", "INT", "NOT NULL")
	fact.Define("suburb_id", "INT", "NOT NULL")
	fact.Define("property_type_id", "INT", "NOT NULL")
	fact.Define("median_rent", "DECIMAL(10,2)")
	fact.Define("count_bonds", "INT")
	fact.Define("FOREIGN KEY", "fk_fact_rent_time (time_id)", "REFERENCES", qualified(schema, TimeTable), "(time_id)")
	fact.Define("FOREIGN KEY", "fk_fact_rent_suburb (suburb_id)", "REFERENCES", qualified(schema, SuburbTable), "(suburb_id)")
	fact.Define("FOREIGN KEY", "fk_fact_rent_property_type (property_type_id)", "REFERENCES", qualified(schema, PropertyTypeTable), "(property_type_id)")
	fact.Option("ENGINE=InnoDB")

	return []string{timeDim.String(), suburbDim.String(), propertyDim.String(), fact.String()}
}

// countQuery SELECT COUNT(*) по таблице
func countQuery(schema, table string) string {
	sb := sqlbuilder.MySQL.NewSelectBuilder()
	sb.Select("COUNT(*)").From(qualified(schema, table))
	return sb.String()
}
