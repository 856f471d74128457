package load

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/LilVoxy/nz_rent_etl/ETL/models"
)

// CountRows возвращает количество строк в таблице
func CountRows(ctx context.Context, q sqlx.QueryerContext, schema, table string) (int64, error) {
	var count int64
	if err := sqlx.GetContext(ctx, q, &count, countQuery(schema, table)); err != nil {
		return 0, eris.Wrapf(err, "ошибка при подсчете строк в %s", qualified(schema, table))
	}
	return count, nil
}

// CountFacts возвращает количество строк в fact_rent
func CountFacts(ctx context.Context, q sqlx.QueryerContext, schema string) (int64, error) {
	return CountRows(ctx, q, schema, FactTable)
}

// TableCounts количество строк во всех таблицах хранилища
func TableCounts(ctx context.Context, q sqlx.QueryerContext, schema string) ([]models.TableCount, error) {
	counts := make([]models.TableCount, 0, len(AllTables))
	for _, table := range AllTables {
		n, err := CountRows(ctx, q, schema, table)
		if err != nil {
			return nil, err
		}
		counts = append(counts, models.TableCount{Table: table, Rows: n})
	}
	return counts, nil
}
