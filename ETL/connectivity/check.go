package connectivity

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
)

const (
	currentDatabaseQuery = "SELECT DATABASE()"
	versionQuery         = "SELECT VERSION()"
	pingQuery            = "SELECT 1 AS ok"
)

// Result результаты проверочных запросов
type Result struct {
	Database string
	Version  string
	Rows     [][]int64
}

// Check выполняет три запроса только на чтение в фиксированном порядке
func Check(ctx context.Context, db sqlx.QueryerContext) (Result, error) {
	var result Result

	var database *string
	if err := sqlx.GetContext(ctx, db, &database, currentDatabaseQuery); err != nil {
		return result, eris.Wrap(err, "ошибка при получении текущей базы данных")
	}
	if database != nil {
		result.Database = *database
	}

	if err := sqlx.GetContext(ctx, db, &result.Version, versionQuery); err != nil {
		return result, eris.Wrap(err, "ошибка при получении версии сервера")
	}

	rows, err := db.QueryxContext(ctx, pingQuery)
	if err != nil {
		return result, eris.Wrap(err, "ошибка при выполнении проверочного запроса")
	}
	defer rows.Close()

	for rows.Next() {
		var ok int64
		if err := rows.Scan(&ok); err != nil {
			return result, eris.Wrap(err, "ошибка при чтении результата проверочного запроса")
		}
		result.Rows = append(result.Rows, []int64{ok})
	}
	if err := rows.Err(); err != nil {
		return result, eris.Wrap(err, "ошибка при чтении результата проверочного запроса")
	}

	return result, nil
}

// Print выводит результаты по одному на строку
func (r Result) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", r.Database, r.Version, formatRows(r.Rows))
	return err
}

// formatRows форматирует строки как [[1]]
func formatRows(rows [][]int64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.FormatInt(v, 10))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
