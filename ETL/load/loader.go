package load

import (
	"context"
)

// Loader интерфейс для загрузки данных в хранилище
type Loader interface {
	// LoadStaging дописывает CSV в stg_rent и возвращает общее число строк
	LoadStaging(ctx context.Context, path string) (int64, error)

	// LoadStar загружает измерения и факты из stg_rent
	LoadStar(ctx context.Context) ([]StatementResult, error)
}

// MySQLLoader реализация Loader для MySQL
type MySQLLoader struct {
	staging *StagingLoader
	star    *StarLoader
}

// NewMySQLLoader создает новый экземпляр MySQLLoader
func NewMySQLLoader(staging *StagingLoader, star *StarLoader) *MySQLLoader {
	return &MySQLLoader{
		staging: staging,
		star:    star,
	}
}

// LoadStaging загружает CSV в staging
func (l *MySQLLoader) LoadStaging(ctx context.Context, path string) (int64, error) {
	return l.staging.LoadFile(ctx, path)
}

// LoadStar создает таблицы звезды (если нужно) и загружает их
func (l *MySQLLoader) LoadStar(ctx context.Context) ([]StatementResult, error) {
	if err := l.star.EnsureStarSchema(ctx); err != nil {
		return nil, err
	}
	return l.star.Load(ctx)
}
