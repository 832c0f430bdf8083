// internal/cache/cache.go

// Package cache stores finished query results keyed by the descriptor's
// canonical cache key. The cache is an optimization only: a miss and a
// backend failure look the same to callers.
package cache

import (
	"context"

	"sales-insights/internal/models"
)

type ResultCache interface {
	Get(ctx context.Context, key string) (*models.QueryResult, bool)
	Set(ctx context.Context, key string, result *models.QueryResult)
}
