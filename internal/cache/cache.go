package cache

import (
	"context"
	"errors"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

// RecordCache caches the latest price record per product URL.
type RecordCache interface {
	Get(ctx context.Context, url string) (*domain.PriceRecord, error)
	Set(ctx context.Context, url string, record *domain.PriceRecord) error
	Delete(ctx context.Context, url string) error
}

var ErrCacheMiss = errors.New("cache miss")
