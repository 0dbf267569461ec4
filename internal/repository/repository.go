package repository

import (
	"context"
	"errors"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateRecord = errors.New("price record with this timestamp already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// ProductRepository is the history store contract. Records are append-only;
// removing a product cascades to its whole history.
type ProductRepository interface {
	AddProduct(ctx context.Context, url string) error
	AppendRecord(ctx context.Context, record *domain.PriceRecord) error
	HistoryFor(ctx context.Context, url string) (domain.PriceHistory, error)
	LatestRecord(ctx context.Context, url string) (*domain.PriceRecord, error)
	AllTrackedURLs(ctx context.Context) ([]string, error)
	ListProducts(ctx context.Context) ([]domain.ProductSummary, error)
	RemoveProduct(ctx context.Context, url string) error
	RunMigrations(*Credentials) error
	Close() error
}
