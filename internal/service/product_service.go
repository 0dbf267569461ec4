package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/RutamBhagat/automated-price-tracking/internal/cache"
	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
	"github.com/RutamBhagat/automated-price-tracking/internal/pricing"
	"github.com/RutamBhagat/automated-price-tracking/internal/repository"
)

// SnapshotSource produces a product snapshot for a URL. Implemented by the
// scraper client; mocked in tests.
type SnapshotSource interface {
	Scrape(ctx context.Context, url string) (*domain.ProductSnapshot, error)
}

// ProductService owns the tracked-product CRUD surface. locks must be the
// same instance the price checker uses, so that Track and a check cycle for
// one URL never interleave.
type ProductService struct {
	repo    repository.ProductRepository
	cache   cache.RecordCache
	scraper SnapshotSource
	locks   *URLLocks
	sfg     singleflight.Group // Prevents cache stampede on latest-record reads
}

func NewProductService(repo repository.ProductRepository, c cache.RecordCache, scraper SnapshotSource, locks *URLLocks) *ProductService {
	return &ProductService{
		repo:    repo,
		cache:   c,
		scraper: scraper,
		locks:   locks,
	}
}

// Track starts tracking a URL: scrape it once, register the product, and
// append the first record. Tracking an already-tracked URL appends another
// record to its history. The first record never triggers an alert.
func (s *ProductService) Track(ctx context.Context, url string) (*domain.PriceRecord, error) {
	snapshot, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}

	lock := s.locks.forURL(url)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.AddProduct(ctx, url); err != nil {
		return nil, err
	}

	history, err := s.repo.HistoryFor(ctx, url)
	if err != nil {
		return nil, err
	}

	record, err := pricing.Reconcile(history, *snapshot)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendRecord(ctx, &record); err != nil {
		return nil, err
	}

	s.invalidate(url)
	return &record, nil
}

// Latest returns the newest record for a URL, served from cache when warm.
func (s *ProductService) Latest(ctx context.Context, url string) (*domain.PriceRecord, error) {
	v, err, _ := s.sfg.Do(url, func() (interface{}, error) {
		record, err := s.cache.Get(ctx, url)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		record, errGet := s.repo.LatestRecord(ctx, url)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), url, record); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return record, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.PriceRecord), nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.ProductSummary, error) {
	return s.repo.ListProducts(ctx)
}

// History returns a page of a product's history, newest first. limit <= 0
// means no limit. A URL with no records is not found.
func (s *ProductService) History(ctx context.Context, url string, limit, offset int) (domain.PriceHistory, error) {
	history, err := s.repo.HistoryFor(ctx, url)
	if err != nil {
		return nil, err
	}
	if history.IsEmpty() {
		return nil, repository.ErrProductNotFound
	}

	if offset >= len(history) {
		return domain.PriceHistory{}, nil
	}
	history = history[offset:]
	if limit > 0 && limit < len(history) {
		history = history[:limit]
	}
	return history, nil
}

// Remove stops tracking a URL; the whole price history goes with it.
func (s *ProductService) Remove(ctx context.Context, url string) error {
	if err := s.repo.RemoveProduct(ctx, url); err != nil {
		return err
	}
	s.invalidate(url)
	return nil
}

func (s *ProductService) invalidate(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	if err := s.cache.Delete(ctx, url); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
