package service

import (
	"context"
	"sync"

	"github.com/RutamBhagat/automated-price-tracking/internal/cache"
	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
	"github.com/RutamBhagat/automated-price-tracking/internal/notifier"
	"github.com/RutamBhagat/automated-price-tracking/internal/repository"
)

type mockRepository struct {
	m         sync.RWMutex
	urls      []string
	histories map[string]domain.PriceHistory
	appended  []domain.PriceRecord

	historyErr error
	appendErr  error
	listErr    error
	removeErr  error
}

func newMockRepository() *mockRepository {
	return &mockRepository{histories: make(map[string]domain.PriceHistory)}
}

func (m *mockRepository) addHistory(url string, history domain.PriceHistory) {
	m.m.Lock()
	defer m.m.Unlock()
	m.urls = append(m.urls, url)
	m.histories[url] = history
}

func (m *mockRepository) appendedRecords() []domain.PriceRecord {
	m.m.RLock()
	defer m.m.RUnlock()
	return append([]domain.PriceRecord(nil), m.appended...)
}

func (m *mockRepository) AddProduct(_ context.Context, url string) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, u := range m.urls {
		if u == url {
			return nil
		}
	}
	m.urls = append(m.urls, url)
	return nil
}

func (m *mockRepository) AppendRecord(_ context.Context, record *domain.PriceRecord) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, *record)
	m.histories[record.ProductURL] = append(domain.PriceHistory{*record}, m.histories[record.ProductURL]...)
	return nil
}

func (m *mockRepository) HistoryFor(_ context.Context, url string) (domain.PriceHistory, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.histories[url], nil
}

func (m *mockRepository) LatestRecord(_ context.Context, url string) (*domain.PriceRecord, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	history := m.histories[url]
	if len(history) == 0 {
		return nil, repository.ErrProductNotFound
	}
	record := history[0]
	return &record, nil
}

func (m *mockRepository) AllTrackedURLs(_ context.Context) ([]string, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]string(nil), m.urls...), nil
}

func (m *mockRepository) ListProducts(_ context.Context) ([]domain.ProductSummary, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var summaries []domain.ProductSummary
	for _, url := range m.urls {
		s := domain.ProductSummary{URL: url}
		if history := m.histories[url]; len(history) > 0 {
			latest := history[0]
			price := latest.Price
			s.LatestName = latest.Name
			s.LatestPrice = &price
			s.Currency = latest.Currency
			s.IsAvailable = latest.IsAvailable
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (m *mockRepository) RemoveProduct(_ context.Context, url string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	for i, u := range m.urls {
		if u == url {
			m.urls = append(m.urls[:i], m.urls[i+1:]...)
			delete(m.histories, url)
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *mockRepository) RunMigrations(*repository.Credentials) error { return nil }

func (m *mockRepository) Close() error { return nil }

type mockCache struct {
	m       sync.RWMutex
	records map[string]*domain.PriceRecord
	err     error
}

func newMockCache() *mockCache {
	return &mockCache{records: make(map[string]*domain.PriceRecord)}
}

func (m *mockCache) Get(_ context.Context, url string) (*domain.PriceRecord, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	record, ok := m.records[url]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return record, nil
}

func (m *mockCache) Set(_ context.Context, url string, record *domain.PriceRecord) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[url] = record
	return nil
}

func (m *mockCache) Delete(_ context.Context, url string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.records, url)
	return m.err
}

func (m *mockCache) get(url string) *domain.PriceRecord {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.records[url]
}

type mockScraper struct {
	m         sync.Mutex
	snapshots map[string]*domain.ProductSnapshot
	errs      map[string]error
	calls     []string
}

func newMockScraper() *mockScraper {
	return &mockScraper{
		snapshots: make(map[string]*domain.ProductSnapshot),
		errs:      make(map[string]error),
	}
}

func (m *mockScraper) Scrape(_ context.Context, url string) (*domain.ProductSnapshot, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, url)
	if err := m.errs[url]; err != nil {
		return nil, err
	}
	snapshot := m.snapshots[url]
	copied := *snapshot
	return &copied, nil
}

type mockNotifier struct {
	m      sync.Mutex
	alerts []notifier.PriceAlert
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, alert notifier.PriceAlert) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *mockNotifier) sent() []notifier.PriceAlert {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]notifier.PriceAlert(nil), m.alerts...)
}
