package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RutamBhagat/automated-price-tracking/internal/cache"
	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
	"github.com/RutamBhagat/automated-price-tracking/internal/notifier"
	"github.com/RutamBhagat/automated-price-tracking/internal/pricing"
	"github.com/RutamBhagat/automated-price-tracking/internal/repository"
)

const cacheOpTimeout = time.Second

// CheckerConfig is the externally supplied alerting policy.
type CheckerConfig struct {
	// DropThreshold is the minimum fractional price decrease that triggers
	// an alert, e.g. 0.05 for 5%.
	DropThreshold decimal.Decimal
	// Recipient receives the alerts.
	Recipient string
}

// PriceChecker runs the check-and-alert cycle over all tracked products.
type PriceChecker struct {
	repo     repository.ProductRepository
	cache    cache.RecordCache
	scraper  SnapshotSource
	notifier notifier.Notifier
	cfg      CheckerConfig
	locks    *URLLocks
}

// NewPriceChecker builds the checker. locks must be shared with every other
// writer to the same histories (the product service).
func NewPriceChecker(
	repo repository.ProductRepository,
	c cache.RecordCache,
	scraper SnapshotSource,
	n notifier.Notifier,
	cfg CheckerConfig,
	locks *URLLocks,
) *PriceChecker {
	return &PriceChecker{
		repo:     repo,
		cache:    c,
		scraper:  scraper,
		notifier: n,
		cfg:      cfg,
		locks:    locks,
	}
}

// RunCheckCycle walks every tracked URL through one
// scrape → reconcile → persist → detect → dispatch pass. Products are
// independent: one product's failure never stops the loop, it only shows up
// in the report.
func (c *PriceChecker) RunCheckCycle(ctx context.Context) (domain.CycleReport, error) {
	report := domain.CycleReport{StartedAt: time.Now().UTC()}

	urls, err := c.repo.AllTrackedURLs(ctx)
	if err != nil {
		return report, fmt.Errorf("list tracked urls: %w", err)
	}

	for _, url := range urls {
		select {
		case <-ctx.Done():
			report.FinishedAt = time.Now().UTC()
			return report, ctx.Err()
		default:
		}

		result := c.checkProduct(ctx, url)
		if result.Outcome != domain.OutcomeRecordedNoAlert {
			log.Printf("check %s: %s %s", url, result.Outcome, result.Message)
		}
		report.Results = append(report.Results, result)
	}

	report.FinishedAt = time.Now().UTC()
	return report, nil
}

func (c *PriceChecker) checkProduct(ctx context.Context, url string) domain.CheckResult {
	// Concurrent cycles for the same URL are serialized; the history's
	// timestamp ordering depends on it.
	lock := c.locks.forURL(url)
	lock.Lock()
	defer lock.Unlock()

	history, err := c.repo.HistoryFor(ctx, url)
	if err != nil {
		return result(url, domain.OutcomePersistFailed, "read history: %v", err)
	}
	if history.IsEmpty() {
		return result(url, domain.OutcomeSkippedNoHistory, "no recorded prices yet")
	}

	snapshot, err := c.scraper.Scrape(ctx, url)
	if err != nil {
		return result(url, domain.OutcomeSnapshotFailed, "scrape: %v", err)
	}

	record, err := pricing.Reconcile(history, *snapshot)
	if err != nil {
		return result(url, domain.OutcomeSkippedInvariant, "reconcile: %v", err)
	}

	// Never detect or alert on a record that was not durably persisted.
	if err := c.repo.AppendRecord(ctx, &record); err != nil {
		return result(url, domain.OutcomePersistFailed, "append record: %v", err)
	}
	c.invalidate(url)

	// Baseline is the earliest price of the pre-update history.
	baseline, _ := history.Earliest()
	decision := pricing.Detect(baseline.Price, baseline.Currency, record.Price, record.IsAvailable, c.cfg.DropThreshold)
	if !decision.Drop {
		return result(url, domain.OutcomeRecordedNoAlert, "")
	}

	alert := notifier.PriceAlert{
		ProductName:    record.Name,
		OldPrice:       decision.OldPrice,
		NewPrice:       decision.NewPrice,
		Currency:       decision.Currency,
		DropPercentage: decision.DropPercentage,
		URL:            url,
		Recipient:      c.cfg.Recipient,
		MainImageURL:   record.MainImageURL,
	}
	// The record is already persisted; a failed dispatch only marks the
	// attempt, it is not retried and nothing is rolled back.
	if err := c.notifier.Notify(ctx, alert); err != nil {
		return result(url, domain.OutcomeRecordedAlertFailed, "notify: %v", err)
	}

	return result(url, domain.OutcomeRecordedAlertSent,
		"%s dropped %s%%", record.Name, decision.DropPercentage.StringFixed(1))
}

func (c *PriceChecker) invalidate(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	if err := c.cache.Delete(ctx, url); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func result(url string, outcome domain.CheckOutcome, format string, args ...any) domain.CheckResult {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return domain.CheckResult{URL: url, Outcome: outcome, Message: msg}
}
