package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is a single scrape observation for a product URL.
// It is immutable once created; the timestamp is assigned at observation time.
type ProductSnapshot struct {
	URL          string          `json:"url"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	MainImageURL string          `json:"main_image_url,omitempty"`
	IsAvailable  bool            `json:"is_available"`
	Timestamp    time.Time       `json:"timestamp"`
}

// PriceRecord is a persisted history entry. Records are append-only and
// removed only when their product is removed.
type PriceRecord struct {
	ID           string          `json:"id"`
	ProductURL   string          `json:"product_url"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	MainImageURL string          `json:"main_image_url,omitempty"`
	IsAvailable  bool            `json:"is_available"`
	Timestamp    time.Time       `json:"timestamp"`
}

// PriceHistory holds the records for one product URL, newest first.
type PriceHistory []PriceRecord

func (h PriceHistory) IsEmpty() bool {
	return len(h) == 0
}

// MostRecent returns the newest record. ok is false for an empty history.
func (h PriceHistory) MostRecent() (PriceRecord, bool) {
	if len(h) == 0 {
		return PriceRecord{}, false
	}
	return h[0], true
}

// Earliest returns the oldest known record, the baseline for drop detection.
// ok is false for an empty history.
func (h PriceHistory) Earliest() (PriceRecord, bool) {
	if len(h) == 0 {
		return PriceRecord{}, false
	}
	return h[len(h)-1], true
}

// ProductSummary is a product with its latest recorded state, as returned by
// the products listing.
type ProductSummary struct {
	URL          string           `json:"url"`
	LatestName   string           `json:"latest_name,omitempty"`
	LatestPrice  *decimal.Decimal `json:"latest_price,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	IsAvailable  bool             `json:"is_available"`
	MainImageURL string           `json:"main_image_url,omitempty"`
}
