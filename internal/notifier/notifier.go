package notifier

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceAlert carries everything a delivery channel needs to tell the
// recipient about a qualifying price drop.
type PriceAlert struct {
	ProductName    string          `json:"product_name"`
	OldPrice       decimal.Decimal `json:"old_price"`
	NewPrice       decimal.Decimal `json:"new_price"`
	Currency       string          `json:"currency"`
	DropPercentage decimal.Decimal `json:"drop_percentage"`
	URL            string          `json:"url"`
	Recipient      string          `json:"recipient"`
	MainImageURL   string          `json:"main_image_url,omitempty"`
}

// Notifier delivers a price alert. Delivery is at-most-once per qualifying
// check; a failed attempt is reported, not retried.
type Notifier interface {
	Notify(ctx context.Context, alert PriceAlert) error
}
