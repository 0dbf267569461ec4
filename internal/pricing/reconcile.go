package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

// ErrNonMonotonicTimestamp is returned when a snapshot's timestamp is earlier
// than the most recent stored record. Such a snapshot must not be appended,
// it would corrupt the history ordering.
var ErrNonMonotonicTimestamp = errors.New("snapshot timestamp precedes most recent record")

// Reconcile turns a fresh snapshot into the record to append to the given
// history. It is a pure function: appending is the caller's job.
//
// If the product is unavailable, the most recent stored price is carried
// forward instead of trusting the scrape-time price field; availability is
// still recorded as false. With no prior history the snapshot's literal price
// is stored as-is, with is_available=false marking it unverified.
//
// A timestamp equal to the most recent record's (two checks within one clock
// tick) is disambiguated by bumping the new record forward one millisecond.
func Reconcile(history domain.PriceHistory, snapshot domain.ProductSnapshot) (domain.PriceRecord, error) {
	timestamp := snapshot.Timestamp
	effectivePrice := snapshot.Price

	if latest, ok := history.MostRecent(); ok {
		if timestamp.Before(latest.Timestamp) {
			return domain.PriceRecord{}, fmt.Errorf("%w: snapshot %s, latest record %s",
				ErrNonMonotonicTimestamp, timestamp.Format(time.RFC3339Nano), latest.Timestamp.Format(time.RFC3339Nano))
		}
		if timestamp.Equal(latest.Timestamp) {
			timestamp = timestamp.Add(time.Millisecond)
		}
		if !snapshot.IsAvailable {
			effectivePrice = latest.Price
		}
	}

	return domain.PriceRecord{
		ID:           uuid.NewString(),
		ProductURL:   snapshot.URL,
		Name:         snapshot.Name,
		Price:        effectivePrice,
		Currency:     snapshot.Currency,
		MainImageURL: snapshot.MainImageURL,
		IsAvailable:  snapshot.IsAvailable,
		Timestamp:    timestamp,
	}, nil
}
