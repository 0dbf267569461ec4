package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func recordAt(p string, available bool, ts time.Time) domain.PriceRecord {
	return domain.PriceRecord{
		ID:          "rec-" + p,
		ProductURL:  "https://shop.example/item",
		Name:        "Test Item",
		Price:       price(p),
		Currency:    "USD",
		IsAvailable: available,
		Timestamp:   ts,
	}
}

func snapshotAt(p string, available bool, ts time.Time) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		URL:          "https://shop.example/item",
		Name:         "Test Item",
		Price:        price(p),
		Currency:     "USD",
		MainImageURL: "https://shop.example/item.jpg",
		IsAvailable:  available,
		Timestamp:    ts,
	}
}

func TestReconcile_AvailableUsesSnapshotPrice(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history := domain.PriceHistory{recordAt("100", true, base)}

	rec, err := Reconcile(history, snapshotAt("94", true, base.Add(time.Hour)))
	require.NoError(t, err)
	assert.True(t, rec.Price.Equal(price("94")))
	assert.True(t, rec.IsAvailable)
	assert.Equal(t, "https://shop.example/item", rec.ProductURL)
	assert.NotEmpty(t, rec.ID)
}

func TestReconcile_UnavailableCarriesForwardMostRecent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Newest-first: index 0 carries the price to reuse.
	history := domain.PriceHistory{
		recordAt("50", false, base.Add(time.Hour)),
		recordAt("80", true, base),
	}

	rec, err := Reconcile(history, snapshotAt("0", false, base.Add(2*time.Hour)))
	require.NoError(t, err)
	assert.True(t, rec.Price.Equal(price("50")), "expected carry-forward from most recent record, got %s", rec.Price)
	assert.False(t, rec.IsAvailable)
}

func TestReconcile_EmptyHistoryAvailable(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec, err := Reconcile(nil, snapshotAt("120.50", true, ts))
	require.NoError(t, err)
	assert.True(t, rec.Price.Equal(price("120.50")))
	assert.True(t, rec.Timestamp.Equal(ts))
}

func TestReconcile_EmptyHistoryUnavailableStoresLiteralPrice(t *testing.T) {
	// No prior record to carry forward; the scraped price is stored as-is
	// and is_available=false marks it unverified.
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec, err := Reconcile(domain.PriceHistory{}, snapshotAt("0", false, ts))
	require.NoError(t, err)
	assert.True(t, rec.Price.Equal(price("0")))
	assert.False(t, rec.IsAvailable)
}

func TestReconcile_EqualTimestampBumpedForward(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history := domain.PriceHistory{recordAt("100", true, ts)}

	rec, err := Reconcile(history, snapshotAt("99", true, ts))
	require.NoError(t, err)
	assert.True(t, rec.Timestamp.After(ts), "colliding timestamp must be disambiguated")
	assert.Equal(t, time.Millisecond, rec.Timestamp.Sub(ts))
}

func TestReconcile_EarlierTimestampRejected(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history := domain.PriceHistory{recordAt("100", true, ts)}

	_, err := Reconcile(history, snapshotAt("99", true, ts.Add(-time.Minute)))
	require.ErrorIs(t, err, ErrNonMonotonicTimestamp)
}

func TestReconcile_UniqueIDs(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a, err := Reconcile(nil, snapshotAt("10", true, ts))
	require.NoError(t, err)
	b, err := Reconcile(nil, snapshotAt("10", true, ts))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestHistory_Accessors(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history := domain.PriceHistory{
		recordAt("90", true, base.Add(2*time.Hour)),
		recordAt("95", true, base.Add(time.Hour)),
		recordAt("100", true, base),
	}

	latest, ok := history.MostRecent()
	require.True(t, ok)
	assert.True(t, latest.Price.Equal(price("90")))

	earliest, ok := history.Earliest()
	require.True(t, ok)
	assert.True(t, earliest.Price.Equal(price("100")))

	_, ok = domain.PriceHistory{}.MostRecent()
	assert.False(t, ok)
	_, ok = domain.PriceHistory{}.Earliest()
	assert.False(t, ok)
}
