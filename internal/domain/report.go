package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertDecision is the drop detector verdict for one check.
// When Drop is false the remaining fields are zero.
type AlertDecision struct {
	Drop     bool
	OldPrice decimal.Decimal
	NewPrice decimal.Decimal
	Currency string
	// DropPercentage is 100*(old-new)/old rounded to one decimal place,
	// for display only. Comparisons use the raw fraction.
	DropPercentage decimal.Decimal
}

// CheckOutcome classifies one product's pass through the check cycle.
type CheckOutcome string

const (
	OutcomeSkippedNoHistory    CheckOutcome = "skipped_no_history"
	OutcomeSnapshotFailed      CheckOutcome = "snapshot_failed"
	OutcomePersistFailed       CheckOutcome = "persist_failed"
	OutcomeSkippedInvariant    CheckOutcome = "skipped_invariant"
	OutcomeRecordedNoAlert     CheckOutcome = "recorded_no_alert"
	OutcomeRecordedAlertSent   CheckOutcome = "recorded_alert_sent"
	OutcomeRecordedAlertFailed CheckOutcome = "recorded_alert_failed"
)

// CheckResult is the outcome for a single tracked URL.
type CheckResult struct {
	URL     string       `json:"url"`
	Outcome CheckOutcome `json:"outcome"`
	Message string       `json:"message,omitempty"`
}

// CycleReport enumerates the outcome of one full check cycle.
type CycleReport struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []CheckResult `json:"results"`
}

// Count returns how many results carry the given outcome.
func (r CycleReport) Count(outcome CheckOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}
