package reconciler

import (
	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
)

// Anomalies holds the duplicate targets and orphan payments detected after a
// full matching pass.
type Anomalies struct {
	// Duplicates contains every counterparty payment selected by more than
	// one internal contract. Membership overrides a plain OK or DIVERGENT
	// classification for the contracts involved.
	Duplicates map[*models.CounterpartyPayment]bool

	// Orphans lists, in statement input order, every payment never selected
	// by any contract. Each becomes its own NOT_FOUND_INTERNALLY record.
	Orphans []*models.CounterpartyPayment
}

// DetectAnomalies scans the complete match results against the pool.
// Matching never consumes payments, so a payment claimed twice shows up here
// as a double-payment signal rather than disappearing into the first claim.
func DetectAnomalies(matches []models.MatchResult, pool []*models.CounterpartyPayment) *Anomalies {
	selections := make(map[*models.CounterpartyPayment]int, len(matches))
	for i := range matches {
		if matches[i].Matched() {
			selections[matches[i].Payment]++
		}
	}

	anomalies := &Anomalies{
		Duplicates: make(map[*models.CounterpartyPayment]bool),
	}

	for payment, count := range selections {
		if count > 1 {
			anomalies.Duplicates[payment] = true
		}
	}

	for _, payment := range pool {
		if selections[payment] == 0 {
			anomalies.Orphans = append(anomalies.Orphans, payment)
		}
	}

	return anomalies
}
