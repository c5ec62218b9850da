package reconciler

import (
	"github.com/shopspring/decimal"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
	"github.com/vinimacar/creditflow-manager-sub000/internal/normalize"
)

var hundred = decimal.NewFromInt(100)

// Aggregate reduces a classified record collection into totals: counts per
// status, the reconciled percentage, commission sums on both sides, the
// accumulated absolute differences, and the signed commission gap
// (internal minus counterparty) that tells over- from under-payment.
func Aggregate(records []models.ReconciledContract) models.Totals {
	totals := models.Totals{Count: len(records)}

	for i := range records {
		r := &records[i]
		switch r.Status {
		case models.StatusOK:
			totals.ReconciledCount++
		case models.StatusDivergent:
			totals.DivergentCount++
		case models.StatusNotFoundInCounterparty, models.StatusNotFoundInternally:
			totals.NotFoundCount++
		case models.StatusDuplicate:
			totals.DuplicateCount++
		}

		totals.TotalInternalCommission = totals.TotalInternalCommission.Add(r.InternalCommissionValue)
		totals.TotalCounterpartyCommission = totals.TotalCounterpartyCommission.Add(r.CounterpartyCommissionValue)
		totals.TotalCommissionDifference = totals.TotalCommissionDifference.Add(r.CommissionDifference)
		totals.TotalBaseValueDifference = totals.TotalBaseValueDifference.Add(r.BaseValueDifference)
	}

	totals.CommissionGap = totals.TotalInternalCommission.Sub(totals.TotalCounterpartyCommission)

	// Guard the empty collection: zero records means zero percent, not a
	// division error.
	if totals.Count > 0 {
		totals.ReconciledPercent = decimal.NewFromInt(int64(totals.ReconciledCount)).
			Div(decimal.NewFromInt(int64(totals.Count))).
			Mul(hundred).
			Round(2)
	} else {
		totals.ReconciledPercent = decimal.Zero
	}

	return totals
}

// AggregateBy groups records by the given key function and aggregates each
// group separately. Records with an empty key land under "(none)".
func AggregateBy(records []models.ReconciledContract, key func(*models.ReconciledContract) string) map[string]models.Totals {
	groups := make(map[string][]models.ReconciledContract)
	for i := range records {
		k := normalize.Name(key(&records[i]))
		if k == "" {
			k = "(none)"
		}
		groups[k] = append(groups[k], records[i])
	}

	out := make(map[string]models.Totals, len(groups))
	for k, group := range groups {
		out[k] = Aggregate(group)
	}
	return out
}

// ByCounterparty aggregates totals per counterparty name
func ByCounterparty(records []models.ReconciledContract) map[string]models.Totals {
	return AggregateBy(records, func(r *models.ReconciledContract) string { return r.CounterpartyName })
}

// ByAgent aggregates totals per agent name
func ByAgent(records []models.ReconciledContract) map[string]models.Totals {
	return AggregateBy(records, func(r *models.ReconciledContract) string { return r.AgentName })
}

// ByProduct aggregates totals per product name
func ByProduct(records []models.ReconciledContract) map[string]models.Totals {
	return AggregateBy(records, func(r *models.ReconciledContract) string { return r.ProductName })
}
