package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
)

func record(status models.ReconcileStatus, counterparty string, internalCommission, paidCommission float64) models.ReconciledContract {
	return models.ReconciledContract{
		Status:                      status,
		CounterpartyName:            counterparty,
		InternalCommissionValue:     money(internalCommission),
		CounterpartyCommissionValue: money(paidCommission),
		CommissionDifference:        money(internalCommission - paidCommission).Abs(),
	}
}

func TestAggregate(t *testing.T) {
	records := []models.ReconciledContract{
		record(models.StatusOK, "Banco Alfa", 350, 350),
		record(models.StatusOK, "Banco Alfa", 200, 200),
		record(models.StatusDivergent, "Banco Beta", 300, 250),
		record(models.StatusNotFoundInCounterparty, "Banco Beta", 100, 0),
		record(models.StatusNotFoundInternally, "Banco Beta", 0, 80),
		record(models.StatusDuplicate, "Banco Alfa", 150, 150),
	}

	totals := Aggregate(records)

	assert.Equal(t, 6, totals.Count)
	assert.Equal(t, 2, totals.ReconciledCount)
	assert.Equal(t, 1, totals.DivergentCount)
	assert.Equal(t, 2, totals.NotFoundCount, "both not-found statuses share the counter")
	assert.Equal(t, 1, totals.DuplicateCount)

	assert.True(t, totals.ReconciledPercent.Equal(money(33.33)), "got %s", totals.ReconciledPercent)
	assert.True(t, totals.TotalInternalCommission.Equal(money(1100)))
	assert.True(t, totals.TotalCounterpartyCommission.Equal(money(1030)))
	assert.True(t, totals.CommissionGap.Equal(money(70)), "gap keeps its sign")
	assert.True(t, totals.TotalCommissionDifference.Equal(money(230)), "differences accumulate as absolutes")
}

func TestAggregateEmpty(t *testing.T) {
	totals := Aggregate(nil)

	assert.Equal(t, 0, totals.Count)
	assert.True(t, totals.ReconciledPercent.IsZero())
	assert.True(t, totals.CommissionGap.IsZero())
}

func TestAggregateByCounterparty(t *testing.T) {
	records := []models.ReconciledContract{
		record(models.StatusOK, "Banco Alfa", 350, 350),
		record(models.StatusDivergent, "banco alfa", 300, 250),
		record(models.StatusOK, "Banco Beta", 200, 200),
		record(models.StatusOK, "", 100, 100),
	}

	groups := ByCounterparty(records)

	assert.Len(t, groups, 3)
	assert.Equal(t, 2, groups["BANCO ALFA"].Count, "keys are normalized, so casing variants merge")
	assert.Equal(t, 1, groups["BANCO ALFA"].DivergentCount)
	assert.Equal(t, 1, groups["BANCO BETA"].Count)
	assert.Equal(t, 1, groups["(none)"].Count, "blank keys land under (none)")
}
