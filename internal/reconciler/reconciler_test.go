package reconciler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
)

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// cleanContract returns a contract whose commission rate sits inside the
// plausible band (3.5% of base).
func cleanContract(id, clientName, clientTax string, base float64) *models.InternalContract {
	return &models.InternalContract{
		ContractID:       id,
		ClientName:       clientName,
		ClientTaxID:      clientTax,
		CounterpartyName: "Banco Alfa",
		AgentName:        "Carlos Pereira",
		ProductName:      "Consignado INSS",
		BaseValue:        money(base),
		CommissionValue:  money(base * 0.035),
	}
}

func cleanPayment(id, clientName, clientTax string, base float64) *models.CounterpartyPayment {
	return &models.CounterpartyPayment{
		ContractID:       id,
		ClientName:       clientName,
		ClientTaxID:      clientTax,
		CounterpartyName: "Banco Alfa",
		AgentName:        "Carlos Pereira",
		ProductName:      "Consignado INSS",
		BaseValue:        money(base),
		CommissionValue:  money(base * 0.035),
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := New(DefaultConfig())
	require.NoError(t, err)
	return engine
}

func recordByID(t *testing.T, report *models.ReconciliationReport, id string) *models.ReconciledContract {
	t.Helper()
	for i := range report.Records {
		if report.Records[i].ContractID == id {
			return &report.Records[i]
		}
	}
	t.Fatalf("record %s not found in report", id)
	return nil
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DivergenceTolerance = money(-0.01)

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestReconcileMatchedPairIsOK(t *testing.T) {
	engine := newTestEngine(t)

	report, err := engine.Reconcile(
		[]*models.InternalContract{cleanContract("CT-1", "Maria Souza", "11122233344", 10000)},
		[]*models.CounterpartyPayment{cleanPayment("CT-1", "Maria Souza", "11122233344", 10000)},
	)
	require.NoError(t, err)
	require.Len(t, report.Records, 1)

	record := &report.Records[0]
	assert.Equal(t, models.StatusOK, record.Status)
	assert.Equal(t, models.StrategyExactContract, record.MatchStrategy)
	assert.True(t, record.CommissionDifference.IsZero())
	assert.Empty(t, record.DivergenceReasons)
	assert.NotNil(t, record.RateAssessment)

	assert.Equal(t, 1, report.Totals.ReconciledCount)
	assert.True(t, report.Totals.ReconciledPercent.Equal(money(100)))
	assert.NotEmpty(t, report.RunID)
}

func TestReconcileCommissionDivergence(t *testing.T) {
	engine := newTestEngine(t)

	contract := cleanContract("CT-1", "Maria Souza", "11122233344", 10000)
	paid := cleanPayment("CT-1", "Maria Souza", "11122233344", 10000)
	paid.CommissionValue = money(300) // internal says 350

	report, err := engine.Reconcile(
		[]*models.InternalContract{contract},
		[]*models.CounterpartyPayment{paid},
	)
	require.NoError(t, err)

	record := &report.Records[0]
	assert.Equal(t, models.StatusDivergent, record.Status)
	assert.True(t, record.CommissionDifference.Equal(money(50)))
	assert.NotEmpty(t, record.DivergenceReasons)
	assert.Contains(t, record.DivergenceReasons[0], "commission divergence")
	assert.Equal(t, 1, report.Totals.DivergentCount)
}

func TestReconcileDivergenceToleranceBoundary(t *testing.T) {
	tests := []struct {
		name     string
		delta    float64
		expected models.ReconcileStatus
	}{
		{"difference below tolerance", 0.005, models.StatusOK},
		{"difference equals tolerance", 0.01, models.StatusOK},
		{"difference above tolerance", 0.02, models.StatusDivergent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t)

			contract := cleanContract("CT-1", "Maria Souza", "11122233344", 10000)
			paid := cleanPayment("CT-1", "Maria Souza", "11122233344", 10000)
			paid.CommissionValue = contract.CommissionValue.Add(money(tt.delta))

			report, err := engine.Reconcile(
				[]*models.InternalContract{contract},
				[]*models.CounterpartyPayment{paid},
			)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, report.Records[0].Status)
		})
	}
}

func TestReconcileNotFoundInCounterparty(t *testing.T) {
	engine := newTestEngine(t)

	contract := cleanContract("CT-1", "Maria Souza", "11122233344", 10000)

	report, err := engine.Reconcile(
		[]*models.InternalContract{contract},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, report.Records, 1)

	record := &report.Records[0]
	assert.Equal(t, models.StatusNotFoundInCounterparty, record.Status)
	assert.Equal(t, models.StrategyNone, record.MatchStrategy)
	// The absent side is zero, so the differences are the contract's own values.
	assert.True(t, record.CommissionDifference.Equal(contract.CommissionValue))
	assert.True(t, record.BaseValueDifference.Equal(contract.BaseValue))
	assert.Equal(t, 1, report.Totals.NotFoundCount)
}

func TestReconcileOrphanPayment(t *testing.T) {
	engine := newTestEngine(t)

	orphan := cleanPayment("CT-999", "Pedro Lima", "99988877766", 5000)

	report, err := engine.Reconcile(nil, []*models.CounterpartyPayment{orphan})
	require.NoError(t, err)
	require.Len(t, report.Records, 1)

	record := &report.Records[0]
	assert.Equal(t, models.StatusNotFoundInternally, record.Status)
	assert.Equal(t, "CT-999", record.ContractID)
	assert.True(t, record.CounterpartyCommissionValue.Equal(orphan.CommissionValue))
	assert.True(t, record.InternalCommissionValue.IsZero())
	assert.Equal(t, 1, report.Totals.NotFoundCount)
}

func TestReconcileDuplicatePayment(t *testing.T) {
	engine := newTestEngine(t)

	// Two internal contracts carrying the same contract ID both claim the
	// single statement line.
	contracts := []*models.InternalContract{
		cleanContract("CT-7", "Maria Souza", "11122233344", 10000),
		cleanContract("CT-7", "Maria Souza", "11122233344", 10000),
	}
	payments := []*models.CounterpartyPayment{
		cleanPayment("CT-7", "Maria Souza", "11122233344", 10000),
	}

	report, err := engine.Reconcile(contracts, payments)
	require.NoError(t, err)
	require.Len(t, report.Records, 2)

	for i := range report.Records {
		assert.Equal(t, models.StatusDuplicate, report.Records[i].Status,
			"every contract claiming the payment is flagged, record %d", i)
		assert.Contains(t, report.Records[i].DivergenceReasons[0], "more than one internal contract")
	}
	assert.Equal(t, 2, report.Totals.DuplicateCount)
	assert.Equal(t, 0, report.Totals.ReconciledCount)
}

func TestReconcileCompleteness(t *testing.T) {
	engine := newTestEngine(t)

	contracts := []*models.InternalContract{
		cleanContract("CT-1", "Maria Souza", "11122233344", 10000),
		cleanContract("CT-2", "Pedro Lima", "22233344455", 8000),
		cleanContract("CT-3", "Ana Ferreira", "33344455566", 6000), // no payment
	}
	payments := []*models.CounterpartyPayment{
		cleanPayment("CT-1", "Maria Souza", "11122233344", 10000),
		cleanPayment("CT-2", "Pedro Lima", "22233344455", 8000),
		cleanPayment("CT-900", "Unknown Client", "77788899900", 3000), // orphan
	}

	report, err := engine.Reconcile(contracts, payments)
	require.NoError(t, err)

	// Every contract yields exactly one record, plus one per orphan payment.
	assert.Len(t, report.Records, 4)
	assert.Equal(t, 4, report.Totals.Count)
	assert.Equal(t, 2, report.Totals.ReconciledCount)
	assert.Equal(t, 2, report.Totals.NotFoundCount)

	assert.Equal(t, models.StatusNotFoundInCounterparty, recordByID(t, report, "CT-3").Status)
	assert.Equal(t, models.StatusNotFoundInternally, recordByID(t, report, "CT-900").Status)
}

func TestReconcileEmptyInputs(t *testing.T) {
	engine := newTestEngine(t)

	report, err := engine.Reconcile(nil, nil)
	require.NoError(t, err)

	assert.Empty(t, report.Records)
	assert.Equal(t, 0, report.Totals.Count)
	assert.True(t, report.Totals.ReconciledPercent.IsZero())
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	engine := newTestEngine(t)

	contract := cleanContract("ct-1 ", "Maria Souza", "111.222.333-44", 10000)
	paid := cleanPayment("CT-1", "Maria Souza", "11122233344", 10000)

	_, err := engine.Reconcile(
		[]*models.InternalContract{contract},
		[]*models.CounterpartyPayment{paid},
	)
	require.NoError(t, err)

	assert.Equal(t, "ct-1 ", contract.ContractID, "caller's contract must stay untouched")
	assert.Equal(t, "111.222.333-44", contract.ClientTaxID)
}

func TestReconcileDeterministic(t *testing.T) {
	contracts := []*models.InternalContract{
		cleanContract("CT-1", "Maria Souza", "11122233344", 10000),
		cleanContract("", "Maria Souza", "11122233344", 10000),
	}
	payments := []*models.CounterpartyPayment{
		cleanPayment("CT-1", "Maria Souza", "11122233344", 10000),
		cleanPayment("", "Maria Souza", "11122233344", 10000),
	}

	first, err := newTestEngine(t).Reconcile(contracts, payments)
	require.NoError(t, err)
	second, err := newTestEngine(t).Reconcile(contracts, payments)
	require.NoError(t, err)

	require.Len(t, second.Records, len(first.Records))
	for i := range first.Records {
		assert.Equal(t, first.Records[i].Status, second.Records[i].Status)
		assert.Equal(t, first.Records[i].MatchStrategy, second.Records[i].MatchStrategy)
	}
}

func TestReconcileRateFlagsForceDivergent(t *testing.T) {
	engine := newTestEngine(t)

	// Equal values on both sides but a 25% commission rate, far outside the
	// plausible band.
	contract := cleanContract("CT-1", "Maria Souza", "11122233344", 10000)
	contract.CommissionValue = money(2500)
	paid := cleanPayment("CT-1", "Maria Souza", "11122233344", 10000)
	paid.CommissionValue = money(2500)

	report, err := engine.Reconcile(
		[]*models.InternalContract{contract},
		[]*models.CounterpartyPayment{paid},
	)
	require.NoError(t, err)

	record := &report.Records[0]
	assert.Equal(t, models.StatusDivergent, record.Status)
	require.NotNil(t, record.RateAssessment)
	assert.True(t, record.RateAssessment.RateOutOfBand)
	assert.NotEmpty(t, record.DivergenceReasons)
}

func TestReconcileRateAtBandMinimumDivergent(t *testing.T) {
	engine := newTestEngine(t)

	// Both sides agree on 50 paid over a 10000 base, exactly the 0.5% lower
	// band edge. The edge is exclusive, so the rate check flags it and the
	// record diverges even though the amounts match to the cent.
	contract := cleanContract("CT-1", "Maria Souza", "11122233344", 10000)
	contract.CommissionValue = money(50)
	paid := cleanPayment("CT-1", "Maria Souza", "11122233344", 10000)
	paid.CommissionValue = money(50)

	report, err := engine.Reconcile(
		[]*models.InternalContract{contract},
		[]*models.CounterpartyPayment{paid},
	)
	require.NoError(t, err)
	require.Len(t, report.Records, 1)

	record := &report.Records[0]
	require.NotNil(t, record.RateAssessment)
	assert.True(t, record.RateAssessment.RateOutOfBand)
	assert.Equal(t, models.StatusDivergent, record.Status)
}

func TestReconcileBreakdowns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeBreakdowns = true
	engine, err := New(cfg)
	require.NoError(t, err)

	contract := cleanContract("CT-1", "Maria Souza", "11122233344", 10000)
	paid := cleanPayment("CT-1", "Maria Souza", "11122233344", 10000)

	report, err := engine.Reconcile(
		[]*models.InternalContract{contract},
		[]*models.CounterpartyPayment{paid},
	)
	require.NoError(t, err)

	require.Contains(t, report.ByCounterparty, "BANCO ALFA")
	assert.Equal(t, 1, report.ByCounterparty["BANCO ALFA"].ReconciledCount)
	require.Contains(t, report.ByAgent, "CARLOS PEREIRA")
	require.Contains(t, report.ByProduct, "CONSIGNADO INSS")

	cfg = DefaultConfig()
	cfg.IncludeBreakdowns = false
	engine, err = New(cfg)
	require.NoError(t, err)

	report, err = engine.Reconcile(
		[]*models.InternalContract{contract},
		[]*models.CounterpartyPayment{paid},
	)
	require.NoError(t, err)
	assert.Nil(t, report.ByCounterparty)
}
