package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
)

func sampleReport() *models.ReconciliationReport {
	money := decimal.NewFromFloat

	records := []models.ReconciledContract{
		{
			ContractID:                  "CT-1",
			ClientName:                  "Maria Souza",
			CounterpartyName:            "Banco Alfa",
			Status:                      models.StatusOK,
			MatchStrategy:               models.StrategyExactContract,
			InternalCommissionValue:     money(350),
			CounterpartyCommissionValue: money(350),
		},
		{
			ContractID:                  "CT-2",
			ClientName:                  "Pedro Lima",
			CounterpartyName:            "Banco Beta",
			Status:                      models.StatusDivergent,
			MatchStrategy:               models.StrategyClientTaxIDValue,
			InternalCommissionValue:     money(300),
			CounterpartyCommissionValue: money(250),
			CommissionDifference:        money(50),
			DivergenceReasons:           []string{"commission divergence: 50.00"},
		},
	}

	return &models.ReconciliationReport{
		RunID:       "run-test-1",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Records:     records,
		Totals: models.Totals{
			Count:             2,
			ReconciledCount:   1,
			DivergentCount:    1,
			ReconciledPercent: money(50),
		},
		ByCounterparty: map[string]models.Totals{
			"BANCO ALFA": {Count: 1, ReconciledCount: 1},
			"BANCO BETA": {Count: 1, DivergentCount: 1},
		},
	}
}

func TestOutputFormatIsValid(t *testing.T) {
	for _, f := range []OutputFormat{FormatConsole, FormatJSON, FormatCSV, FormatExcel} {
		assert.True(t, f.IsValid(), "%s should be valid", f)
	}
	assert.False(t, OutputFormat("xml").IsValid())
	assert.False(t, OutputFormat("").IsValid())
}

func TestWriteConsole(t *testing.T) {
	var buf bytes.Buffer
	r := New(DefaultConfig())

	require.NoError(t, r.Write(&buf, sampleReport()))
	out := buf.String()

	for _, fragment := range []string{
		"Reconciliation Report run-test-1",
		"SUMMARY",
		"Reconciled:",
		"(50.00%)",
		"RECORDS",
		"CT-2",
		"commission divergence: 50.00",
		"BY COUNTERPARTY",
		"BANCO ALFA",
	} {
		assert.Contains(t, out, fragment)
	}
}

func TestWriteConsoleFiltersReconciled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeReconciled = false

	var buf bytes.Buffer
	require.NoError(t, New(cfg).Write(&buf, sampleReport()))
	out := buf.String()

	assert.NotContains(t, out, "CT-1", "reconciled record should be filtered")
	assert.Contains(t, out, "CT-2", "divergent record always shows")
}

func TestWriteJSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatJSON

	var buf bytes.Buffer
	require.NoError(t, New(cfg).Write(&buf, sampleReport()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "run-test-1", decoded["run_id"])
	records, ok := decoded["records"].([]interface{})
	require.True(t, ok)
	assert.Len(t, records, 2)

	totals, ok := decoded["totals"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "50.00", totals["reconciled_percent"], "monetary fields marshal as fixed strings")
}

func TestWriteCSV(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatCSV

	var buf bytes.Buffer
	require.NoError(t, New(cfg).Write(&buf, sampleReport()))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two records")

	assert.Equal(t, "contract_id", rows[0][0])
	assert.Equal(t, "CT-1", rows[1][0])
	assert.Equal(t, "OK", rows[1][6])
	assert.Equal(t, "DIVERGENT", rows[2][6])
	assert.Equal(t, "50.00", rows[2][13])
}

func TestWriteExcel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatExcel

	var buf bytes.Buffer
	require.NoError(t, New(cfg).Write(&buf, sampleReport()))

	// An xlsx file is a zip archive; checking the magic bytes is enough to
	// prove a workbook was produced.
	require.Greater(t, buf.Len(), 4)
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}

func TestNewNilConfigFallsBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(nil).Write(&buf, sampleReport()))
	assert.Contains(t, buf.String(), "SUMMARY")
}
