// Package reporter renders a reconciliation report for its downstream
// consumers: a console summary for operators, JSON for programmatic use,
// CSV for spreadsheet import, and a formatted Excel workbook.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
)

// OutputFormat selects how the report is rendered
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatExcel   OutputFormat = "excel"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV, FormatExcel:
		return true
	default:
		return false
	}
}

// Config holds report rendering options
type Config struct {
	Format OutputFormat `json:"format"`

	// IncludeReconciled keeps OK records in the detail sections. Divergent,
	// not-found and duplicate records are always included.
	IncludeReconciled bool `json:"include_reconciled"`

	// IncludeBreakdowns renders the per-counterparty/agent/product sections.
	IncludeBreakdowns bool `json:"include_breakdowns"`

	// MaxReasons caps how many divergence reasons print per record on the
	// console. Zero means no cap.
	MaxReasons int `json:"max_reasons"`
}

// DefaultConfig returns console output with full detail
func DefaultConfig() *Config {
	return &Config{
		Format:            FormatConsole,
		IncludeReconciled: true,
		IncludeBreakdowns: true,
	}
}

// Reporter renders reconciliation reports
type Reporter struct {
	config *Config
}

// New creates a Reporter, falling back to DefaultConfig when nil
func New(config *Config) *Reporter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reporter{config: config}
}

// Write renders the report to w in the configured format.
func (r *Reporter) Write(w io.Writer, report *models.ReconciliationReport) error {
	switch r.config.Format {
	case FormatJSON:
		return r.writeJSON(w, report)
	case FormatCSV:
		return r.writeCSV(w, report)
	case FormatExcel:
		return r.WriteExcel(w, report)
	default:
		return r.writeConsole(w, report)
	}
}

func (r *Reporter) writeJSON(w io.Writer, report *models.ReconciliationReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

var csvHeader = []string{
	"contract_id", "client_name", "client_tax_id", "counterparty_name",
	"agent_name", "product_name", "status", "match_strategy",
	"internal_base_value", "internal_commission", "counterparty_base_value",
	"counterparty_commission", "base_value_difference", "commission_difference",
	"divergence_reasons",
}

func (r *Reporter) writeCSV(w io.Writer, report *models.ReconciliationReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for i := range report.Records {
		rec := &report.Records[i]
		if rec.Status == models.StatusOK && !r.config.IncludeReconciled {
			continue
		}
		row := []string{
			rec.ContractID,
			rec.ClientName,
			rec.ClientTaxID,
			rec.CounterpartyName,
			rec.AgentName,
			rec.ProductName,
			rec.Status.String(),
			rec.MatchStrategy.String(),
			rec.InternalBaseValue.StringFixed(2),
			rec.InternalCommissionValue.StringFixed(2),
			rec.CounterpartyBaseValue.StringFixed(2),
			rec.CounterpartyCommissionValue.StringFixed(2),
			rec.BaseValueDifference.StringFixed(2),
			rec.CommissionDifference.StringFixed(2),
			strings.Join(rec.DivergenceReasons, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (r *Reporter) writeConsole(w io.Writer, report *models.ReconciliationReport) error {
	t := report.Totals

	fmt.Fprintf(w, "Reconciliation Report %s\n", report.RunID)
	fmt.Fprintf(w, "Generated at: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "  Records:                  %d\n", t.Count)
	fmt.Fprintf(w, "  Reconciled:               %d (%s%%)\n", t.ReconciledCount, t.ReconciledPercent.StringFixed(2))
	fmt.Fprintf(w, "  Divergent:                %d\n", t.DivergentCount)
	fmt.Fprintf(w, "  Not found:                %d\n", t.NotFoundCount)
	fmt.Fprintf(w, "  Duplicates:               %d\n", t.DuplicateCount)
	fmt.Fprintf(w, "  Internal commission:      %s\n", t.TotalInternalCommission.StringFixed(2))
	fmt.Fprintf(w, "  Counterparty commission:  %s\n", t.TotalCounterpartyCommission.StringFixed(2))
	fmt.Fprintf(w, "  Commission gap:           %s\n", t.CommissionGap.StringFixed(2))
	fmt.Fprintf(w, "  Abs commission deltas:    %s\n", t.TotalCommissionDifference.StringFixed(2))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "RECORDS")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i := range report.Records {
		rec := &report.Records[i]
		if rec.Status == models.StatusOK && !r.config.IncludeReconciled {
			continue
		}
		id := rec.ContractID
		if id == "" {
			id = "(no contract id)"
		}
		fmt.Fprintf(w, "  %-24s %-26s %s\n", id, rec.Status, rec.CommissionDifference.StringFixed(2))
		reasons := rec.DivergenceReasons
		if r.config.MaxReasons > 0 && len(reasons) > r.config.MaxReasons {
			reasons = reasons[:r.config.MaxReasons]
		}
		for _, reason := range reasons {
			fmt.Fprintf(w, "      - %s\n", reason)
		}
	}
	fmt.Fprintln(w)

	if r.config.IncludeBreakdowns {
		writeBreakdown(w, "BY COUNTERPARTY", report.ByCounterparty)
		writeBreakdown(w, "BY AGENT", report.ByAgent)
		writeBreakdown(w, "BY PRODUCT", report.ByProduct)
	}

	return nil
}

// writeBreakdown prints one grouped totals section with keys sorted for
// stable output.
func writeBreakdown(w io.Writer, title string, groups map[string]models.Totals) {
	if len(groups) == 0 {
		return
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, k := range keys {
		t := groups[k]
		fmt.Fprintf(w, "  %-32s records=%-4d ok=%-4d divergent=%-4d gap=%s\n",
			k, t.Count, t.ReconciledCount, t.DivergentCount, t.CommissionGap.StringFixed(2))
	}
	fmt.Fprintln(w)
}
