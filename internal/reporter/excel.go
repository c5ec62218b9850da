package reporter

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/vinimacar/creditflow-manager-sub000/pkg/errors"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
)

const (
	sheetRecords = "Records"
	sheetSummary = "Summary"
)

var excelHeader = []string{
	"Contract ID", "Client", "Client Tax ID", "Counterparty", "Agent",
	"Product", "Status", "Match Strategy", "Internal Base", "Internal Commission",
	"Counterparty Base", "Counterparty Commission", "Base Diff", "Commission Diff",
	"Reasons",
}

// WriteExcel renders the report as an .xlsx workbook with a record sheet and
// a summary sheet.
func (r *Reporter) WriteExcel(w io.Writer, report *models.ReconciliationReport) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetRecords)
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return apperrors.ReconciliationError(apperrors.CodeReportGeneration, "excel export", err)
	}

	if err := r.fillRecordSheet(f, report); err != nil {
		return apperrors.ReconciliationError(apperrors.CodeReportGeneration, "excel export", err)
	}
	if err := fillSummarySheet(f, report); err != nil {
		return apperrors.ReconciliationError(apperrors.CodeReportGeneration, "excel export", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return apperrors.ReconciliationError(apperrors.CodeReportGeneration, "excel export", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func (r *Reporter) fillRecordSheet(f *excelize.File, report *models.ReconciliationReport) error {
	for col, title := range excelHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetRecords, cell, title); err != nil {
			return err
		}
	}

	row := 2
	for i := range report.Records {
		rec := &report.Records[i]
		if rec.Status == models.StatusOK && !r.config.IncludeReconciled {
			continue
		}
		values := []interface{}{
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
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetRecords, cell, v); err != nil {
				return err
			}
		}
		row++
	}
	return nil
}

func fillSummarySheet(f *excelize.File, report *models.ReconciliationReport) error {
	t := report.Totals
	rows := [][2]interface{}{
		{"Run ID", report.RunID},
		{"Generated at", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Records", t.Count},
		{"Reconciled", t.ReconciledCount},
		{"Reconciled %", t.ReconciledPercent.StringFixed(2)},
		{"Divergent", t.DivergentCount},
		{"Not found", t.NotFoundCount},
		{"Duplicates", t.DuplicateCount},
		{"Internal commission", t.TotalInternalCommission.StringFixed(2)},
		{"Counterparty commission", t.TotalCounterpartyCommission.StringFixed(2)},
		{"Commission gap", t.CommissionGap.StringFixed(2)},
		{"Abs commission deltas", t.TotalCommissionDifference.StringFixed(2)},
		{"Abs base deltas", t.TotalBaseValueDifference.StringFixed(2)},
	}
	for i, pair := range rows {
		for col := 0; col < 2; col++ {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetSummary, cell, pair[col]); err != nil {
				return err
			}
		}
	}
	return nil
}
