package parsers

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/vinimacar/creditflow-manager-sub000/pkg/errors"
	"github.com/vinimacar/creditflow-manager-sub000/pkg/logger"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
	"github.com/vinimacar/creditflow-manager-sub000/internal/normalize"
)

// StatementParser loads counterparty payment statements from CSV.
type StatementParser struct {
	config *StatementParserConfig
	log    logger.Logger
}

// NewStatementParser creates a parser with the given configuration
func NewStatementParser(config *StatementParserConfig) (*StatementParser, error) {
	if config == nil {
		config = DefaultStatementParserConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "statement_parser", config, err)
	}
	return &StatementParser{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("statement_parser"),
	}, nil
}

// ParseFile loads the payment statement at path.
func (p *StatementParser) ParseFile(path string) ([]*models.CounterpartyPayment, *ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, apperrors.FileError(apperrors.CodeFilePermission, path, err)
		}
		return nil, nil, apperrors.Wrap(err, apperrors.CategoryFile, apperrors.CodeFileNotFound, "failed to open statement file")
	}
	defer f.Close()

	payments, stats, err := p.Parse(f, path)
	if err != nil {
		return nil, stats, err
	}

	p.log.WithFields(logger.Fields{
		"file":           path,
		"rows_loaded":    stats.RowsLoaded,
		"rows_skipped":   stats.RowsSkipped,
		"cell_anomalies": stats.CellAnomalies,
	}).Info("Loaded counterparty statement")

	return payments, stats, nil
}

// Parse reads payment records from r, preserving statement line order.
func (p *StatementParser) Parse(r io.Reader, name string) ([]*models.CounterpartyPayment, *ParseStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	stats := &ParseStats{}
	var payments []*models.CounterpartyPayment
	var columns map[string]int

	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			stats.RowsRead++
			stats.RowsSkipped++
			p.log.WithError(err).WithField("line", line).Warn("Skipping malformed row")
			continue
		}

		if columns == nil && p.config.HasHeader {
			columns = p.resolveHeader(row)
			if _, ok := columns[p.config.BaseValueColumn]; !ok {
				return nil, stats, apperrors.ParseError(
					apperrors.CodeMissingColumn, name, line, p.config.BaseValueColumn, nil)
			}
			continue
		}
		if columns == nil {
			return nil, stats, apperrors.ParseError(
				apperrors.CodeInvalidFormat, name, line, "headerless statement files are not supported", nil)
		}

		stats.RowsRead++
		pay := p.buildPayment(row, columns, stats)
		if err := pay.Validate(); err != nil {
			p.log.WithError(err).WithField("line", line).Warn("Payment record fails validation")
		}
		payments = append(payments, pay)
		stats.RowsLoaded++
	}

	return payments, stats, nil
}

func (p *StatementParser) resolveHeader(row []string) map[string]int {
	columns := make(map[string]int, len(row))
	for i, raw := range row {
		columns[resolveColumn(raw, p.config.ColumnAliases)] = i
	}
	return columns
}

func (p *StatementParser) buildPayment(row []string, columns map[string]int, stats *ParseStats) *models.CounterpartyPayment {
	cell := func(column string) string {
		if i, ok := columns[column]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	pay := &models.CounterpartyPayment{
		ContractID:       normalize.ContractID(cell(p.config.ContractIDColn)),
		ClientName:       cell(p.config.ClientNameColumn),
		ClientTaxID:      normalize.TaxID(cell(p.config.ClientTaxIDColumn)),
		CounterpartyName: cell(p.config.CounterpartyColumn),
		AgentName:        cell(p.config.AgentNameColumn),
		AgentTaxID:       normalize.TaxID(cell(p.config.AgentTaxIDColumn)),
		ProductName:      cell(p.config.ProductColumn),
	}

	pay.BaseValue = moneyCell(cell(p.config.BaseValueColumn), stats)
	pay.CommissionValue = moneyCell(cell(p.config.CommissionColumn), stats)
	pay.PaymentDate = dateCell(cell(p.config.PaymentDateColumn), stats)

	return pay
}

// moneyCell normalizes a monetary cell, counting values that were present
// but unparsable.
func moneyCell(raw string, stats *ParseStats) decimal.Decimal {
	v := normalize.Money(raw)
	if v.IsZero() && strings.TrimSpace(raw) != "" && !isZeroLiteral(raw) {
		stats.CellAnomalies++
	}
	return v
}

// dateCell normalizes a date cell, counting values that were present but
// unparsable.
func dateCell(raw string, stats *ParseStats) time.Time {
	t := normalize.Date(raw)
	if t.IsZero() && strings.TrimSpace(raw) != "" {
		stats.CellAnomalies++
	}
	return t
}

func isZeroLiteral(raw string) bool {
	s := strings.TrimSpace(raw)
	switch s {
	case "0", "0.0", "0.00", "0,00", "0,0":
		return true
	}
	return false
}
