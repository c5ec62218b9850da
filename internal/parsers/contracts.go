package parsers

import (
	"encoding/csv"
	"io"
	"os"

	apperrors "github.com/vinimacar/creditflow-manager-sub000/pkg/errors"
	"github.com/vinimacar/creditflow-manager-sub000/pkg/logger"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
	"github.com/vinimacar/creditflow-manager-sub000/internal/normalize"
)

// ContractParser loads internal contract ledgers from CSV.
type ContractParser struct {
	config *ContractParserConfig
	log    logger.Logger
}

// NewContractParser creates a parser with the given configuration
func NewContractParser(config *ContractParserConfig) (*ContractParser, error) {
	if config == nil {
		config = DefaultContractParserConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "contract_parser", config, err)
	}
	return &ContractParser{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("contract_parser"),
	}, nil
}

// ParseFile loads the contract ledger at path.
func (p *ContractParser) ParseFile(path string) ([]*models.InternalContract, *ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, apperrors.FileError(apperrors.CodeFilePermission, path, err)
		}
		return nil, nil, apperrors.Wrap(err, apperrors.CategoryFile, apperrors.CodeFileNotFound, "failed to open contract file")
	}
	defer f.Close()

	contracts, stats, err := p.Parse(f, path)
	if err != nil {
		return nil, stats, err
	}

	p.log.WithFields(logger.Fields{
		"file":           path,
		"rows_loaded":    stats.RowsLoaded,
		"rows_skipped":   stats.RowsSkipped,
		"cell_anomalies": stats.CellAnomalies,
	}).Info("Loaded contract ledger")

	return contracts, stats, nil
}

// Parse reads contract records from r. The name argument is used only for
// error reporting.
func (p *ContractParser) Parse(r io.Reader, name string) ([]*models.InternalContract, *ParseStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	stats := &ParseStats{}
	var contracts []*models.InternalContract
	var columns map[string]int

	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// A malformed row is dirty data, not a fatal condition.
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
				apperrors.CodeInvalidFormat, name, line, "headerless contract files are not supported", nil)
		}

		stats.RowsRead++
		c := p.buildContract(row, columns, stats)
		// Invalid records are kept, the warning is for the operator cleaning
		// up the source spreadsheet.
		if err := c.Validate(); err != nil {
			p.log.WithError(err).WithField("line", line).Warn("Contract record fails validation")
		}
		contracts = append(contracts, c)
		stats.RowsLoaded++
	}

	return contracts, stats, nil
}

func (p *ContractParser) resolveHeader(row []string) map[string]int {
	columns := make(map[string]int, len(row))
	for i, raw := range row {
		columns[resolveColumn(raw, p.config.ColumnAliases)] = i
	}
	return columns
}

// buildContract normalizes each cell leniently: blank or unparsable values
// become zero values and are counted as anomalies.
func (p *ContractParser) buildContract(row []string, columns map[string]int, stats *ParseStats) *models.InternalContract {
	cell := func(column string) string {
		if i, ok := columns[column]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	c := &models.InternalContract{
		ContractID:       normalize.ContractID(cell(p.config.ContractIDColn)),
		ClientName:       cell(p.config.ClientNameColumn),
		ClientTaxID:      normalize.TaxID(cell(p.config.ClientTaxIDColumn)),
		CounterpartyName: cell(p.config.CounterpartyColumn),
		AgentName:        cell(p.config.AgentNameColumn),
		AgentTaxID:       normalize.TaxID(cell(p.config.AgentTaxIDColumn)),
		ProductName:      cell(p.config.ProductColumn),
	}

	c.BaseValue = moneyCell(cell(p.config.BaseValueColumn), stats)
	c.CommissionValue = moneyCell(cell(p.config.CommissionColumn), stats)
	c.SaleDate = dateCell(cell(p.config.SaleDateColumn), stats)
	c.PaymentDate = dateCell(cell(p.config.PaymentDateColumn), stats)

	return c
}
