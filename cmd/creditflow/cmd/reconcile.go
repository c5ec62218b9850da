package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vinimacar/creditflow-manager-sub000/cmd/creditflow/config"
	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
	"github.com/vinimacar/creditflow-manager-sub000/internal/parsers"
	"github.com/vinimacar/creditflow-manager-sub000/internal/reconciler"
	"github.com/vinimacar/creditflow-manager-sub000/internal/reporter"
)

// Flags for the reconcile command
var (
	contractsFile  string
	statementFiles []string
	outputFormat   string
	outputFile     string
	delimiter      string

	valueTolerance      float64
	agentTolerance      float64
	divergenceTolerance float64
	rateBandMin         float64
	rateBandMax         float64

	includeReconciled bool
	includeBreakdowns bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile internal contracts with counterparty statements",
	Long: `Reconcile compares the internal contract ledger with counterparty payment
statements to classify each contract as reconciled, divergent, missing or
duplicated on the counterparty side.

This command requires:
- An internal contracts file (CSV format)
- One or more counterparty statement files (CSV format)

Examples:
  # Basic reconciliation
  creditflow reconcile --contracts-file contracts.csv --statement-files bank.csv

  # Multiple statements, JSON report to a file
  creditflow reconcile -c contracts.csv -b banco1.csv,banco2.csv \
    --output-format json --output-file report.json

  # Tighter tolerances
  creditflow reconcile -c contracts.csv -b bank.csv \
    --value-tolerance 0.5 --divergence-tolerance 0.01

  # Excel workbook for the back office
  creditflow reconcile -c contracts.csv -b bank.csv \
    --output-format excel --output-file report.xlsx`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&contractsFile, "contracts-file", "c", "", "path to internal contracts CSV file (required)")
	reconcileCmd.Flags().StringSliceVarP(&statementFiles, "statement-files", "b", []string{}, "comma-separated paths to counterparty statement CSV files (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv, excel")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reconcileCmd.Flags().StringVar(&delimiter, "delimiter", "", "CSV delimiter for both inputs (default: comma, use 'tab' for TSV)")

	// Tolerance flags. Negative sentinel keeps the engine default.
	reconcileCmd.Flags().Float64Var(&valueTolerance, "value-tolerance", -1, "base-value tolerance for tax ID and name matching")
	reconcileCmd.Flags().Float64Var(&agentTolerance, "agent-tolerance", -1, "base-value tolerance for agent tax ID matching")
	reconcileCmd.Flags().Float64Var(&divergenceTolerance, "divergence-tolerance", -1, "maximum value difference still reported as reconciled")
	reconcileCmd.Flags().Float64Var(&rateBandMin, "rate-band-min", -1, "minimum plausible commission rate, percent")
	reconcileCmd.Flags().Float64Var(&rateBandMax, "rate-band-max", -1, "maximum plausible commission rate, percent")

	// Report content flags
	reconcileCmd.Flags().BoolVar(&includeReconciled, "include-reconciled", true, "include reconciled records in the report detail")
	reconcileCmd.Flags().BoolVar(&includeBreakdowns, "breakdowns", true, "include per-counterparty, per-agent and per-product totals")

	reconcileCmd.MarkFlagRequired("contracts-file")
	reconcileCmd.MarkFlagRequired("statement-files")

	viper.BindPFlag("contracts-file", reconcileCmd.Flags().Lookup("contracts-file"))
	viper.BindPFlag("statement-files", reconcileCmd.Flags().Lookup("statement-files"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("delimiter", reconcileCmd.Flags().Lookup("delimiter"))
	viper.BindPFlag("value-tolerance", reconcileCmd.Flags().Lookup("value-tolerance"))
	viper.BindPFlag("agent-tolerance", reconcileCmd.Flags().Lookup("agent-tolerance"))
	viper.BindPFlag("divergence-tolerance", reconcileCmd.Flags().Lookup("divergence-tolerance"))
	viper.BindPFlag("rate-band-min", reconcileCmd.Flags().Lookup("rate-band-min"))
	viper.BindPFlag("rate-band-max", reconcileCmd.Flags().Lookup("rate-band-max"))
	viper.BindPFlag("include-reconciled", reconcileCmd.Flags().Lookup("include-reconciled"))
	viper.BindPFlag("breakdowns", reconcileCmd.Flags().Lookup("breakdowns"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so config files and env vars can override defaults.
	contractsFile = viper.GetString("contracts-file")
	statementFiles = viper.GetStringSlice("statement-files")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	delimiter = viper.GetString("delimiter")
	valueTolerance = viper.GetFloat64("value-tolerance")
	agentTolerance = viper.GetFloat64("agent-tolerance")
	divergenceTolerance = viper.GetFloat64("divergence-tolerance")
	rateBandMin = viper.GetFloat64("rate-band-min")
	rateBandMax = viper.GetFloat64("rate-band-max")
	includeReconciled = viper.GetBool("include-reconciled")
	includeBreakdowns = viper.GetBool("breakdowns")

	if contractsFile == "" {
		return fmt.Errorf("contracts-file is required")
	}
	if len(statementFiles) == 0 {
		return fmt.Errorf("at least one statement-file is required")
	}

	if err := validateFileExists(contractsFile, "contracts file"); err != nil {
		return err
	}
	for i, f := range statementFiles {
		if err := validateFileExists(f, fmt.Sprintf("statement file %d", i+1)); err != nil {
			return err
		}
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv, excel", outputFormat)
	}
	if outputFormat == string(reporter.FormatExcel) && outputFile == "" {
		return fmt.Errorf("excel output requires --output-file")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Contracts file: %s\n", contractsFile)
		fmt.Fprintf(os.Stderr, "Statement files: %s\n", strings.Join(statementFiles, ", "))
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	contracts, err := loadContracts()
	if err != nil {
		return err
	}
	payments, err := loadStatements()
	if err != nil {
		return err
	}

	engineConfig := config.CreateEngineConfig(config.EngineOverrides{
		ValueTolerance:      valueTolerance,
		AgentTolerance:      agentTolerance,
		DivergenceTolerance: divergenceTolerance,
		RateBandMin:         rateBandMin,
		RateBandMax:         rateBandMax,
		IncludeBreakdowns:   includeBreakdowns,
	})
	engine, err := reconciler.New(engineConfig)
	if err != nil {
		return err
	}

	report, err := engine.Reconcile(contracts, payments)
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(outputFormat, includeReconciled)
	if err != nil {
		return err
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if err := reporter.New(reportConfig).Write(output, report); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		t := report.Totals
		fmt.Fprintf(os.Stderr, "\nReconciliation completed.\n")
		fmt.Fprintf(os.Stderr, "Processed %d records: %d reconciled, %d divergent, %d not found, %d duplicates.\n",
			t.Count, t.ReconciledCount, t.DivergentCount, t.NotFoundCount, t.DuplicateCount)
	}

	return nil
}

func loadContracts() ([]*models.InternalContract, error) {
	parserConfig, err := config.CreateContractParserConfig(delimiter)
	if err != nil {
		return nil, err
	}
	parser, err := parsers.NewContractParser(parserConfig)
	if err != nil {
		return nil, err
	}

	contracts, stats, err := parser.ParseFile(contractsFile)
	if err != nil {
		return nil, err
	}
	reportParseStats(contractsFile, stats)
	return contracts, nil
}

func loadStatements() ([]*models.CounterpartyPayment, error) {
	parserConfig, err := config.CreateStatementParserConfig(delimiter)
	if err != nil {
		return nil, err
	}
	parser, err := parsers.NewStatementParser(parserConfig)
	if err != nil {
		return nil, err
	}

	var payments []*models.CounterpartyPayment
	for _, f := range statementFiles {
		batch, stats, err := parser.ParseFile(f)
		if err != nil {
			return nil, err
		}
		reportParseStats(f, stats)
		payments = append(payments, batch...)
	}
	return payments, nil
}

func reportParseStats(path string, stats *parsers.ParseStats) {
	if !viper.GetBool("verbose") || stats == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Loaded %s: %d rows read, %d loaded, %d skipped, %d cell anomalies\n",
		filepath.Base(path), stats.RowsRead, stats.RowsLoaded, stats.RowsSkipped, stats.CellAnomalies)
}
