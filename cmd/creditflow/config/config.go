// Package config translates CLI flags into the configuration structs the
// parsers, engine and reporter consume.
package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vinimacar/creditflow-manager-sub000/internal/parsers"
	"github.com/vinimacar/creditflow-manager-sub000/internal/reconciler"
	"github.com/vinimacar/creditflow-manager-sub000/internal/reporter"
)

// CreateContractParserConfig builds the contract parser configuration,
// applying the delimiter override when one was given.
func CreateContractParserConfig(delimiter string) (*parsers.ContractParserConfig, error) {
	cfg := parsers.DefaultContractParserConfig()
	if delimiter != "" {
		d, err := parseDelimiter(delimiter)
		if err != nil {
			return nil, err
		}
		cfg.Delimiter = d
	}
	return cfg, cfg.Validate()
}

// CreateStatementParserConfig builds the statement parser configuration.
func CreateStatementParserConfig(delimiter string) (*parsers.StatementParserConfig, error) {
	cfg := parsers.DefaultStatementParserConfig()
	if delimiter != "" {
		d, err := parseDelimiter(delimiter)
		if err != nil {
			return nil, err
		}
		cfg.Delimiter = d
	}
	return cfg, cfg.Validate()
}

// EngineOverrides carries the tolerance flags the reconcile command exposes.
// Negative values mean "flag not set, keep the default".
type EngineOverrides struct {
	ValueTolerance      float64
	AgentTolerance      float64
	DivergenceTolerance float64
	RateBandMin         float64
	RateBandMax         float64
	IncludeBreakdowns   bool
}

// CreateEngineConfig builds the engine configuration from the defaults plus
// any CLI overrides.
func CreateEngineConfig(o EngineOverrides) *reconciler.Config {
	cfg := reconciler.DefaultConfig()

	if o.ValueTolerance >= 0 {
		cfg.Matcher.ValueMatchTolerance = decimal.NewFromFloat(o.ValueTolerance)
	}
	if o.AgentTolerance >= 0 {
		cfg.Matcher.AgentMatchTolerance = decimal.NewFromFloat(o.AgentTolerance)
	}
	if o.DivergenceTolerance >= 0 {
		cfg.DivergenceTolerance = decimal.NewFromFloat(o.DivergenceTolerance)
	}
	if o.RateBandMin >= 0 {
		cfg.Rates.RateBandMin = decimal.NewFromFloat(o.RateBandMin)
	}
	if o.RateBandMax >= 0 {
		cfg.Rates.RateBandMax = decimal.NewFromFloat(o.RateBandMax)
	}
	cfg.IncludeBreakdowns = o.IncludeBreakdowns

	return cfg
}

// CreateReportConfig builds the reporter configuration for the requested
// output format.
func CreateReportConfig(format string, includeReconciled bool) (*reporter.Config, error) {
	cfg := reporter.DefaultConfig()
	cfg.IncludeReconciled = includeReconciled

	f := reporter.OutputFormat(format)
	if !f.IsValid() {
		return nil, fmt.Errorf("invalid output format %q (valid: console, json, csv, excel)", format)
	}
	cfg.Format = f

	// JSON always carries the full record set; consumers filter downstream.
	if f == reporter.FormatJSON {
		cfg.IncludeReconciled = true
	}
	return cfg, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "\\t", "tab":
		return '\t', nil
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return runes[0], nil
}
