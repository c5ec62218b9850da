// Package reconciler orchestrates the full reconciliation pipeline:
// normalize both collections, match each internal contract against the
// counterparty pool, detect duplicate and orphan payments, assess commission
// rates, classify every record, and roll the results up into a report.
//
// The engine is a pure, synchronous batch computation. Given two finite
// in-memory collections it returns one report, performs no I/O, holds no
// locks, and keeps no state across runs.
//
// Example usage:
//
//	engine, err := reconciler.New(reconciler.DefaultConfig())
//	if err != nil { ... }
//	report, err := engine.Reconcile(contracts, payments)
package reconciler

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/vinimacar/creditflow-manager-sub000/pkg/errors"

	"github.com/vinimacar/creditflow-manager-sub000/internal/matcher"
	"github.com/vinimacar/creditflow-manager-sub000/internal/ratecheck"
)

// Config carries every tolerance the engine accepts. All fields have
// defaults; zero-value configs should go through DefaultConfig instead.
type Config struct {
	// Matcher holds the base-value tolerances for the matching strategies.
	Matcher *matcher.Config `json:"matcher"`

	// Rates holds the plausible band and rate-consistency tolerances.
	Rates *ratecheck.Config `json:"rates"`

	// DivergenceTolerance is the maximum absolute commission or base-value
	// difference a matched pair may show and still classify as OK. The rule
	// is strict greater-than: a difference exactly equal to the tolerance is
	// not divergent.
	DivergenceTolerance decimal.Decimal `json:"divergence_tolerance"`

	// IncludeBreakdowns adds per-counterparty, per-agent and per-product
	// totals to the report.
	IncludeBreakdowns bool `json:"include_breakdowns"`
}

// DefaultConfig returns the production defaults: 1-cent divergence tolerance,
// the matcher and rate defaults, breakdowns enabled.
func DefaultConfig() *Config {
	return &Config{
		Matcher:             matcher.DefaultConfig(),
		Rates:               ratecheck.DefaultConfig(),
		DivergenceTolerance: decimal.NewFromFloat(0.01),
		IncludeBreakdowns:   true,
	}
}

// Validate rejects caller mistakes eagerly, before any data is touched.
// Dirty business data never fails the engine; a negative tolerance or an
// inverted rate band is a programming error and does.
func (c *Config) Validate() error {
	if c.Matcher == nil || c.Rates == nil {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "engine_config", nil, nil)
	}
	if err := c.Matcher.Validate(); err != nil {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "matcher", c.Matcher, err)
	}
	if err := c.Rates.Validate(); err != nil {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "rates", c.Rates, err)
	}
	if c.DivergenceTolerance.IsNegative() {
		return apperrors.ConfigurationError(
			apperrors.CodeInvalidConfig, "divergence_tolerance", c.DivergenceTolerance.String(), nil)
	}
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	return &Config{
		Matcher:             c.Matcher.Clone(),
		Rates:               c.Rates.Clone(),
		DivergenceTolerance: c.DivergenceTolerance,
		IncludeBreakdowns:   c.IncludeBreakdowns,
	}
}
