// Package ratecheck validates commission-rate plausibility for matched and
// unmatched contracts.
//
// Three checks run per contract: the effective internal rate must sit inside
// a market-plausible band, the internal and counterparty rates must agree
// within a small margin when a match exists, and the stored commission values
// must be arithmetically consistent with the stored rate and base value.
package ratecheck

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
)

// Config holds the tolerances and the plausible rate band.
type Config struct {
	// RateBandMin and RateBandMax bound the market-plausible commission rate,
	// in percent of the base value.
	RateBandMin decimal.Decimal `json:"rate_band_min"`
	RateBandMax decimal.Decimal `json:"rate_band_max"`

	// RateMismatchTolerance is the accepted internal-vs-counterparty rate
	// difference, in percentage points.
	RateMismatchTolerance decimal.Decimal `json:"rate_mismatch_tolerance"`

	// ArithmeticTolerance is the accepted currency difference between a
	// stored commission and the one recomputed from rate and base value.
	// It absorbs rounding done by either side.
	ArithmeticTolerance decimal.Decimal `json:"arithmetic_tolerance"`
}

// DefaultConfig returns the band and tolerances used in production.
func DefaultConfig() *Config {
	return &Config{
		RateBandMin:           decimal.NewFromFloat(0.5),
		RateBandMax:           decimal.NewFromInt(8),
		RateMismatchTolerance: decimal.NewFromFloat(0.1),
		ArithmeticTolerance:   decimal.NewFromFloat(0.50),
	}
}

// Validate rejects configurations that indicate a programming mistake.
func (c *Config) Validate() error {
	if c.RateBandMin.IsNegative() {
		return fmt.Errorf("rate band minimum cannot be negative: %s", c.RateBandMin.String())
	}
	if c.RateBandMax.LessThan(c.RateBandMin) {
		return fmt.Errorf("rate band maximum %s is below minimum %s",
			c.RateBandMax.String(), c.RateBandMin.String())
	}
	if c.RateMismatchTolerance.IsNegative() {
		return fmt.Errorf("rate mismatch tolerance cannot be negative: %s", c.RateMismatchTolerance.String())
	}
	if c.ArithmeticTolerance.IsNegative() {
		return fmt.Errorf("arithmetic tolerance cannot be negative: %s", c.ArithmeticTolerance.String())
	}
	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Validator runs the rate checks against one configuration.
type Validator struct {
	config *Config
}

// New creates a Validator, falling back to DefaultConfig when nil.
func New(config *Config) *Validator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Validator{config: config}
}

// Assess computes the effective rate on each side and runs every check.
// matched may be nil for contracts with no counterparty payment; the band
// check still applies to the internal side.
func (v *Validator) Assess(internal *models.InternalContract, matched *models.CounterpartyPayment) *models.RateAssessment {
	ra := &models.RateAssessment{
		InternalRate: models.EffectiveRate(internal.CommissionValue, internal.BaseValue),
	}

	if matched != nil {
		ra.CounterpartyRate = models.EffectiveRate(matched.CommissionValue, matched.BaseValue)
		ra.HasCounterpartyRate = true
	}

	v.checkBand(ra)
	if matched != nil {
		v.checkCrossSide(ra)
		v.checkArithmetic(ra, "counterparty", matched.BaseValue, ra.CounterpartyRate, matched.CommissionValue, &ra.ValuePaidIncorrect)
	}
	// The internal-side arithmetic check recomputes the commission from a
	// rate that was itself derived from that commission, so it can only trip
	// on division rounding. Kept anyway: the engine mirrors how the upstream
	// ledger self-checks its own rows.
	var internalInconsistent bool
	v.checkArithmetic(ra, "internal", internal.BaseValue, ra.InternalRate, internal.CommissionValue, &internalInconsistent)
	if internalInconsistent {
		ra.ValuePaidIncorrect = true
	}

	if !ra.Flagged() {
		ra.Notes = append(ra.Notes, fmt.Sprintf(
			"ok: commission rate %s%% within plausible band and consistent with paid value",
			ra.InternalRate.StringFixed(2)))
	}

	return ra
}

// checkBand flags rates at or below the lower edge and above the upper edge.
// A rate sitting exactly on the minimum is as implausible as one below it,
// so the lower bound is exclusive while the upper bound is inclusive.
func (v *Validator) checkBand(ra *models.RateAssessment) {
	if ra.InternalRate.LessThanOrEqual(v.config.RateBandMin) || ra.InternalRate.GreaterThan(v.config.RateBandMax) {
		ra.RateOutOfBand = true
		ra.Notes = append(ra.Notes, fmt.Sprintf(
			"warning: commission rate %s%% outside plausible band (%s%%, %s%%]",
			ra.InternalRate.StringFixed(2),
			v.config.RateBandMin.StringFixed(2),
			v.config.RateBandMax.StringFixed(2)))
	}
}

func (v *Validator) checkCrossSide(ra *models.RateAssessment) {
	diff := ra.InternalRate.Sub(ra.CounterpartyRate).Abs()
	if diff.GreaterThan(v.config.RateMismatchTolerance) {
		ra.RateMismatch = true
		ra.Notes = append(ra.Notes, fmt.Sprintf(
			"error: commission rate mismatch: internal %s%% vs counterparty %s%%",
			ra.InternalRate.StringFixed(2),
			ra.CounterpartyRate.StringFixed(2)))
	}
}

func (v *Validator) checkArithmetic(ra *models.RateAssessment, side string, base, rate, stored decimal.Decimal, flag *bool) {
	expected := base.Mul(rate).Div(decimal.NewFromInt(100))
	if expected.Sub(stored).Abs().GreaterThan(v.config.ArithmeticTolerance) {
		*flag = true
		ra.Notes = append(ra.Notes, fmt.Sprintf(
			"error: %s commission %s inconsistent with rate %s%% of base %s (expected %s)",
			side, stored.StringFixed(2), rate.StringFixed(2),
			base.StringFixed(2), expected.StringFixed(2)))
	}
}
