// Package matcher pairs internal commission contracts with counterparty
// statement lines using an ordered sequence of matching strategies.
//
// The two record sets are independently keyed and imperfectly transcribed, so
// no single key reliably joins them. The matcher therefore tries strategies
// in fixed priority order and stops at the first hit:
//  1. Exact contract ID equality (unambiguous primary key when present)
//  2. Client tax ID plus approximately-equal base value
//  3. Client name containment plus approximately-equal base value
//  4. Agent tax ID plus base value within a wider tolerance (last resort)
//
// Each internal contract is matched independently against the entire pool;
// payments are never consumed during matching. That property is what lets the
// duplicate detector see when two contracts claimed the same payment.
//
// Example usage:
//
//	m := matcher.New(matcher.DefaultConfig())
//	m.LoadPayments(pool)
//	result := m.Match(contract)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the monetary tolerances used by the matching strategies.
// Tolerances are absolute currency-unit amounts, not percentages.
type Config struct {
	// ValueMatchTolerance bounds the base-value difference accepted by the
	// client tax ID and client name strategies (strict less-than).
	ValueMatchTolerance decimal.Decimal `json:"value_match_tolerance"`

	// AgentMatchTolerance bounds the base-value difference accepted by the
	// agent tax ID strategy. Wider, because agent identity is a weak signal.
	AgentMatchTolerance decimal.Decimal `json:"agent_match_tolerance"`
}

// DefaultConfig returns the tolerances used in production reconciliation.
func DefaultConfig() *Config {
	return &Config{
		ValueMatchTolerance: decimal.NewFromInt(1),
		AgentMatchTolerance: decimal.NewFromInt(5),
	}
}

// StrictConfig returns a configuration that only accepts near-exact values.
func StrictConfig() *Config {
	return &Config{
		ValueMatchTolerance: decimal.NewFromFloat(0.01),
		AgentMatchTolerance: decimal.NewFromFloat(0.01),
	}
}

// Validate checks the configuration for programming mistakes. Negative
// tolerances indicate a caller bug, not dirty business data, and are
// rejected eagerly.
func (c *Config) Validate() error {
	if c.ValueMatchTolerance.IsNegative() {
		return fmt.Errorf("value match tolerance cannot be negative: %s", c.ValueMatchTolerance.String())
	}
	if c.AgentMatchTolerance.IsNegative() {
		return fmt.Errorf("agent match tolerance cannot be negative: %s", c.AgentMatchTolerance.String())
	}
	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	return &Config{
		ValueMatchTolerance: c.ValueMatchTolerance,
		AgentMatchTolerance: c.AgentMatchTolerance,
	}
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("matcher.Config{ValueTolerance: %s, AgentTolerance: %s}",
		c.ValueMatchTolerance.StringFixed(2), c.AgentMatchTolerance.StringFixed(2))
}
