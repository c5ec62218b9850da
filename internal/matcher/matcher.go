package matcher

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
	"github.com/vinimacar/creditflow-manager-sub000/internal/normalize"
)

// Matcher finds the best corresponding counterparty payment for each internal
// contract. The pool is read-only during matching; Match never mutates or
// consumes entries, so it is safe to call concurrently once LoadPayments has
// returned.
type Matcher struct {
	config *Config
	index  *PaymentIndex
}

// New creates a Matcher with the given configuration, falling back to
// DefaultConfig when nil.
func New(config *Config) *Matcher {
	if config == nil {
		config = DefaultConfig()
	}
	return &Matcher{config: config}
}

// LoadPayments indexes the counterparty pool for matching.
func (m *Matcher) LoadPayments(pool []*models.CounterpartyPayment) {
	m.index = NewPaymentIndex(pool)
}

// Config returns a copy of the active configuration
func (m *Matcher) Config() *Config {
	return m.config.Clone()
}

// Match finds the counterparty payment for one internal contract, trying
// strategies in fixed priority order and returning the first hit. A payment
// already selected for another contract remains eligible: duplicate claims
// are an anomaly the detector surfaces afterwards, not something matching
// should hide.
func (m *Matcher) Match(contract *models.InternalContract) (models.MatchResult, error) {
	if m.index == nil {
		return models.MatchResult{}, fmt.Errorf("payments must be loaded before matching")
	}

	result := models.MatchResult{Contract: contract, Strategy: models.StrategyNone}

	// A contract without a single usable key cannot match under any strategy.
	if !contract.HasIdentity() {
		return result, nil
	}

	if p := m.matchByContractID(contract); p != nil {
		result.Payment = p
		result.Strategy = models.StrategyExactContract
		return result, nil
	}
	if p := m.matchByClientTaxID(contract); p != nil {
		result.Payment = p
		result.Strategy = models.StrategyClientTaxIDValue
		return result, nil
	}
	if p := m.matchByClientName(contract); p != nil {
		result.Payment = p
		result.Strategy = models.StrategyClientNameValue
		return result, nil
	}
	if p := m.matchByAgentTaxID(contract); p != nil {
		result.Payment = p
		result.Strategy = models.StrategyAgentTaxIDValue
		return result, nil
	}

	return result, nil
}

// MatchAll matches every internal contract against the pool, preserving
// contract input order in the returned slice.
func (m *Matcher) MatchAll(contracts []*models.InternalContract) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, 0, len(contracts))
	for _, c := range contracts {
		r, err := m.Match(c)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// matchByContractID implements strategy 1: exact normalized contract ID
// equality. The ID is assumed unique; when the statement carries the same ID
// twice the first line in input order wins.
func (m *Matcher) matchByContractID(contract *models.InternalContract) *models.CounterpartyPayment {
	id := normalize.ContractID(contract.ContractID)
	if id == "" {
		return nil
	}
	if bucket := m.index.ByContractID[id]; len(bucket) > 0 {
		return bucket[0].payment
	}
	return nil
}

// matchByClientTaxID implements strategy 2: equal normalized client tax ID
// and base values closer than the value tolerance.
func (m *Matcher) matchByClientTaxID(contract *models.InternalContract) *models.CounterpartyPayment {
	taxID := normalize.TaxID(contract.ClientTaxID)
	if taxID == "" {
		return nil
	}
	for _, entry := range m.index.ByClientTaxID[taxID] {
		if withinTolerance(contract.BaseValue, entry.payment.BaseValue, m.config.ValueMatchTolerance) {
			return entry.payment
		}
	}
	return nil
}

// matchByClientName implements strategy 3: client name equality or
// containment in either direction, plus the value tolerance. Looser than
// strategy 2 because names arrive with abbreviations and missing middle
// names. Linear scan in statement input order; the first satisfying
// candidate wins.
func (m *Matcher) matchByClientName(contract *models.InternalContract) *models.CounterpartyPayment {
	name := normalize.Name(contract.ClientName)
	if name == "" {
		return nil
	}
	for _, entry := range m.index.All {
		if entry.clientName == "" {
			continue
		}
		if !namesOverlap(name, entry.clientName) {
			continue
		}
		if withinTolerance(contract.BaseValue, entry.payment.BaseValue, m.config.ValueMatchTolerance) {
			return entry.payment
		}
	}
	return nil
}

// matchByAgentTaxID implements strategy 4: equal normalized agent tax ID with
// the wider agent tolerance. Weakest signal, used only when nothing better
// matched.
func (m *Matcher) matchByAgentTaxID(contract *models.InternalContract) *models.CounterpartyPayment {
	taxID := normalize.TaxID(contract.AgentTaxID)
	if taxID == "" {
		return nil
	}
	for _, entry := range m.index.ByAgentTaxID[taxID] {
		if withinTolerance(contract.BaseValue, entry.payment.BaseValue, m.config.AgentMatchTolerance) {
			return entry.payment
		}
	}
	return nil
}

// withinTolerance applies the strict less-than rule the heuristic strategies
// use for base values.
func withinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(tolerance)
}

// namesOverlap reports equality or containment in either direction between
// two already-normalized names.
func namesOverlap(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
