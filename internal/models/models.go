// Package models defines the record types flowing through the reconciliation
// engine: the company's internal commission contracts, the counterparty
// payment statement lines, and the classified output records.
//
// All monetary values use decimal.Decimal to avoid floating-point drift in
// tolerance comparisons. Records are created fresh per reconciliation run and
// treated as immutable once produced.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MatchStrategy identifies which heuristic paired an internal contract with a
// counterparty payment. Strategies are ordered by confidence: a contract ID
// is an unambiguous key, client identity plus an approximately-equal value is
// the next best signal, and agent identity is the weakest because one agent
// services many contracts.
type MatchStrategy string

const (
	StrategyExactContract    MatchStrategy = "EXACT_CONTRACT"
	StrategyClientTaxIDValue MatchStrategy = "CLIENT_TAX_ID_AND_VALUE"
	StrategyClientNameValue  MatchStrategy = "CLIENT_NAME_AND_VALUE"
	StrategyAgentTaxIDValue  MatchStrategy = "AGENT_TAX_ID_AND_VALUE"
	StrategyNone             MatchStrategy = "NONE"
)

// String returns the string representation of MatchStrategy
func (s MatchStrategy) String() string {
	return string(s)
}

// ReconcileStatus is the terminal classification assigned to each record.
type ReconcileStatus string

const (
	// StatusOK means the matched pair agrees on values and rates.
	StatusOK ReconcileStatus = "OK"
	// StatusDivergent means a value or rate inconsistency was detected.
	StatusDivergent ReconcileStatus = "DIVERGENT"
	// StatusNotFoundInCounterparty means no statement line matched the contract.
	StatusNotFoundInCounterparty ReconcileStatus = "NOT_FOUND_IN_COUNTERPARTY"
	// StatusNotFoundInternally marks an orphan payment with no internal record.
	StatusNotFoundInternally ReconcileStatus = "NOT_FOUND_INTERNALLY"
	// StatusDuplicate means the matched payment was claimed by more than one
	// internal contract, a double-payment signal.
	StatusDuplicate ReconcileStatus = "DUPLICATE"
)

// String returns the string representation of ReconcileStatus
func (s ReconcileStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one of the known classifications
func (s ReconcileStatus) IsValid() bool {
	switch s {
	case StatusOK, StatusDivergent, StatusNotFoundInCounterparty,
		StatusNotFoundInternally, StatusDuplicate:
		return true
	default:
		return false
	}
}

// InternalContract is one sale/commission record as recorded by the company's
// own system. Identifier fields may be blank or inconsistently keyed; the
// normalize package canonicalizes them before matching.
type InternalContract struct {
	ContractID       string          `json:"contract_id" csv:"contract_id"`
	ClientName       string          `json:"client_name" csv:"client_name"`
	ClientTaxID      string          `json:"client_tax_id" csv:"client_tax_id"`
	CounterpartyName string          `json:"counterparty_name" csv:"counterparty_name"`
	AgentName        string          `json:"agent_name" csv:"agent_name"`
	AgentTaxID       string          `json:"agent_tax_id" csv:"agent_tax_id"`
	ProductName      string          `json:"product_name" csv:"product_name"`
	BaseValue        decimal.Decimal `json:"base_value" csv:"base_value"`
	CommissionValue  decimal.Decimal `json:"commission_value" csv:"commission_value"`
	SaleDate         time.Time       `json:"sale_date" csv:"sale_date"`
	PaymentDate      time.Time       `json:"payment_date" csv:"payment_date"`
}

// Validate performs basic invariant checks on the InternalContract.
// Dirty identifier data is tolerated; only structurally impossible values
// are rejected.
func (c *InternalContract) Validate() error {
	if c.BaseValue.IsNegative() {
		return fmt.Errorf("contract base value cannot be negative: %s", c.BaseValue.String())
	}
	if err := validateTaxID("client tax ID", c.ClientTaxID); err != nil {
		return err
	}
	if err := validateTaxID("agent tax ID", c.AgentTaxID); err != nil {
		return err
	}
	return nil
}

// String returns a string representation of the InternalContract
func (c *InternalContract) String() string {
	return fmt.Sprintf("InternalContract{ID: %s, Client: %s, Base: %s, Commission: %s}",
		c.ContractID, c.ClientName, c.BaseValue.String(), c.CommissionValue.String())
}

// CounterpartyPayment is one line item from the bank/supplier payment
// statement. It represents the ground truth of what was actually paid.
type CounterpartyPayment struct {
	ContractID       string          `json:"contract_id" csv:"contract_id"`
	ClientName       string          `json:"client_name" csv:"client_name"`
	ClientTaxID      string          `json:"client_tax_id" csv:"client_tax_id"`
	CounterpartyName string          `json:"counterparty_name" csv:"counterparty_name"`
	AgentName        string          `json:"agent_name" csv:"agent_name"`
	AgentTaxID       string          `json:"agent_tax_id" csv:"agent_tax_id"`
	ProductName      string          `json:"product_name" csv:"product_name"`
	BaseValue        decimal.Decimal `json:"base_value" csv:"base_value"`
	CommissionValue  decimal.Decimal `json:"commission_value" csv:"commission_value"`
	PaymentDate      time.Time       `json:"payment_date" csv:"payment_date"`
}

// Validate performs basic invariant checks on the CounterpartyPayment
func (p *CounterpartyPayment) Validate() error {
	if p.BaseValue.IsNegative() {
		return fmt.Errorf("payment base value cannot be negative: %s", p.BaseValue.String())
	}
	if err := validateTaxID("client tax ID", p.ClientTaxID); err != nil {
		return err
	}
	return nil
}

// String returns a string representation of the CounterpartyPayment
func (p *CounterpartyPayment) String() string {
	return fmt.Sprintf("CounterpartyPayment{ID: %s, Client: %s, Base: %s, Commission: %s}",
		p.ContractID, p.ClientName, p.BaseValue.String(), p.CommissionValue.String())
}

func validateTaxID(field, id string) error {
	if id == "" {
		return nil
	}
	if len(id) != 11 {
		return fmt.Errorf("%s must be empty or exactly 11 digits, got %q", field, id)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return fmt.Errorf("%s must contain only digits, got %q", field, id)
		}
	}
	return nil
}

// MatchResult pairs an internal contract with the counterparty payment
// selected for it, if any. It is ephemeral: produced during the matching pass
// and consumed by the duplicate detector and classifier.
type MatchResult struct {
	Contract *InternalContract    `json:"-"`
	Payment  *CounterpartyPayment `json:"-"`
	Strategy MatchStrategy        `json:"strategy"`
}

// Matched reports whether a counterparty payment was selected
func (m *MatchResult) Matched() bool {
	return m.Payment != nil && m.Strategy != StrategyNone
}

// RateAssessment holds the commission-rate plausibility checks for one
// contract. Rates are percentages of the base value.
type RateAssessment struct {
	InternalRate        decimal.Decimal `json:"internal_rate"`
	CounterpartyRate    decimal.Decimal `json:"counterparty_rate"`
	HasCounterpartyRate bool            `json:"has_counterparty_rate"`
	RateOutOfBand       bool            `json:"rate_out_of_band"`
	RateMismatch        bool            `json:"rate_mismatch"`
	ValuePaidIncorrect  bool            `json:"value_paid_incorrect"`
	Notes               []string        `json:"notes"`
}

// Flagged reports whether any rate check raised a flag
func (ra *RateAssessment) Flagged() bool {
	return ra.RateOutOfBand || ra.RateMismatch || ra.ValuePaidIncorrect
}

// ReconciledContract is the durable output unit: one per internal contract
// plus one per orphaned counterparty payment. Fields from the absent side
// default to zero/empty.
type ReconciledContract struct {
	ContractID       string `json:"contract_id"`
	ClientName       string `json:"client_name"`
	ClientTaxID      string `json:"client_tax_id"`
	CounterpartyName string `json:"counterparty_name"`
	AgentName        string `json:"agent_name"`
	ProductName      string `json:"product_name"`

	InternalBaseValue           decimal.Decimal `json:"internal_base_value"`
	InternalCommissionValue     decimal.Decimal `json:"internal_commission_value"`
	CounterpartyBaseValue       decimal.Decimal `json:"counterparty_base_value"`
	CounterpartyCommissionValue decimal.Decimal `json:"counterparty_commission_value"`

	Status            ReconcileStatus `json:"status"`
	DivergenceReasons []string        `json:"divergence_reasons"`

	// Both differences are absolute values, always >= 0.
	CommissionDifference decimal.Decimal `json:"commission_difference"`
	BaseValueDifference  decimal.Decimal `json:"base_value_difference"`

	MatchStrategy  MatchStrategy   `json:"match_strategy"`
	RateAssessment *RateAssessment `json:"rate_assessment,omitempty"`
}

// String returns a short representation useful in logs
func (rc *ReconciledContract) String() string {
	return fmt.Sprintf("ReconciledContract{ID: %s, Status: %s, CommissionDiff: %s}",
		rc.ContractID, rc.Status, rc.CommissionDifference.StringFixed(2))
}

// Totals is the aggregate roll-up over a classified record collection.
type Totals struct {
	Count           int `json:"count"`
	ReconciledCount int `json:"reconciled_count"`
	DivergentCount  int `json:"divergent_count"`
	NotFoundCount   int `json:"not_found_count"`
	DuplicateCount  int `json:"duplicate_count"`

	ReconciledPercent decimal.Decimal `json:"reconciled_percent"`

	TotalInternalCommission     decimal.Decimal `json:"total_internal_commission"`
	TotalCounterpartyCommission decimal.Decimal `json:"total_counterparty_commission"`

	// TotalCommissionDifference and TotalBaseValueDifference sum the absolute
	// per-record differences. CommissionGap preserves sign (internal minus
	// counterparty) so callers can tell over- from under-payment.
	TotalCommissionDifference decimal.Decimal `json:"total_commission_difference"`
	TotalBaseValueDifference  decimal.Decimal `json:"total_base_value_difference"`
	CommissionGap             decimal.Decimal `json:"commission_gap"`
}

// ReconciliationReport is the final artifact of one engine run.
type ReconciliationReport struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Records     []ReconciledContract `json:"records"`
	Totals      Totals               `json:"totals"`

	// Optional per-dimension breakdowns, keyed by normalized name.
	ByCounterparty map[string]Totals `json:"by_counterparty,omitempty"`
	ByAgent        map[string]Totals `json:"by_agent,omitempty"`
	ByProduct      map[string]Totals `json:"by_product,omitempty"`
}

// MarshalJSON renders monetary fields as fixed two-decimal strings so report
// consumers never see exponent notation.
func (t Totals) MarshalJSON() ([]byte, error) {
	type alias struct {
		Count                       int    `json:"count"`
		ReconciledCount             int    `json:"reconciled_count"`
		DivergentCount              int    `json:"divergent_count"`
		NotFoundCount               int    `json:"not_found_count"`
		DuplicateCount              int    `json:"duplicate_count"`
		ReconciledPercent           string `json:"reconciled_percent"`
		TotalInternalCommission     string `json:"total_internal_commission"`
		TotalCounterpartyCommission string `json:"total_counterparty_commission"`
		TotalCommissionDifference   string `json:"total_commission_difference"`
		TotalBaseValueDifference    string `json:"total_base_value_difference"`
		CommissionGap               string `json:"commission_gap"`
	}
	return json.Marshal(alias{
		Count:                       t.Count,
		ReconciledCount:             t.ReconciledCount,
		DivergentCount:              t.DivergentCount,
		NotFoundCount:               t.NotFoundCount,
		DuplicateCount:              t.DuplicateCount,
		ReconciledPercent:           t.ReconciledPercent.StringFixed(2),
		TotalInternalCommission:     t.TotalInternalCommission.StringFixed(2),
		TotalCounterpartyCommission: t.TotalCounterpartyCommission.StringFixed(2),
		TotalCommissionDifference:   t.TotalCommissionDifference.StringFixed(2),
		TotalBaseValueDifference:    t.TotalBaseValueDifference.StringFixed(2),
		CommissionGap:               t.CommissionGap.StringFixed(2),
	})
}

// CompareWithTolerance reports whether two amounts differ by no more than the
// tolerance. Used for the strict-greater divergence rule: equal-to-tolerance
// is still within tolerance.
func CompareWithTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// EffectiveRate computes a commission value as a percentage of the base
// value, returning zero for a zero base.
func EffectiveRate(commission, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return commission.Div(base).Mul(decimal.NewFromInt(100))
}

// HasIdentity reports whether the contract carries at least one usable
// matching key after normalization.
func (c *InternalContract) HasIdentity() bool {
	return strings.TrimSpace(c.ContractID) != "" ||
		strings.TrimSpace(c.ClientTaxID) != "" ||
		strings.TrimSpace(c.ClientName) != "" ||
		strings.TrimSpace(c.AgentTaxID) != ""
}
