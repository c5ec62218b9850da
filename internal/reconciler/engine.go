package reconciler

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/vinimacar/creditflow-manager-sub000/pkg/errors"
	"github.com/vinimacar/creditflow-manager-sub000/pkg/logger"

	"github.com/vinimacar/creditflow-manager-sub000/internal/matcher"
	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
	"github.com/vinimacar/creditflow-manager-sub000/internal/normalize"
	"github.com/vinimacar/creditflow-manager-sub000/internal/ratecheck"
)

// Engine is the single entry point of the reconciliation core. It owns a
// configured matcher and rate validator and runs the whole pipeline per call.
// An Engine is safe to reuse across runs; it keeps no per-run state.
type Engine struct {
	config *Config
	rates  *ratecheck.Validator
	log    logger.Logger
}

// New creates an Engine, rejecting invalid configuration eagerly.
func New(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		config: config,
		rates:  ratecheck.New(config.Rates),
		log:    logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Reconcile compares the internal contract collection against the
// counterparty statement and returns the classified report. Malformed
// business data never fails the call; empty collections simply produce a
// report with zero counts.
func (e *Engine) Reconcile(contracts []*models.InternalContract, payments []*models.CounterpartyPayment) (*models.ReconciliationReport, error) {
	started := time.Now()
	e.log.WithFields(logger.Fields{
		"contracts": len(contracts),
		"payments":  len(payments),
	}).Info("Starting reconciliation run")

	contracts = canonicalizeContracts(contracts)
	payments = canonicalizePayments(payments)

	m := matcher.New(e.config.Matcher)
	m.LoadPayments(payments)

	matches, err := m.MatchAll(contracts)
	if err != nil {
		return nil, apperrors.ReconciliationError(apperrors.CodeProcessingError, "matching", err)
	}

	anomalies := DetectAnomalies(matches, payments)
	e.log.WithFields(logger.Fields{
		"duplicates": len(anomalies.Duplicates),
		"orphans":    len(anomalies.Orphans),
	}).Debug("Anomaly detection complete")

	records := make([]models.ReconciledContract, 0, len(contracts)+len(anomalies.Orphans))
	for _, match := range matches {
		assessment := e.rates.Assess(match.Contract, match.Payment)
		records = append(records, classify(match, assessment, anomalies, e.config.DivergenceTolerance))
	}
	for _, orphan := range anomalies.Orphans {
		records = append(records, classifyOrphan(orphan))
	}

	report := &models.ReconciliationReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Records:     records,
		Totals:      Aggregate(records),
	}
	if e.config.IncludeBreakdowns {
		report.ByCounterparty = ByCounterparty(records)
		report.ByAgent = ByAgent(records)
		report.ByProduct = ByProduct(records)
	}

	e.log.WithFields(logger.Fields{
		"records":            report.Totals.Count,
		"reconciled":         report.Totals.ReconciledCount,
		"divergent":          report.Totals.DivergentCount,
		"not_found":          report.Totals.NotFoundCount,
		"duplicates":         report.Totals.DuplicateCount,
		"reconciled_percent": report.Totals.ReconciledPercent.StringFixed(2),
		"elapsed":            time.Since(started).String(),
	}).Info("Reconciliation run complete")

	return report, nil
}

// canonicalizeContracts returns normalized copies of the input records so the
// caller's collection stays untouched. Identifiers are canonicalized and
// monetary values rounded to cent precision.
func canonicalizeContracts(contracts []*models.InternalContract) []*models.InternalContract {
	out := make([]*models.InternalContract, 0, len(contracts))
	for _, c := range contracts {
		cp := *c
		cp.ContractID = normalize.ContractID(c.ContractID)
		cp.ClientTaxID = normalize.TaxID(c.ClientTaxID)
		cp.AgentTaxID = normalize.TaxID(c.AgentTaxID)
		cp.BaseValue = c.BaseValue.Round(2)
		cp.CommissionValue = c.CommissionValue.Round(2)
		out = append(out, &cp)
	}
	return out
}

func canonicalizePayments(payments []*models.CounterpartyPayment) []*models.CounterpartyPayment {
	out := make([]*models.CounterpartyPayment, 0, len(payments))
	for _, p := range payments {
		cp := *p
		cp.ContractID = normalize.ContractID(p.ContractID)
		cp.ClientTaxID = normalize.TaxID(p.ClientTaxID)
		cp.AgentTaxID = normalize.TaxID(p.AgentTaxID)
		cp.BaseValue = p.BaseValue.Round(2)
		cp.CommissionValue = p.CommissionValue.Round(2)
		out = append(out, &cp)
	}
	return out
}
