package reconciler

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
	"github.com/vinimacar/creditflow-manager-sub000/internal/normalize"
)

// Classification reasons are ordered: duplicate first, then the not-found
// reason, then value deltas, then rate notes, then the informational name
// note. Report consumers rely on that ordering being stable.

const (
	reasonDuplicate      = "counterparty payment matched by more than one internal contract"
	reasonNotFound       = "payment not found in counterparty statement"
	reasonOrphan         = "contract not found in internal records"
	reasonNameDiffersFmt = "info: client name differs between sides: %q vs %q"
)

// classify assigns the terminal status for one internal contract, evaluating
// the highest-priority condition first: duplicate target, then unmatched,
// then value or rate divergence, then OK.
func classify(match models.MatchResult, assessment *models.RateAssessment, anomalies *Anomalies, tolerance decimal.Decimal) models.ReconciledContract {
	contract := match.Contract

	record := models.ReconciledContract{
		ContractID:              normalize.ContractID(contract.ContractID),
		ClientName:              contract.ClientName,
		ClientTaxID:             normalize.TaxID(contract.ClientTaxID),
		CounterpartyName:        contract.CounterpartyName,
		AgentName:               contract.AgentName,
		ProductName:             contract.ProductName,
		InternalBaseValue:       contract.BaseValue,
		InternalCommissionValue: contract.CommissionValue,
		MatchStrategy:           match.Strategy,
		RateAssessment:          assessment,
	}

	if !match.Matched() {
		record.Status = models.StatusNotFoundInCounterparty
		record.DivergenceReasons = append(record.DivergenceReasons, reasonNotFound)
		// Counterparty side is zero, so the differences are the contract's
		// own values.
		record.CommissionDifference = contract.CommissionValue.Abs()
		record.BaseValueDifference = contract.BaseValue.Abs()
		return record
	}

	payment := match.Payment
	record.CounterpartyBaseValue = payment.BaseValue
	record.CounterpartyCommissionValue = payment.CommissionValue
	if record.ContractID == "" {
		record.ContractID = normalize.ContractID(payment.ContractID)
	}
	record.CommissionDifference = contract.CommissionValue.Sub(payment.CommissionValue).Abs()
	record.BaseValueDifference = contract.BaseValue.Sub(payment.BaseValue).Abs()

	if anomalies.Duplicates[payment] {
		record.Status = models.StatusDuplicate
		record.DivergenceReasons = append(record.DivergenceReasons, reasonDuplicate)
		appendNameNote(&record, contract, payment)
		return record
	}

	// A difference exactly equal to the tolerance is still within tolerance.
	commissionDiverges := !models.CompareWithTolerance(contract.CommissionValue, payment.CommissionValue, tolerance)
	baseDiverges := !models.CompareWithTolerance(contract.BaseValue, payment.BaseValue, tolerance)

	if commissionDiverges || baseDiverges || assessment.Flagged() {
		record.Status = models.StatusDivergent
		if commissionDiverges {
			record.DivergenceReasons = append(record.DivergenceReasons,
				fmt.Sprintf("commission divergence: %s", record.CommissionDifference.StringFixed(2)))
		}
		if baseDiverges {
			record.DivergenceReasons = append(record.DivergenceReasons,
				fmt.Sprintf("base value divergence: %s", record.BaseValueDifference.StringFixed(2)))
		}
		if assessment.Flagged() {
			record.DivergenceReasons = append(record.DivergenceReasons, assessment.Notes...)
		}
		appendNameNote(&record, contract, payment)
		return record
	}

	record.Status = models.StatusOK
	appendNameNote(&record, contract, payment)
	return record
}

// appendNameNote records a client-name disagreement between matched sides as
// informational only. Strategies 3 and 4 legitimately pair records whose
// spellings differ, so a name mismatch never forces DIVERGENT by itself.
func appendNameNote(record *models.ReconciledContract, contract *models.InternalContract, payment *models.CounterpartyPayment) {
	internalName := normalize.Name(contract.ClientName)
	paymentName := normalize.Name(payment.ClientName)
	if internalName == "" || paymentName == "" || internalName == paymentName {
		return
	}
	record.DivergenceReasons = append(record.DivergenceReasons,
		fmt.Sprintf(reasonNameDiffersFmt, contract.ClientName, payment.ClientName))
}

// classifyOrphan builds the NOT_FOUND_INTERNALLY record for a counterparty
// payment no contract claimed. Internal-side fields stay zero, so both
// differences equal the payment's own values.
func classifyOrphan(payment *models.CounterpartyPayment) models.ReconciledContract {
	return models.ReconciledContract{
		ContractID:                  normalize.ContractID(payment.ContractID),
		ClientName:                  payment.ClientName,
		ClientTaxID:                 normalize.TaxID(payment.ClientTaxID),
		CounterpartyName:            payment.CounterpartyName,
		AgentName:                   payment.AgentName,
		ProductName:                 payment.ProductName,
		CounterpartyBaseValue:       payment.BaseValue,
		CounterpartyCommissionValue: payment.CommissionValue,
		Status:                      models.StatusNotFoundInternally,
		DivergenceReasons:           []string{reasonOrphan},
		CommissionDifference:        payment.CommissionValue.Abs(),
		BaseValueDifference:         payment.BaseValue.Abs(),
		MatchStrategy:               models.StrategyNone,
	}
}
