package matcher

import (
	"github.com/vinimacar/creditflow-manager-sub000/internal/models"
	"github.com/vinimacar/creditflow-manager-sub000/internal/normalize"
)

// indexedPayment caches the normalized keys of one pool entry so strategies
// never re-normalize during the matching pass.
type indexedPayment struct {
	payment    *models.CounterpartyPayment
	contractID string
	clientTax  string
	clientName string
	agentTax   string
}

// PaymentIndex pre-indexes the counterparty pool by normalized contract ID,
// client tax ID and agent tax ID, so strategies 1, 2 and 4 avoid the full
// cross product. Strategy 3 (name containment) falls back to a linear scan
// over All. Bucket slices preserve statement input order, which makes
// first-match-wins deterministic for a fixed input ordering.
type PaymentIndex struct {
	ByContractID  map[string][]*indexedPayment
	ByClientTaxID map[string][]*indexedPayment
	ByAgentTaxID  map[string][]*indexedPayment

	// All holds every pool entry in input order.
	All []*indexedPayment
}

// NewPaymentIndex builds the index over the full counterparty pool.
func NewPaymentIndex(pool []*models.CounterpartyPayment) *PaymentIndex {
	idx := &PaymentIndex{
		ByContractID:  make(map[string][]*indexedPayment),
		ByClientTaxID: make(map[string][]*indexedPayment),
		ByAgentTaxID:  make(map[string][]*indexedPayment),
		All:           make([]*indexedPayment, 0, len(pool)),
	}

	for _, p := range pool {
		entry := &indexedPayment{
			payment:    p,
			contractID: normalize.ContractID(p.ContractID),
			clientTax:  normalize.TaxID(p.ClientTaxID),
			clientName: normalize.Name(p.ClientName),
			agentTax:   normalize.TaxID(p.AgentTaxID),
		}
		idx.All = append(idx.All, entry)

		if entry.contractID != "" {
			idx.ByContractID[entry.contractID] = append(idx.ByContractID[entry.contractID], entry)
		}
		if entry.clientTax != "" {
			idx.ByClientTaxID[entry.clientTax] = append(idx.ByClientTaxID[entry.clientTax], entry)
		}
		if entry.agentTax != "" {
			idx.ByAgentTaxID[entry.agentTax] = append(idx.ByAgentTaxID[entry.agentTax], entry)
		}
	}

	return idx
}

// Size returns the number of indexed payments
func (idx *PaymentIndex) Size() int {
	return len(idx.All)
}

// Stats reports index cardinalities, useful for debug logging.
type Stats struct {
	TotalPayments     int
	UniqueContractIDs int
	UniqueClientTaxes int
	UniqueAgentTaxes  int
}

// GetStats returns statistics about the index
func (idx *PaymentIndex) GetStats() Stats {
	return Stats{
		TotalPayments:     len(idx.All),
		UniqueContractIDs: len(idx.ByContractID),
		UniqueClientTaxes: len(idx.ByClientTaxID),
		UniqueAgentTaxes:  len(idx.ByAgentTaxID),
	}
}
