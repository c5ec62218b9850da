// Package parsers loads the two input collections from CSV files: the
// internal contract ledger and the counterparty payment statement.
//
// Files arrive from exports of the company's sales system and from
// bank/supplier portals, so header names vary wildly (English, Portuguese,
// abbreviations). Column resolution goes through an alias table, and per-cell
// values are normalized leniently: an unparsable amount or date zeroes the
// field and counts in the parse stats instead of aborting the load.
package parsers

import (
	"fmt"
	"strings"
)

// ContractParserConfig maps CSV columns to InternalContract fields.
type ContractParserConfig struct {
	ContractIDColn     string `json:"contract_id_column"`
	ClientNameColumn   string `json:"client_name_column"`
	ClientTaxIDColumn  string `json:"client_tax_id_column"`
	CounterpartyColumn string `json:"counterparty_column"`
	AgentNameColumn    string `json:"agent_name_column"`
	AgentTaxIDColumn   string `json:"agent_tax_id_column"`
	ProductColumn      string `json:"product_column"`
	BaseValueColumn    string `json:"base_value_column"`
	CommissionColumn   string `json:"commission_column"`
	SaleDateColumn     string `json:"sale_date_column"`
	PaymentDateColumn  string `json:"payment_date_column"`
	HasHeader          bool   `json:"has_header"`
	Delimiter          rune   `json:"delimiter"`
	ColumnAliases      map[string]string `json:"column_aliases"`
}

// DefaultContractParserConfig returns the canonical column mapping with the
// alias table covering common export variants.
func DefaultContractParserConfig() *ContractParserConfig {
	return &ContractParserConfig{
		ContractIDColn:     "contract_id",
		ClientNameColumn:   "client_name",
		ClientTaxIDColumn:  "client_tax_id",
		CounterpartyColumn: "counterparty_name",
		AgentNameColumn:    "agent_name",
		AgentTaxIDColumn:   "agent_tax_id",
		ProductColumn:      "product_name",
		BaseValueColumn:    "base_value",
		CommissionColumn:   "commission_value",
		SaleDateColumn:     "sale_date",
		PaymentDateColumn:  "payment_date",
		HasHeader:          true,
		Delimiter:          ',',
		ColumnAliases: map[string]string{
			// Contract identifier variants
			"contract": "contract_id",
			"contrato": "contract_id",
			"proposta": "contract_id",
			"id":       "contract_id",
			// Client variants
			"client":      "client_name",
			"cliente":     "client_name",
			"cpf":         "client_tax_id",
			"cpf_cliente": "client_tax_id",
			// Counterparty variants
			"bank":       "counterparty_name",
			"banco":      "counterparty_name",
			"supplier":   "counterparty_name",
			"fornecedor": "counterparty_name",
			// Agent variants
			"agent":      "agent_name",
			"agente":     "agent_name",
			"vendedor":   "agent_name",
			"cpf_agente": "agent_tax_id",
			// Product and value variants
			"product":    "product_name",
			"produto":    "product_name",
			"value":      "base_value",
			"valor":      "base_value",
			"valor_base": "base_value",
			"commission": "commission_value",
			"comissao":   "commission_value",
			// Date variants
			"date":           "sale_date",
			"data_venda":     "sale_date",
			"data_pagamento": "payment_date",
		},
	}
}

// Validate checks the configuration for completeness
func (c *ContractParserConfig) Validate() error {
	if strings.TrimSpace(c.BaseValueColumn) == "" {
		return fmt.Errorf("base value column is required")
	}
	if strings.TrimSpace(c.CommissionColumn) == "" {
		return fmt.Errorf("commission column is required")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	return nil
}

// StatementParserConfig maps CSV columns to CounterpartyPayment fields.
type StatementParserConfig struct {
	ContractIDColn     string `json:"contract_id_column"`
	ClientNameColumn   string `json:"client_name_column"`
	ClientTaxIDColumn  string `json:"client_tax_id_column"`
	CounterpartyColumn string `json:"counterparty_column"`
	AgentNameColumn    string `json:"agent_name_column"`
	AgentTaxIDColumn   string `json:"agent_tax_id_column"`
	ProductColumn      string `json:"product_column"`
	BaseValueColumn    string `json:"base_value_column"`
	CommissionColumn   string `json:"commission_column"`
	PaymentDateColumn  string `json:"payment_date_column"`
	HasHeader          bool   `json:"has_header"`
	Delimiter          rune   `json:"delimiter"`
	ColumnAliases      map[string]string `json:"column_aliases"`
}

// DefaultStatementParserConfig returns the canonical statement mapping.
func DefaultStatementParserConfig() *StatementParserConfig {
	return &StatementParserConfig{
		ContractIDColn:     "contract_id",
		ClientNameColumn:   "client_name",
		ClientTaxIDColumn:  "client_tax_id",
		CounterpartyColumn: "counterparty_name",
		AgentNameColumn:    "agent_name",
		AgentTaxIDColumn:   "agent_tax_id",
		ProductColumn:      "product_name",
		BaseValueColumn:    "base_value",
		CommissionColumn:   "commission_value",
		PaymentDateColumn:  "payment_date",
		HasHeader:          true,
		Delimiter:          ',',
		ColumnAliases: map[string]string{
			"contract":       "contract_id",
			"contrato":       "contract_id",
			"reference":      "contract_id",
			"referencia":     "contract_id",
			"client":         "client_name",
			"cliente":        "client_name",
			"cpf":            "client_tax_id",
			"bank":           "counterparty_name",
			"banco":          "counterparty_name",
			"agent":          "agent_name",
			"agente":         "agent_name",
			"cpf_agente":     "agent_tax_id",
			"product":        "product_name",
			"produto":        "product_name",
			"value":          "base_value",
			"valor":          "base_value",
			"valor_liberado": "base_value",
			"commission":     "commission_value",
			"comissao":       "commission_value",
			"comissao_paga":  "commission_value",
			"date":           "payment_date",
			"data_pagamento": "payment_date",
		},
	}
}

// Validate checks the configuration for completeness
func (c *StatementParserConfig) Validate() error {
	if strings.TrimSpace(c.BaseValueColumn) == "" {
		return fmt.Errorf("base value column is required")
	}
	if strings.TrimSpace(c.CommissionColumn) == "" {
		return fmt.Errorf("commission column is required")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	return nil
}

// ParseStats summarizes one file load. Cell anomalies never abort the load;
// they are counted here so the operator can judge input quality.
type ParseStats struct {
	RowsRead      int `json:"rows_read"`
	RowsLoaded    int `json:"rows_loaded"`
	RowsSkipped   int `json:"rows_skipped"`
	CellAnomalies int `json:"cell_anomalies"`
}

// resolveColumn maps a raw header name to its canonical column name using
// the alias table. Comparison is case-insensitive on trimmed input.
func resolveColumn(raw string, aliases map[string]string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}
