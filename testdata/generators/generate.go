// Command generate produces paired contract/statement CSV fixtures for
// manual testing of the reconcile command. Each run emits a contracts file
// and a statement file with a configurable mix of clean, divergent, missing
// and duplicated records.
//
// Usage:
//
//	go run generate.go -count 200 -divergent 0.1 -missing 0.05 -output-dir ../generated
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var (
	count      = flag.Int("count", 100, "number of internal contracts to generate")
	divergent  = flag.Float64("divergent", 0.10, "fraction of records with a divergent paid commission")
	missing    = flag.Float64("missing", 0.05, "fraction of contracts absent from the statement")
	duplicates = flag.Float64("duplicates", 0.03, "fraction of statement rows duplicated")
	orphans    = flag.Int("orphans", 3, "statement rows with no internal contract")
	seed       = flag.Int64("seed", 0, "random seed (0 = time-based)")
	outputDir  = flag.String("output-dir", "../generated", "output directory")
)

var (
	clientNames = []string{
		"Maria Aparecida Souza", "José Carlos Oliveira", "Ana Lúcia Ferreira",
		"Pedro Henrique Lima", "Francisca das Chagas", "Antônio Marcos Silva",
		"Juliana Castro Mendes", "Raimundo Nonato Costa",
	}
	counterparties = []string{"Banco Alfa", "Banco Beta", "Financeira Gama"}
	agents         = []string{"Carlos Pereira", "Fernanda Dias", "Roberto Nunes"}
	products       = []string{"Consignado INSS", "Cartão Benefício", "Refinanciamento"}
)

func main() {
	flag.Parse()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("creating output dir: %v", err)
	}

	contractRows := [][]string{{
		"contract_id", "client_name", "client_tax_id", "counterparty_name",
		"agent_name", "agent_tax_id", "product_name", "base_value",
		"commission_value", "sale_date", "payment_date",
	}}
	statementRows := [][]string{{
		"contract_id", "client_name", "client_tax_id", "counterparty_name",
		"agent_name", "agent_tax_id", "product_name", "base_value",
		"commission_value", "payment_date",
	}}

	for i := 0; i < *count; i++ {
		contract := randomContract(rng, i)
		contractRows = append(contractRows, contract)

		if rng.Float64() < *missing {
			continue
		}

		paid := statementRow(contract)
		if rng.Float64() < *divergent {
			// Shift the paid commission by 1 to 50 currency units.
			delta := 1 + rng.Float64()*49
			paid[8] = fmt.Sprintf("%.2f", parseMoney(paid[8])+delta)
		}
		statementRows = append(statementRows, paid)

		if rng.Float64() < *duplicates {
			statementRows = append(statementRows, paid)
		}
	}

	for i := 0; i < *orphans; i++ {
		orphan := randomContract(rng, *count+1000+i)
		statementRows = append(statementRows, statementRow(orphan))
	}

	if err := writeCSV(filepath.Join(*outputDir, "contracts.csv"), contractRows); err != nil {
		log.Fatalf("writing contracts: %v", err)
	}
	if err := writeCSV(filepath.Join(*outputDir, "statement.csv"), statementRows); err != nil {
		log.Fatalf("writing statement: %v", err)
	}

	fmt.Printf("seed=%d contracts=%d statement_rows=%d\n", s, len(contractRows)-1, len(statementRows)-1)
}

func randomContract(rng *rand.Rand, n int) []string {
	base := 500 + rng.Float64()*49500
	rate := 0.5 + rng.Float64()*7.5
	commission := base * rate / 100
	saleDate := time.Date(2026, time.Month(1+rng.Intn(6)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)

	return []string{
		fmt.Sprintf("CT-%06d", n+1),
		clientNames[rng.Intn(len(clientNames))],
		randomTaxID(rng),
		counterparties[rng.Intn(len(counterparties))],
		agents[rng.Intn(len(agents))],
		randomTaxID(rng),
		products[rng.Intn(len(products))],
		fmt.Sprintf("%.2f", base),
		fmt.Sprintf("%.2f", commission),
		saleDate.Format("2006-01-02"),
		saleDate.AddDate(0, 0, 30).Format("2006-01-02"),
	}
}

// statementRow projects a contract row onto the statement column set,
// dropping the sale date.
func statementRow(contract []string) []string {
	row := make([]string, 0, 10)
	row = append(row, contract[:9]...)
	row = append(row, contract[10])
	return row
}

func randomTaxID(rng *rand.Rand) string {
	digits := make([]byte, 11)
	for i := range digits {
		digits[i] = byte('0' + rng.Intn(10))
	}
	return string(digits)
}

func parseMoney(s string) float64 {
	var v float64
	fmt.Sscanf(s, "%f", &v)
	return v
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
