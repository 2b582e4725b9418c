// Copyright 2026 basketcf Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/juju/errors"
	"modernc.org/strutil"
)

// RawTransaction is a row of the transaction table as read from a source. Empty strings and nil
// pointers are nulls.
type RawTransaction struct {
	InvoiceNo   string   `bson:"InvoiceNo"`
	StockCode   string   `bson:"StockCode"`
	Description string   `bson:"Description"`
	Quantity    *int     `bson:"Quantity"`
	InvoiceDate string   `bson:"InvoiceDate"`
	UnitPrice   *float64 `bson:"UnitPrice"`
	CustomerID  string   `bson:"CustomerID"`
	Country     string   `bson:"Country"`
}

// Transaction is a cleaned purchase line.
type Transaction struct {
	CustomerKey string
	ItemKey     string
	Description string
	Quantity    int
	UnitPrice   float64
	InvoiceNo   string
	InvoiceDate time.Time
	Country     string
	Category    string
}

// IsCancellation reports whether an invoice number denotes a cancelled order.
func IsCancellation(invoiceNo string) bool {
	return strings.HasPrefix(invoiceNo, "C")
}

// CleanReport counts rows removed by each cleaning rule. A row is counted under the first rule
// it breaks.
type CleanReport struct {
	Total               int
	Kept                int
	MissingCustomer     int
	MissingStockCode    int
	MissingQuantity     int
	Cancelled           int
	NonPositiveQuantity int
	NegativePrice       int
	Filtered            int
}

// Dropped returns the number of rows removed.
func (r CleanReport) Dropped() int {
	return r.Total - r.Kept
}

type cleanOptions struct {
	filter *vm.Program
}

type CleanOption func(*cleanOptions)

// WithFilter keeps only rows for which the compiled filter returns true.
func WithFilter(program *vm.Program) CleanOption {
	return func(o *cleanOptions) {
		o.filter = program
	}
}

// CompileFilter compiles a boolean expression over the columns of a cleaned transaction, for
// example `Country == "United Kingdom" && UnitPrice < 100`.
func CompileFilter(code string) (*vm.Program, error) {
	program, err := expr.Compile(code, expr.Env(filterEnv(Transaction{})), expr.AsBool())
	if err != nil {
		return nil, errors.Annotatef(err, "compile filter %q", code)
	}
	return program, nil
}

func filterEnv(tx Transaction) map[string]any {
	return map[string]any{
		"CustomerID":  tx.CustomerKey,
		"StockCode":   tx.ItemKey,
		"Description": tx.Description,
		"Quantity":    tx.Quantity,
		"UnitPrice":   tx.UnitPrice,
		"InvoiceNo":   tx.InvoiceNo,
		"InvoiceDate": tx.InvoiceDate,
		"Country":     tx.Country,
		"Category":    tx.Category,
	}
}

var categoryPattern = regexp.MustCompile(`[A-Za-z]+`)

// Category extracts the first run of letters from a stock code.
func Category(stockCode string) string {
	return categoryPattern.FindString(stockCode)
}

// NormalizeCustomerID strips the fractional part of integral ids such as "17850.0".
func NormalizeCustomerID(id string) string {
	id = strings.TrimSpace(id)
	if !strings.Contains(id, ".") {
		return id
	}
	f, err := strconv.ParseFloat(id, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return id
	}
	return strconv.FormatInt(int64(f), 10)
}

// Clean removes rows with missing customer, stock code or quantity, cancelled invoices,
// non-positive quantities and negative prices.
func Clean(raw []RawTransaction, opts ...CleanOption) ([]Transaction, CleanReport, error) {
	var options cleanOptions
	for _, opt := range opts {
		opt(&options)
	}
	report := CleanReport{Total: len(raw)}
	pool := strutil.NewPool()
	txs := make([]Transaction, 0, len(raw))
	for _, row := range raw {
		customer := NormalizeCustomerID(row.CustomerID)
		stockCode := strings.TrimSpace(row.StockCode)
		switch {
		case customer == "":
			report.MissingCustomer++
			continue
		case stockCode == "":
			report.MissingStockCode++
			continue
		case row.Quantity == nil:
			report.MissingQuantity++
			continue
		case IsCancellation(row.InvoiceNo):
			report.Cancelled++
			continue
		case *row.Quantity <= 0:
			report.NonPositiveQuantity++
			continue
		case row.UnitPrice != nil && *row.UnitPrice < 0:
			report.NegativePrice++
			continue
		}
		tx := Transaction{
			CustomerKey: pool.Align(customer),
			ItemKey:     pool.Align(stockCode),
			Description: pool.Align(strings.TrimSpace(row.Description)),
			Quantity:    *row.Quantity,
			InvoiceNo:   row.InvoiceNo,
			Country:     pool.Align(row.Country),
			Category:    pool.Align(Category(stockCode)),
		}
		if row.UnitPrice != nil {
			tx.UnitPrice = *row.UnitPrice
		}
		if row.InvoiceDate != "" {
			if t, err := dateparse.ParseAny(row.InvoiceDate); err == nil {
				tx.InvoiceDate = t
			}
		}
		if options.filter != nil {
			ok, err := expr.Run(options.filter, filterEnv(tx))
			if err != nil {
				return nil, report, errors.Annotatef(err, "filter invoice %s", row.InvoiceNo)
			}
			if !ok.(bool) {
				report.Filtered++
				continue
			}
		}
		txs = append(txs, tx)
	}
	report.Kept = len(txs)
	return txs, report, nil
}
