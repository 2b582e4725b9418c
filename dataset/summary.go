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
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
)

// Columns of the transaction table in source order.
var Columns = []string{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"}

// Summary describes the raw transaction table before cleaning.
type Summary struct {
	TotalRows        int
	UniqueCustomers  int
	UniqueProducts   int
	NullCounts       map[string]int
	CountriesTouched int
}

// Summarize counts rows, distinct customers and products, and nulls per column.
func Summarize(raw []RawTransaction) Summary {
	customers := mapset.NewThreadUnsafeSet[string]()
	products := mapset.NewThreadUnsafeSet[string]()
	countries := mapset.NewThreadUnsafeSet[string]()
	nulls := lo.SliceToMap(Columns, func(c string) (string, int) { return c, 0 })
	for _, row := range raw {
		customers.Add(NormalizeCustomerID(row.CustomerID))
		products.Add(row.StockCode)
		if row.Country != "" {
			countries.Add(row.Country)
		}
		for column, null := range map[string]bool{
			"InvoiceNo":   row.InvoiceNo == "",
			"StockCode":   row.StockCode == "",
			"Description": row.Description == "",
			"Quantity":    row.Quantity == nil,
			"InvoiceDate": row.InvoiceDate == "",
			"UnitPrice":   row.UnitPrice == nil,
			"CustomerID":  row.CustomerID == "",
			"Country":     row.Country == "",
		} {
			if null {
				nulls[column]++
			}
		}
	}
	return Summary{
		TotalRows:        len(raw),
		UniqueCustomers:  customers.Cardinality(),
		UniqueProducts:   products.Cardinality(),
		NullCounts:       nulls,
		CountriesTouched: countries.Cardinality(),
	}
}

// CustomerSpend is the lifetime value of a customer: sum of quantity times unit price.
type CustomerSpend struct {
	CustomerKey string
	TotalSpend  float64
}

// TopCustomers returns the n customers with the largest total spend, ties by ascending key.
func TopCustomers(txs []Transaction, n int) []CustomerSpend {
	spend := make(map[string]float64)
	for _, tx := range txs {
		spend[tx.CustomerKey] += float64(tx.Quantity) * tx.UnitPrice
	}
	result := lo.MapToSlice(spend, func(k string, v float64) CustomerSpend {
		return CustomerSpend{CustomerKey: k, TotalSpend: v}
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalSpend != result[j].TotalSpend {
			return result[i].TotalSpend > result[j].TotalSpend
		}
		return result[i].CustomerKey < result[j].CustomerKey
	})
	if n >= 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// Descriptions picks one description per stock code: the one on the most recent invoice,
// ties broken by the lexicographically smallest text. Dated invoices win over undated ones.
// Empty descriptions are ignored.
func Descriptions(txs []Transaction) map[string]string {
	type candidate struct {
		text  string
		dated bool
		date  time.Time
	}
	newer := func(c, prev candidate) bool {
		switch {
		case c.dated != prev.dated:
			return c.dated
		case !c.date.Equal(prev.date):
			return c.date.After(prev.date)
		}
		return c.text < prev.text
	}
	best := make(map[string]candidate)
	for _, tx := range txs {
		if tx.Description == "" {
			continue
		}
		c := candidate{text: tx.Description, dated: !tx.InvoiceDate.IsZero(), date: tx.InvoiceDate}
		if prev, ok := best[tx.ItemKey]; !ok || newer(c, prev) {
			best[tx.ItemKey] = c
		}
	}
	return lo.MapValues(best, func(c candidate, _ string) string { return c.text })
}
