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

package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/basketcf/basketcf/base/progress"
	"github.com/basketcf/basketcf/dataset"
	"github.com/basketcf/basketcf/logics"
	"github.com/basketcf/basketcf/model/cf"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func render(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(lo.ToAnySlice(header)...)
	if err := table.Bulk(rows); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}

// Summary prints the shape of the raw table and null counts per column.
func Summary(w io.Writer, summary dataset.Summary) error {
	rows := [][]string{
		{"rows", strconv.Itoa(summary.TotalRows)},
		{"customers", strconv.Itoa(summary.UniqueCustomers)},
		{"products", strconv.Itoa(summary.UniqueProducts)},
		{"countries", strconv.Itoa(summary.CountriesTouched)},
	}
	for _, column := range dataset.Columns {
		rows = append(rows, []string{"null " + column, strconv.Itoa(summary.NullCounts[column])})
	}
	return render(w, []string{"dataset", "value"}, rows)
}

// Clean prints the number of rows dropped by each cleaning rule.
func Clean(w io.Writer, report dataset.CleanReport) error {
	return render(w, []string{"cleaning", "rows"}, [][]string{
		{"total", strconv.Itoa(report.Total)},
		{"missing customer", strconv.Itoa(report.MissingCustomer)},
		{"missing stock code", strconv.Itoa(report.MissingStockCode)},
		{"missing quantity", strconv.Itoa(report.MissingQuantity)},
		{"cancelled", strconv.Itoa(report.Cancelled)},
		{"non-positive quantity", strconv.Itoa(report.NonPositiveQuantity)},
		{"negative price", strconv.Itoa(report.NegativePrice)},
		{"filtered", strconv.Itoa(report.Filtered)},
		{"kept", strconv.Itoa(report.Kept)},
	})
}

func TopCustomers(w io.Writer, customers []dataset.CustomerSpend) error {
	return render(w, []string{"#", "customer", "spend"}, lo.Map(customers, func(c dataset.CustomerSpend, i int) []string {
		return []string{strconv.Itoa(i + 1), c.CustomerKey, strconv.FormatFloat(c.TotalSpend, 'f', 2, 64)}
	}))
}

// Evaluation prints the outcome of fitting and the held-out RMSE. A nil evaluation means the
// run stopped before evaluating.
func Evaluation(w io.Writer, fit cf.FitResult, evaluation *cf.Evaluation) error {
	rows := [][]string{
		{"epochs", strconv.Itoa(fit.Epochs)},
		{"converged", strconv.FormatBool(fit.Converged)},
		{"cancelled", strconv.FormatBool(fit.Cancelled)},
	}
	if len(fit.Loss) > 0 {
		rows = append(rows, []string{"loss", strconv.FormatFloat(fit.Loss[len(fit.Loss)-1], 'g', 6, 64)})
	}
	if evaluation != nil {
		rows = append(rows,
			[]string{"rmse", strconv.FormatFloat(float64(evaluation.RMSE), 'f', 4, 32)},
			[]string{"scored", strconv.Itoa(evaluation.Count)},
			[]string{"dropped (cold start)", strconv.Itoa(evaluation.Dropped)})
	}
	return render(w, []string{"model", "value"}, rows)
}

func Recommendations(w io.Writer, rows []logics.Row) error {
	return render(w, []string{"CustomerID", "StockCode", "Description", "predicted_score"},
		lo.Map(rows, func(row logics.Row, _ int) []string {
			return []string{row.CustomerID, row.StockCode, row.Description,
				strconv.FormatFloat(float64(row.PredictedScore), 'f', 4, 32)}
		}))
}

// Search prints the best hyper-parameters found by a search.
func Search(w io.Writer, result cf.SearchResult) error {
	rows := [][]string{
		{"trials", strconv.Itoa(result.Trials)},
		{"rmse", strconv.FormatFloat(float64(result.Evaluation.RMSE), 'f', 4, 32)},
	}
	names := lo.Keys(result.Params)
	slices.Sort(names)
	for _, name := range names {
		rows = append(rows, []string{string(name), fmt.Sprint(result.Params[name])})
	}
	return render(w, []string{"search", "value"}, rows)
}

// Stages prints the status and duration of pipeline stages.
func Stages(w io.Writer, stages []progress.Progress) error {
	return render(w, []string{"stage", "status", "duration", "error"}, lo.Map(stages, func(p progress.Progress, _ int) []string {
		var duration string
		if !p.FinishTime.IsZero() {
			duration = p.FinishTime.Sub(p.StartTime).Round(time.Millisecond).String()
		}
		return []string{p.Name, string(p.Status), duration, p.Error}
	}))
}
