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

package pipeline

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/logics"
	"github.com/basketcf/basketcf/storage/blob"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Header of the recommendation CSV.
var Header = []string{"CustomerID", "StockCode", "Description", "predicted_score"}

// WriteRows writes recommendations as CSV.
func WriteRows(w io.Writer, rows []logics.Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return errors.Trace(err)
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.CustomerID,
			row.StockCode,
			row.Description,
			strconv.FormatFloat(float64(row.PredictedScore), 'g', -1, 32),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	writer.Flush()
	return errors.Trace(writer.Error())
}

// ReadRows reads recommendations written by WriteRows.
func ReadRows(r io.Reader) ([]logics.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(records) == 0 {
		return nil, errors.NotValidf("recommendation csv without header")
	}
	rows := make([]logics.Row, 0, len(records)-1)
	for i, record := range records[1:] {
		score, err := strconv.ParseFloat(record[3], 32)
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", i+2)
		}
		rows = append(rows, logics.Row{
			CustomerID:     record[0],
			StockCode:      record[1],
			Description:    record[2],
			PredictedScore: float32(score),
		})
	}
	return rows, nil
}

// Publish writes recommendations to a blob store. The file is replaced only if the whole
// content is written.
func Publish(ctx context.Context, store blob.Store, path string, rows []logics.Row) error {
	w, err := store.Create(ctx, path)
	if err != nil {
		return errors.Trace(err)
	}
	if err = WriteRows(w, rows); err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			log.Logger().Warn("failed to abort upload", zap.String("path", path), zap.Error(abortErr))
		}
		return errors.Trace(err)
	}
	return errors.Trace(w.Close())
}

// LoadRows reads published recommendations, optionally of a single customer. It returns a
// NotFound error if nothing has been published.
func LoadRows(ctx context.Context, store blob.Store, path, customerID string) ([]logics.Row, error) {
	r, err := store.Open(ctx, path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	rows, err := ReadRows(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if customerID != "" {
		rows = lo.Filter(rows, func(row logics.Row, _ int) bool {
			return row.CustomerID == customerID
		})
	}
	return rows, nil
}
