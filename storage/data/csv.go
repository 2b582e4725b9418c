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

package data

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// CSV reads transactions from a CSV file with a header row. Columns are matched by name and may
// appear in any order.
type CSV struct {
	path     string
	progress bool
}

func NewCSV(path string) *CSV {
	return &CSV{
		path:     path,
		progress: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (c *CSV) Load(ctx context.Context) ([]dataset.RawTransaction, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	var r io.Reader = f
	if c.progress {
		if stat, err := f.Stat(); err == nil {
			pbReader := progressbar.NewReader(f, progressbar.DefaultBytes(stat.Size(), "Loading transactions"))
			r = &pbReader
		}
	}
	return ReadCSV(ctx, r)
}

func (c *CSV) Close() error {
	return nil
}

// ReadCSV parses transactions from CSV. Empty cells are nulls.
func ReadCSV(ctx context.Context, r io.Reader) ([]dataset.RawTransaction, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if missing := lo.Filter(dataset.Columns, func(column string, _ int) bool {
		_, ok := index[column]
		return !ok
	}); len(missing) > 0 {
		return nil, errors.NotValidf("csv header: missing columns %v", missing)
	}
	var transactions []dataset.RawTransaction
	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err = ctx.Err(); err != nil {
				return nil, errors.Trace(err)
			}
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		get := func(column string) string {
			return strings.TrimSpace(record[index[column]])
		}
		tx := dataset.RawTransaction{
			InvoiceNo:   get("InvoiceNo"),
			StockCode:   get("StockCode"),
			Description: get("Description"),
			InvoiceDate: get("InvoiceDate"),
			CustomerID:  get("CustomerID"),
			Country:     get("Country"),
		}
		if tx.Quantity, err = parseInt(get("Quantity")); err != nil {
			return nil, errors.Annotatef(err, "line %d", line)
		}
		if tx.UnitPrice, err = parseFloat(get("UnitPrice")); err != nil {
			return nil, errors.Annotatef(err, "line %d", line)
		}
		transactions = append(transactions, tx)
	}
	log.Logger().Debug("read csv", zap.Int("n_rows", len(transactions)))
	return transactions, nil
}

func parseInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v, nil
	}
	// integral floats such as "6.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return nil, errors.NotValidf("quantity %q", s)
	}
	v := int(f)
	return &v, nil
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.NotValidf("unit price %q", s)
	}
	return &v, nil
}
