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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/basketcf/basketcf/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

const retailCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,12/1/2010 8:26,2.55,17850.0,United Kingdom
C536379,D,Discount,-1,12/1/2010 9:41,27.5,14527.0,United Kingdom
536414,22139,,56,12/1/2010 11:52,0,,United Kingdom
`

func TestReadCSV(t *testing.T) {
	transactions, err := ReadCSV(context.Background(), strings.NewReader(retailCSV))
	assert.NoError(t, err)
	assert.Equal(t, []dataset.RawTransaction{
		{
			InvoiceNo:   "536365",
			StockCode:   "85123A",
			Description: "WHITE HANGING HEART T-LIGHT HOLDER",
			Quantity:    lo.ToPtr(6),
			InvoiceDate: "12/1/2010 8:26",
			UnitPrice:   lo.ToPtr(2.55),
			CustomerID:  "17850.0",
			Country:     "United Kingdom",
		},
		{
			InvoiceNo:   "C536379",
			StockCode:   "D",
			Description: "Discount",
			Quantity:    lo.ToPtr(-1),
			InvoiceDate: "12/1/2010 9:41",
			UnitPrice:   lo.ToPtr(27.5),
			CustomerID:  "14527.0",
			Country:     "United Kingdom",
		},
		{
			InvoiceNo:   "536414",
			StockCode:   "22139",
			Quantity:    lo.ToPtr(56),
			InvoiceDate: "12/1/2010 11:52",
			UnitPrice:   lo.ToPtr(0.0),
			Country:     "United Kingdom",
		},
	}, transactions)
}

func TestReadCSV_ColumnOrder(t *testing.T) {
	text := "Country,CustomerID,UnitPrice,InvoiceDate,Quantity,Description,StockCode,InvoiceNo\n" +
		"France,12345,1.5,2011-01-02 10:00:00,6.0,MUG,22000,540000\n"
	transactions, err := ReadCSV(context.Background(), strings.NewReader(text))
	assert.NoError(t, err)
	assert.Len(t, transactions, 1)
	assert.Equal(t, "540000", transactions[0].InvoiceNo)
	assert.Equal(t, "France", transactions[0].Country)
	assert.Equal(t, 6, *transactions[0].Quantity)
}

func TestReadCSV_Invalid(t *testing.T) {
	// missing columns
	_, err := ReadCSV(context.Background(), strings.NewReader("InvoiceNo,StockCode\n1,2\n"))
	assert.True(t, errors.Is(err, errors.NotValid))
	// bad quantity
	text := strings.Replace(retailCSV, ",6,", ",six,", 1)
	_, err = ReadCSV(context.Background(), strings.NewReader(text))
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.ErrorContains(t, err, "line 2")
	// fractional quantity
	text = strings.Replace(retailCSV, ",6,", ",6.5,", 1)
	_, err = ReadCSV(context.Background(), strings.NewReader(text))
	assert.True(t, errors.Is(err, errors.NotValid))
	// empty file
	transactions, err := ReadCSV(context.Background(), strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retail.csv")
	assert.NoError(t, os.WriteFile(path, []byte(retailCSV), 0644))
	source, err := Open(path, "")
	assert.NoError(t, err)
	defer source.Close()
	assert.IsType(t, &CSV{}, source)
	transactions, err := source.Load(context.Background())
	assert.NoError(t, err)
	assert.Len(t, transactions, 3)

	source, err = Open("file://"+path, "")
	assert.NoError(t, err)
	transactions, err = source.Load(context.Background())
	assert.NoError(t, err)
	assert.Len(t, transactions, 3)

	_, err = NewCSV(filepath.Join(t.TempDir(), "missing.csv")).Load(context.Background())
	assert.Error(t, err)
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open("clickhouse://localhost:9000/retail", "")
	assert.True(t, errors.Is(err, errors.NotSupported))
}
