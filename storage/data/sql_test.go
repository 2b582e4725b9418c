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
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/basketcf/basketcf/dataset"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type SQLiteTestSuite struct {
	suite.Suite
	path string
}

func (suite *SQLiteTestSuite) SetupTest() {
	suite.path = filepath.Join(suite.T().TempDir(), "retail.db")
	db, err := sql.Open("sqlite", suite.path)
	suite.NoError(err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE online_retail (
		InvoiceNo TEXT, StockCode TEXT, Description TEXT, Quantity INTEGER,
		InvoiceDate TEXT, UnitPrice REAL, CustomerID REAL, Country TEXT)`)
	suite.NoError(err)
	_, err = db.Exec(`INSERT INTO online_retail VALUES
		('536365', '85123A', 'WHITE HANGING HEART T-LIGHT HOLDER', 6, '2010-12-01 08:26:00', 2.55, 17850.0, 'United Kingdom'),
		('536414', '22139', NULL, 56, '2010-12-01 11:52:00', 0, NULL, 'United Kingdom'),
		('536415', '22140', 'MUG', NULL, '2010-12-01 11:53:00', NULL, 12345.0, NULL)`)
	suite.NoError(err)
}

func (suite *SQLiteTestSuite) TestLoad() {
	source, err := Open("sqlite://"+suite.path, "online_retail")
	suite.NoError(err)
	defer func() {
		suite.NoError(source.Close())
	}()
	suite.IsType(&SQL{}, source)
	transactions, err := source.Load(context.Background())
	suite.NoError(err)
	suite.Equal([]dataset.RawTransaction{
		{
			InvoiceNo:   "536365",
			StockCode:   "85123A",
			Description: "WHITE HANGING HEART T-LIGHT HOLDER",
			Quantity:    lo.ToPtr(6),
			InvoiceDate: "2010-12-01 08:26:00",
			UnitPrice:   lo.ToPtr(2.55),
			CustomerID:  "17850",
			Country:     "United Kingdom",
		},
		{
			InvoiceNo:   "536414",
			StockCode:   "22139",
			Quantity:    lo.ToPtr(56),
			InvoiceDate: "2010-12-01 11:52:00",
			UnitPrice:   lo.ToPtr(0.0),
			Country:     "United Kingdom",
		},
		{
			InvoiceNo:   "536415",
			StockCode:   "22140",
			Description: "MUG",
			InvoiceDate: "2010-12-01 11:53:00",
			CustomerID:  "12345",
		},
	}, transactions)

	// cleaned rows keep only complete purchases
	cleaned, report, err := dataset.Clean(transactions)
	suite.NoError(err)
	suite.Len(cleaned, 1)
	suite.Equal("17850", cleaned[0].CustomerKey)
	suite.Equal(1, report.MissingCustomer)
	suite.Equal(1, report.MissingQuantity)
}

func (suite *SQLiteTestSuite) TestMissingTable() {
	source, err := Open("sqlite://"+suite.path, "")
	suite.NoError(err)
	defer source.Close()
	_, err = source.Load(context.Background())
	suite.Error(err)
}

func TestSQLite(t *testing.T) {
	suite.Run(t, new(SQLiteTestSuite))
}

func TestOpenSQL_Unsupported(t *testing.T) {
	_, err := OpenSQL("oracle://localhost", DefaultTable)
	assert.Error(t, err)
}
