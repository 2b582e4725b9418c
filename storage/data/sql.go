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
	"strings"

	"github.com/XSAM/otelsql"
	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/dataset"
	"github.com/basketcf/basketcf/storage"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// sqlTransaction scans a row with nullable columns.
type sqlTransaction struct {
	InvoiceNo   *string  `gorm:"column:InvoiceNo"`
	StockCode   *string  `gorm:"column:StockCode"`
	Description *string  `gorm:"column:Description"`
	Quantity    *int     `gorm:"column:Quantity"`
	InvoiceDate *string  `gorm:"column:InvoiceDate"`
	UnitPrice   *float64 `gorm:"column:UnitPrice"`
	CustomerID  *string  `gorm:"column:CustomerID"`
	Country     *string  `gorm:"column:Country"`
}

func (row sqlTransaction) raw() dataset.RawTransaction {
	return dataset.RawTransaction{
		InvoiceNo:   lo.FromPtr(row.InvoiceNo),
		StockCode:   lo.FromPtr(row.StockCode),
		Description: lo.FromPtr(row.Description),
		Quantity:    row.Quantity,
		InvoiceDate: lo.FromPtr(row.InvoiceDate),
		UnitPrice:   row.UnitPrice,
		CustomerID:  lo.FromPtr(row.CustomerID),
		Country:     lo.FromPtr(row.Country),
	}
}

// SQL reads transactions from a table of MySQL, PostgreSQL or SQLite.
type SQL struct {
	client *sql.DB
	gormDB *gorm.DB
	table  string
}

func OpenSQL(path, table string) (*SQL, error) {
	var err error
	database := &SQL{table: table}
	switch {
	case strings.HasPrefix(path, storage.MySQLPrefix):
		name := path[len(storage.MySQLPrefix):]
		if name, err = storage.AppendMySQLParams(name, map[string]string{
			"parseTime": "false",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		if database.client, err = otelsql.Open("mysql", name,
			otelsql.WithAttributes(attribute.String("db.system", "mysql")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: database.client}), storage.NewGORMConfig())
	case strings.HasPrefix(path, storage.PostgresPrefix) || strings.HasPrefix(path, storage.PostgreSQLPrefix):
		if database.client, err = otelsql.Open("postgres", path,
			otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: database.client}), storage.NewGORMConfig())
	case strings.HasPrefix(path, storage.SQLitePrefix):
		if path, err = storage.AppendURLParams(path, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		name := path[len(storage.SQLitePrefix):]
		if database.client, err = otelsql.Open("sqlite", name,
			otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, storage.NewGORMConfig())
	default:
		return nil, errors.NotSupportedf("sql database %s", log.RedactDBURL(path))
	}
	if err != nil {
		_ = database.client.Close()
		return nil, errors.Trace(err)
	}
	return database, nil
}

func (d *SQL) Load(ctx context.Context) ([]dataset.RawTransaction, error) {
	var rows []sqlTransaction
	if err := d.gormDB.WithContext(ctx).Table(d.table).Find(&rows).Error; err != nil {
		return nil, errors.Annotatef(err, "load table %s", d.table)
	}
	transactions := lo.Map(rows, func(row sqlTransaction, _ int) dataset.RawTransaction {
		return row.raw()
	})
	log.Logger().Debug("read sql table", zap.String("table", d.table), zap.Int("n_rows", len(transactions)))
	return transactions, nil
}

func (d *SQL) Close() error {
	return d.client.Close()
}
