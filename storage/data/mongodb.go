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
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/dataset"
	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

// Mongo reads transactions from a collection. Documents are loosely typed: numbers may be stored
// as integers or doubles and dates as strings or BSON dates.
type Mongo struct {
	client     *mongo.Client
	dbName     string
	collection string
}

func OpenMongo(ctx context.Context, path, collection string) (*Mongo, error) {
	cs, err := connstring.ParseAndValidate(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	opts := options.Client()
	opts.Monitor = otelmongo.NewMonitor()
	opts.ApplyURI(path)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Mongo{client: client, dbName: cs.Database, collection: collection}, nil
}

func (m *Mongo) Load(ctx context.Context) ([]dataset.RawTransaction, error) {
	cursor, err := m.client.Database(m.dbName).Collection(m.collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer cursor.Close(ctx)
	var transactions []dataset.RawTransaction
	for cursor.Next(ctx) {
		var doc bson.M
		if err = cursor.Decode(&doc); err != nil {
			return nil, errors.Trace(err)
		}
		tx, err := decodeDocument(doc)
		if err != nil {
			return nil, errors.Annotatef(err, "document %v", doc["_id"])
		}
		transactions = append(transactions, tx)
	}
	if err = cursor.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Debug("read mongodb collection", zap.String("collection", m.collection), zap.Int("n_rows", len(transactions)))
	return transactions, nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

func decodeDocument(doc bson.M) (dataset.RawTransaction, error) {
	tx := dataset.RawTransaction{
		InvoiceNo:   bsonString(doc["InvoiceNo"]),
		StockCode:   bsonString(doc["StockCode"]),
		Description: bsonString(doc["Description"]),
		InvoiceDate: bsonString(doc["InvoiceDate"]),
		CustomerID:  bsonString(doc["CustomerID"]),
		Country:     bsonString(doc["Country"]),
	}
	if v, ok := bsonFloat(doc["Quantity"]); ok {
		if v != math.Trunc(v) {
			return tx, errors.NotValidf("quantity %v", v)
		}
		q := int(v)
		tx.Quantity = &q
	}
	if v, ok := bsonFloat(doc["UnitPrice"]); ok {
		tx.UnitPrice = &v
	}
	return tx, nil
}

func bsonString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case primitive.DateTime:
		return v.Time().UTC().Format(time.DateTime)
	default:
		return fmt.Sprint(v)
	}
}

func bsonFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, !math.IsNaN(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
