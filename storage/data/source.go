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
	"strings"

	"github.com/basketcf/basketcf/dataset"
	"github.com/basketcf/basketcf/storage"
	"github.com/juju/errors"
)

// DefaultTable is the table or collection holding transactions.
const DefaultTable = "transactions"

// Source reads the raw transaction table.
type Source interface {
	Load(ctx context.Context) ([]dataset.RawTransaction, error)
	Close() error
}

// Open creates a source from a URL. SQL databases and MongoDB are selected by scheme, anything
// else is treated as the path of a CSV file.
func Open(path, table string) (Source, error) {
	if table == "" {
		table = DefaultTable
	}
	switch {
	case storage.IsSQL(path):
		return OpenSQL(path, table)
	case storage.IsMongo(path):
		return OpenMongo(context.Background(), path, table)
	case strings.Contains(path, "://") && !strings.HasPrefix(path, "file://"):
		return nil, errors.NotSupportedf("input source %s", path)
	}
	return NewCSV(strings.TrimPrefix(path, "file://")), nil
}
