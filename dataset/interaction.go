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

	"github.com/basketcf/basketcf/base"
	"github.com/juju/errors"
)

// Interaction is the implicit rating of a customer for an item: the total purchased quantity.
type Interaction struct {
	CustomerKey string
	ItemKey     string
	Rating      float32
}

type interactionKey struct {
	customer string
	item     string
}

// Aggregate sums quantities per (customer, item). Quantities are summed as integers so the result
// does not depend on input order. Interactions are sorted by customer then item.
func Aggregate(txs []Transaction) ([]Interaction, error) {
	if len(txs) == 0 {
		return nil, errors.Annotate(base.ErrEmptyInput, "no transactions to aggregate")
	}
	sums := make(map[interactionKey]int64)
	for i, tx := range txs {
		if err := checkIntegrity(tx); err != nil {
			return nil, errors.Annotatef(err, "transaction %d (invoice %q)", i, tx.InvoiceNo)
		}
		sums[interactionKey{tx.CustomerKey, tx.ItemKey}] += int64(tx.Quantity)
	}
	interactions := make([]Interaction, 0, len(sums))
	for k, v := range sums {
		interactions = append(interactions, Interaction{CustomerKey: k.customer, ItemKey: k.item, Rating: float32(v)})
	}
	sort.Slice(interactions, func(i, j int) bool {
		if interactions[i].CustomerKey != interactions[j].CustomerKey {
			return interactions[i].CustomerKey < interactions[j].CustomerKey
		}
		return interactions[i].ItemKey < interactions[j].ItemKey
	})
	return interactions, nil
}

func checkIntegrity(tx Transaction) error {
	switch {
	case tx.CustomerKey == "":
		return errors.Annotate(base.ErrDataIntegrity, "missing customer")
	case tx.ItemKey == "":
		return errors.Annotate(base.ErrDataIntegrity, "missing stock code")
	case tx.Quantity <= 0:
		return errors.Annotatef(base.ErrDataIntegrity, "non-positive quantity %d", tx.Quantity)
	case IsCancellation(tx.InvoiceNo):
		return errors.Annotate(base.ErrDataIntegrity, "cancelled invoice")
	case tx.UnitPrice < 0:
		return errors.Annotatef(base.ErrDataIntegrity, "negative unit price %v", tx.UnitPrice)
	}
	return nil
}
