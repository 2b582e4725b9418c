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

// FreqDict is a frozen dictionary between keys and dense ids. Ids are assigned by descending
// frequency, ties by ascending key.
type FreqDict struct {
	si map[string]int32
	is []string
}

// NewFreqDict builds a dictionary from key occurrences.
func NewFreqDict(keys []string) *FreqDict {
	counts := make(map[string]int)
	for _, key := range keys {
		counts[key]++
	}
	d := &FreqDict{
		si: make(map[string]int32, len(counts)),
		is: make([]string, 0, len(counts)),
	}
	for key := range counts {
		d.is = append(d.is, key)
	}
	sort.Slice(d.is, func(i, j int) bool {
		if counts[d.is[i]] != counts[d.is[j]] {
			return counts[d.is[i]] > counts[d.is[j]]
		}
		return d.is[i] < d.is[j]
	})
	for i, key := range d.is {
		d.si[key] = int32(i)
	}
	return d
}

func (d *FreqDict) Count() int32 {
	return int32(len(d.is))
}

// Id returns the id of a key or -1 if the key is unknown.
func (d *FreqDict) Id(s string) int32 {
	if y, ok := d.si[s]; ok {
		return y
	}
	return -1
}

func (d *FreqDict) String(id int32) (s string, ok bool) {
	if id < 0 || int(id) >= len(d.is) {
		return "", false
	}
	return d.is[id], true
}

// Encoder maps customer and item keys to dense ids. It is built once per run and is read-only
// afterwards, so it can be shared between goroutines.
type Encoder struct {
	users *FreqDict
	items *FreqDict
}

// NewEncoder builds independent user and item dictionaries from interactions.
func NewEncoder(interactions []Interaction) *Encoder {
	users := make([]string, len(interactions))
	items := make([]string, len(interactions))
	for i, interaction := range interactions {
		users[i] = interaction.CustomerKey
		items[i] = interaction.ItemKey
	}
	return &Encoder{users: NewFreqDict(users), items: NewFreqDict(items)}
}

func (e *Encoder) CountUsers() int {
	return int(e.users.Count())
}

func (e *Encoder) CountItems() int {
	return int(e.items.Count())
}

// EncodeUser returns the id of a customer key.
func (e *Encoder) EncodeUser(key string) (int32, error) {
	if id := e.users.Id(key); id >= 0 {
		return id, nil
	}
	return -1, errors.Annotatef(base.ErrUnknownKey, "customer %q", key)
}

// EncodeItem returns the id of a stock code.
func (e *Encoder) EncodeItem(key string) (int32, error) {
	if id := e.items.Id(key); id >= 0 {
		return id, nil
	}
	return -1, errors.Annotatef(base.ErrUnknownKey, "stock code %q", key)
}

// DecodeUser returns the customer key of an id. It panics if the id is out of range.
func (e *Encoder) DecodeUser(id int32) string {
	key, ok := e.users.String(id)
	if !ok {
		panic(errors.Errorf("user id %d out of range [0, %d)", id, e.users.Count()))
	}
	return key
}

// DecodeItem returns the stock code of an id. It panics if the id is out of range.
func (e *Encoder) DecodeItem(id int32) string {
	key, ok := e.items.String(id)
	if !ok {
		panic(errors.Errorf("item id %d out of range [0, %d)", id, e.items.Count()))
	}
	return key
}

// EncodedInteraction is an interaction in dense id space.
type EncodedInteraction struct {
	UserId int32
	ItemId int32
	Rating float32
}

// Encode maps interactions to dense ids. Interactions with a key unknown to the encoder are
// skipped and counted.
func (e *Encoder) Encode(interactions []Interaction) ([]EncodedInteraction, int) {
	encoded := make([]EncodedInteraction, 0, len(interactions))
	skipped := 0
	for _, interaction := range interactions {
		userId, err := e.EncodeUser(interaction.CustomerKey)
		if err != nil {
			skipped++
			continue
		}
		itemId, err := e.EncodeItem(interaction.ItemKey)
		if err != nil {
			skipped++
			continue
		}
		encoded = append(encoded, EncodedInteraction{UserId: userId, ItemId: itemId, Rating: interaction.Rating})
	}
	return encoded, skipped
}
