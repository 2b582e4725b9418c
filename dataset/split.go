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
)

// Split assigns each interaction to the train set with probability trainFraction. Interactions
// are ordered by (user, item) before sampling so the split depends only on the seed.
func Split(interactions []EncodedInteraction, trainFraction float64, seed int64) (train, test []EncodedInteraction) {
	sorted := make([]EncodedInteraction, len(interactions))
	copy(sorted, interactions)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].UserId != sorted[j].UserId {
			return sorted[i].UserId < sorted[j].UserId
		}
		return sorted[i].ItemId < sorted[j].ItemId
	})
	rng := base.NewRandomGenerator(seed)
	for _, interaction := range sorted {
		if rng.Float64() < trainFraction {
			train = append(train, interaction)
		} else {
			test = append(test, interaction)
		}
	}
	return
}

// Entry is an observed rating in a row of the interaction matrix.
type Entry struct {
	Index  int32
	Rating float32
}

// Matrix is a sparse user-item matrix indexed both by user and by item.
type Matrix struct {
	numUsers     int
	numItems     int
	numFeedback  int
	userFeedback [][]Entry
	itemFeedback [][]Entry
}

// NewMatrix builds a sparse matrix of the given shape. Ids out of shape are ignored.
func NewMatrix(numUsers, numItems int, interactions []EncodedInteraction) *Matrix {
	m := &Matrix{
		numUsers:     numUsers,
		numItems:     numItems,
		userFeedback: make([][]Entry, numUsers),
		itemFeedback: make([][]Entry, numItems),
	}
	for _, interaction := range interactions {
		if interaction.UserId < 0 || int(interaction.UserId) >= numUsers ||
			interaction.ItemId < 0 || int(interaction.ItemId) >= numItems {
			continue
		}
		m.userFeedback[interaction.UserId] = append(m.userFeedback[interaction.UserId], Entry{interaction.ItemId, interaction.Rating})
		m.itemFeedback[interaction.ItemId] = append(m.itemFeedback[interaction.ItemId], Entry{interaction.UserId, interaction.Rating})
		m.numFeedback++
	}
	return m
}

func (m *Matrix) CountUsers() int {
	return m.numUsers
}

func (m *Matrix) CountItems() int {
	return m.numItems
}

func (m *Matrix) CountFeedback() int {
	return m.numFeedback
}

func (m *Matrix) UserFeedback(userId int) []Entry {
	return m.userFeedback[userId]
}

func (m *Matrix) ItemFeedback(itemId int) []Entry {
	return m.itemFeedback[itemId]
}
