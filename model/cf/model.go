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

package cf

import (
	"github.com/basketcf/basketcf/base"
	"github.com/basketcf/basketcf/common/floats"
	"github.com/basketcf/basketcf/dataset"
	"github.com/basketcf/basketcf/model"
	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// Model holds fitted latent factors. A user or item is predictable if it had at least one
// training interaction; the factors of other rows are never fitted.
type Model struct {
	Params          model.Params
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet
	UserFactor      [][]float32 // p_u
	ItemFactor      [][]float32 // q_i
	nFactors        int
}

func newModel(params model.Params, nFactors int, userFactor, itemFactor *mat.Dense, trainSet *dataset.Matrix) (*Model, error) {
	m := &Model{
		Params:          params,
		nFactors:        nFactors,
		UserPredictable: bitset.New(uint(trainSet.CountUsers())),
		ItemPredictable: bitset.New(uint(trainSet.CountItems())),
		UserFactor:      make([][]float32, trainSet.CountUsers()),
		ItemFactor:      make([][]float32, trainSet.CountItems()),
	}
	for userId := range m.UserFactor {
		m.UserFactor[userId] = floats.Float32s(userFactor.RawRowView(userId))
		if !floats.Finite(m.UserFactor[userId]) {
			return nil, errors.Annotatef(base.ErrConvergenceFailure, "user %d has non-finite factors", userId)
		}
		if len(trainSet.UserFeedback(userId)) > 0 {
			m.UserPredictable.Set(uint(userId))
		}
	}
	for itemId := range m.ItemFactor {
		m.ItemFactor[itemId] = floats.Float32s(itemFactor.RawRowView(itemId))
		if !floats.Finite(m.ItemFactor[itemId]) {
			return nil, errors.Annotatef(base.ErrConvergenceFailure, "item %d has non-finite factors", itemId)
		}
		if len(trainSet.ItemFeedback(itemId)) > 0 {
			m.ItemPredictable.Set(uint(itemId))
		}
	}
	return m, nil
}

// Rank returns the length of latent factors.
func (m *Model) Rank() int {
	return m.nFactors
}

func (m *Model) CountUsers() int {
	return len(m.UserFactor)
}

func (m *Model) CountItems() int {
	return len(m.ItemFactor)
}

// IsUserPredictable returns false if user has no feedback and its embedding vector never be trained.
func (m *Model) IsUserPredictable(userId int32) bool {
	if userId < 0 || int(userId) >= len(m.UserFactor) {
		return false
	}
	return m.UserPredictable.Test(uint(userId))
}

// IsItemPredictable returns false if item has no feedback and its embedding vector never be trained.
func (m *Model) IsItemPredictable(itemId int32) bool {
	if itemId < 0 || int(itemId) >= len(m.ItemFactor) {
		return false
	}
	return m.ItemPredictable.Test(uint(itemId))
}

// GetUserFactor returns the latent factor of a user.
func (m *Model) GetUserFactor(userId int32) []float32 {
	return m.UserFactor[userId]
}

// GetItemFactor returns the latent factor of an item.
func (m *Model) GetItemFactor(itemId int32) []float32 {
	return m.ItemFactor[itemId]
}

// Predict returns the affinity of a user for an item.
func (m *Model) Predict(userId, itemId int32) float32 {
	return floats.Dot(m.UserFactor[userId], m.ItemFactor[itemId])
}
