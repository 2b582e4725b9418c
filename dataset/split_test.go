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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	var interactions []EncodedInteraction
	for u := int32(0); u < 50; u++ {
		for i := int32(0); i < 40; i++ {
			interactions = append(interactions, EncodedInteraction{UserId: u, ItemId: i, Rating: 1})
		}
	}
	train, test := Split(interactions, 0.8, 42)
	assert.Equal(t, len(interactions), len(train)+len(test))
	assert.InDelta(t, 0.8, float64(len(train))/float64(len(interactions)), 0.05)

	// independent of input order
	shuffled := append([]EncodedInteraction(nil), interactions...)
	rand.New(rand.NewSource(0)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	train2, test2 := Split(shuffled, 0.8, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	// different seed, different split
	train3, _ := Split(interactions, 0.8, 7)
	assert.NotEqual(t, train, train3)

	// degenerate fractions
	train, test = Split(interactions, 1, 42)
	assert.Len(t, train, len(interactions))
	assert.Empty(t, test)
	train, test = Split(interactions, 0, 42)
	assert.Empty(t, train)
	assert.Len(t, test, len(interactions))
}

func TestMatrix(t *testing.T) {
	m := NewMatrix(3, 2, []EncodedInteraction{
		{UserId: 0, ItemId: 0, Rating: 3},
		{UserId: 0, ItemId: 1, Rating: 1},
		{UserId: 2, ItemId: 1, Rating: 2},
		{UserId: 3, ItemId: 1, Rating: 2},
	})
	assert.Equal(t, 3, m.CountUsers())
	assert.Equal(t, 2, m.CountItems())
	assert.Equal(t, 3, m.CountFeedback())
	assert.Equal(t, []Entry{{0, 3}, {1, 1}}, m.UserFeedback(0))
	assert.Empty(t, m.UserFeedback(1))
	assert.Equal(t, []Entry{{0, 1}, {2, 2}}, m.ItemFeedback(1))
}
