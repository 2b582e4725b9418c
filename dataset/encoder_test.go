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
	"testing"

	"github.com/basketcf/basketcf/base"
	"github.com/stretchr/testify/assert"
)

func TestFreqDict(t *testing.T) {
	d := NewFreqDict([]string{"b", "a", "c", "c", "b", "c", "d"})
	assert.Equal(t, int32(4), d.Count())
	// descending frequency, ties by key
	for id, key := range []string{"c", "b", "a", "d"} {
		s, ok := d.String(int32(id))
		assert.True(t, ok)
		assert.Equal(t, key, s)
		assert.Equal(t, int32(id), d.Id(key))
	}
	assert.Equal(t, int32(-1), d.Id("e"))
	_, ok := d.String(4)
	assert.False(t, ok)
	_, ok = d.String(-1)
	assert.False(t, ok)
}

func TestEncoder(t *testing.T) {
	interactions, err := Aggregate(randomTransactions(0, 1000))
	assert.NoError(t, err)
	encoder := NewEncoder(interactions)
	encoded, skipped := encoder.Encode(interactions)
	assert.Zero(t, skipped)
	assert.Len(t, encoded, len(interactions))
	for i, interaction := range interactions {
		// decode(encode(key)) == key
		assert.Equal(t, interaction.CustomerKey, encoder.DecodeUser(encoded[i].UserId))
		assert.Equal(t, interaction.ItemKey, encoder.DecodeItem(encoded[i].ItemId))
		assert.Equal(t, interaction.Rating, encoded[i].Rating)
	}
	// encode(decode(id)) == id
	for id := int32(0); id < int32(encoder.CountUsers()); id++ {
		userId, err := encoder.EncodeUser(encoder.DecodeUser(id))
		assert.NoError(t, err)
		assert.Equal(t, id, userId)
	}
	for id := int32(0); id < int32(encoder.CountItems()); id++ {
		itemId, err := encoder.EncodeItem(encoder.DecodeItem(id))
		assert.NoError(t, err)
		assert.Equal(t, id, itemId)
	}
}

func TestEncoderUnknownKey(t *testing.T) {
	encoder := NewEncoder([]Interaction{{CustomerKey: "A", ItemKey: "1", Rating: 1}})
	_, err := encoder.EncodeUser("B")
	assert.ErrorIs(t, err, base.ErrUnknownKey)
	_, err = encoder.EncodeItem("2")
	assert.ErrorIs(t, err, base.ErrUnknownKey)
	assert.Panics(t, func() { encoder.DecodeUser(1) })
	assert.Panics(t, func() { encoder.DecodeItem(-1) })

	encoded, skipped := encoder.Encode([]Interaction{
		{CustomerKey: "A", ItemKey: "1", Rating: 2},
		{CustomerKey: "B", ItemKey: "1", Rating: 1},
		{CustomerKey: "A", ItemKey: "2", Rating: 1},
	})
	assert.Equal(t, 2, skipped)
	assert.Equal(t, []EncodedInteraction{{UserId: 0, ItemId: 0, Rating: 2}}, encoded)
}
