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

package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func newMockRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	db, err := Open("redis://" + server.Addr())
	assert.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db, server
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	db, server := newMockRedis(t)
	assert.NoError(t, db.Ping(ctx))

	err := db.SetRecommendations(ctx, map[string][]Score{
		"17850": {{Id: "85123A", Score: 0.9}, {Id: "71053", Score: 0.7}},
		"13047": {{Id: "22633", Score: 0.4}},
	})
	assert.NoError(t, err)
	assert.True(t, server.Exists("recommend/17850"))

	scores, err := db.GetRecommendations(ctx, "17850")
	assert.NoError(t, err)
	assert.Equal(t, []Score{{Id: "85123A", Score: 0.9}, {Id: "71053", Score: 0.7}}, scores)

	// replace
	err = db.SetRecommendations(ctx, map[string][]Score{
		"17850": {{Id: "22633", Score: 0.5}},
	})
	assert.NoError(t, err)
	scores, err = db.GetRecommendations(ctx, "17850")
	assert.NoError(t, err)
	assert.Equal(t, []Score{{Id: "22633", Score: 0.5}}, scores)

	// missing
	scores, err = db.GetRecommendations(ctx, "00000")
	assert.NoError(t, err)
	assert.Empty(t, scores)
}

func TestOpen(t *testing.T) {
	_, err := Open("memcached://localhost:11211")
	assert.True(t, errors.Is(err, errors.NotSupported))
}
