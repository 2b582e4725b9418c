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
	"strings"

	"github.com/basketcf/basketcf/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// RecommendPrefix is the key prefix of per customer recommendation sets.
const RecommendPrefix = "recommend/"

type Score struct {
	Id    string
	Score float64
}

// Redis stores recommendations of each customer in a sorted set.
type Redis struct {
	client redis.UniversalClient
}

func Open(path string) (*Redis, error) {
	if !strings.HasPrefix(path, storage.RedisPrefix) && !strings.HasPrefix(path, storage.RedissPrefix) {
		return nil, errors.NotSupportedf("cache %s", path)
	}
	opt, err := redis.ParseURL(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	client := redis.NewClient(opt)
	if err = redisotel.InstrumentTracing(client); err != nil {
		return nil, errors.Trace(err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	return errors.Trace(r.client.Ping(ctx).Err())
}

func Key(customerID string) string {
	return RecommendPrefix + customerID
}

// SetRecommendations replaces the recommendations of customers. Each set is replaced inside a
// transaction so readers never see a partial set.
func (r *Redis) SetRecommendations(ctx context.Context, recommendations map[string][]Score) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for customer, scores := range recommendations {
			key := Key(customer)
			pipe.Del(ctx, key)
			if len(scores) == 0 {
				continue
			}
			pipe.ZAdd(ctx, key, lo.Map(scores, func(s Score, _ int) redis.Z {
				return redis.Z{Member: s.Id, Score: s.Score}
			})...)
		}
		return nil
	})
	return errors.Trace(err)
}

// GetRecommendations returns the recommendations of a customer in descending score order.
func (r *Redis) GetRecommendations(ctx context.Context, customerID string) ([]Score, error) {
	members, err := r.client.ZRevRangeWithScores(ctx, Key(customerID), 0, -1).Result()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(members, func(z redis.Z, _ int) Score {
		return Score{Id: z.Member.(string), Score: z.Score}
	}), nil
}
