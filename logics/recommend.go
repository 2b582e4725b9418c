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

package logics

import (
	"context"
	"fmt"
	"time"

	"github.com/basketcf/basketcf/base/progress"
	"github.com/basketcf/basketcf/common/floats"
	"github.com/basketcf/basketcf/common/heap"
	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/common/parallel"
	"github.com/basketcf/basketcf/dataset"
	"github.com/basketcf/basketcf/model/cf"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Score is a recommended item with its predicted affinity.
type Score struct {
	ItemId int32
	Score  float32
}

// UserRecommendations are the top scored items of a user in descending score order.
type UserRecommendations struct {
	UserId int32
	Scores []Score
}

// Row is one line of the recommendation output.
type Row struct {
	CustomerID     string
	StockCode      string
	Description    string
	PredictedScore float32
}

type Recommender struct {
	model        *cf.Model
	encoder      *dataset.Encoder
	descriptions map[string]string
	topK         int

	users []int32
	items []int32
	recs  []UserRecommendations
}

func NewRecommender(m *cf.Model, encoder *dataset.Encoder, descriptions map[string]string, topK int) *Recommender {
	r := &Recommender{
		model:        m,
		encoder:      encoder,
		descriptions: descriptions,
		topK:         topK,
	}
	for userId := 0; userId < m.CountUsers(); userId++ {
		if m.IsUserPredictable(int32(userId)) {
			r.users = append(r.users, int32(userId))
		}
	}
	for itemId := 0; itemId < m.CountItems(); itemId++ {
		if m.IsItemPredictable(int32(itemId)) {
			r.items = append(r.items, int32(itemId))
		}
	}
	return r
}

// Recommend scores every predictable item for a user. Items the user already bought are kept.
func (r *Recommender) Recommend(userId int32) ([]Score, error) {
	if !r.model.IsUserPredictable(userId) {
		return nil, errors.NotFoundf("factors of user %d", userId)
	}
	filter := heap.NewTopKFilter[int32, float32](r.topK)
	userFactor := r.model.GetUserFactor(userId)
	for _, itemId := range r.items {
		filter.Push(itemId, floats.Dot(userFactor, r.model.GetItemFactor(itemId)))
	}
	return lo.Map(filter.PopAll(), func(e heap.Elem[int32, float32], _ int) Score {
		return Score{ItemId: e.Value, Score: e.Weight}
	}), nil
}

// RecommendAll generates recommendations for every predictable user. Users are processed
// in ascending id order and results keep that order.
func (r *Recommender) RecommendAll(ctx context.Context, jobs int) ([]UserRecommendations, error) {
	startTime := time.Now()
	_, span := progress.Start(ctx, "Recommend", len(r.users))
	defer span.End()
	recs := make([]UserRecommendations, len(r.users))
	var completed atomic.Int64
	err := parallel.Parallel(ctx, len(r.users), jobs, func(_, jobId int) error {
		userId := r.users[jobId]
		scores, err := r.Recommend(userId)
		if err != nil {
			return errors.Trace(err)
		}
		recs[jobId] = UserRecommendations{UserId: userId, Scores: scores}
		span.Add(1)
		if n := completed.Inc(); n%1000 == 0 {
			log.Logger().Debug(fmt.Sprintf("recommend %v/%v", n, len(r.users)))
		}
		return nil
	})
	if err != nil {
		span.Fail(err)
		return nil, errors.Annotate(err, "recommend")
	}
	r.recs = recs
	log.Logger().Info("complete generating recommendation",
		zap.Int("n_users", len(r.users)),
		zap.Int("n_items", len(r.items)),
		zap.Int("top_k", r.topK),
		zap.Duration("used_time", time.Since(startTime)))
	return recs, nil
}

// Rows denormalizes the last RecommendAll result into output rows.
func (r *Recommender) Rows() []Row {
	var rows []Row
	for _, rec := range r.recs {
		customerID := r.encoder.DecodeUser(rec.UserId)
		for _, score := range rec.Scores {
			stockCode := r.encoder.DecodeItem(score.ItemId)
			rows = append(rows, Row{
				CustomerID:     customerID,
				StockCode:      stockCode,
				Description:    r.descriptions[stockCode],
				PredictedScore: score.Score,
			})
		}
	}
	return rows
}
