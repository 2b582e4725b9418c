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

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/basketcf/basketcf/base"
	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/dataset"
	"github.com/basketcf/basketcf/logics"
	"github.com/basketcf/basketcf/model/cf"
	"github.com/basketcf/basketcf/storage/cache"
	"github.com/juju/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageAggregate = "aggregate"
	StageEncode    = "encode"
	StageSplit     = "split"
	StageFit       = "fit"
	StageEvaluate  = "evaluate"
	StageRecommend = "recommend"
	StagePublish   = "publish"
)

const topCustomers = 10

// StageError reports the stage where a run failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result holds the outputs of every stage completed by a run.
type Result struct {
	RunId           string
	Summary         dataset.Summary
	CleanReport     dataset.CleanReport
	TopCustomers    []dataset.CustomerSpend
	Interactions    int
	Encoder         *dataset.Encoder
	TrainSize       int
	TestSize        int
	Model           *cf.Model
	FitResult       cf.FitResult
	Evaluation      *cf.Evaluation
	Recommendations []logics.UserRecommendations
	Rows            []logics.Row
	OutputPath      string

	txs          []dataset.Transaction
	interactions []dataset.Interaction
	trainSet     *dataset.Matrix
	testSet      []dataset.EncodedInteraction
}

// stage runs a step inside an otel span and a progress span, and records its duration.
func (s *Session) stage(ctx context.Context, name string, f func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	ctx, p := s.Tracer.Start(ctx, name, 1)
	start := time.Now()
	err := f(ctx)
	StageSecondsVec.WithLabelValues(name).Set(time.Since(start).Seconds())
	if err != nil {
		p.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Logger().Error("stage failed", zap.String("stage", name), zap.Error(err))
		return &StageError{Stage: name, Err: err}
	}
	p.End()
	log.Logger().Info("stage complete", zap.String("stage", name), zap.Duration("duration", time.Since(start)))
	return nil
}

// prepare runs the stages shared by Run and Tune: load, clean, aggregate, encode and split.
func (s *Session) prepare(ctx context.Context, result *Result) error {
	var raw []dataset.RawTransaction
	if err := s.stage(ctx, StageLoad, func(ctx context.Context) (err error) {
		if raw, err = s.source.Load(ctx); err != nil {
			return errors.Trace(err)
		}
		result.Summary = dataset.Summarize(raw)
		RowsVec.WithLabelValues("raw").Set(float64(len(raw)))
		return nil
	}); err != nil {
		return err
	}

	if err := s.stage(ctx, StageClean, func(ctx context.Context) (err error) {
		var opts []dataset.CleanOption
		if s.filter != nil {
			opts = append(opts, dataset.WithFilter(s.filter))
		}
		if result.txs, result.CleanReport, err = dataset.Clean(raw, opts...); err != nil {
			return errors.Trace(err)
		}
		result.TopCustomers = dataset.TopCustomers(result.txs, topCustomers)
		RowsVec.WithLabelValues("clean").Set(float64(result.CleanReport.Kept))
		RowsVec.WithLabelValues("dropped").Set(float64(result.CleanReport.Dropped()))
		return nil
	}); err != nil {
		return err
	}

	if err := s.stage(ctx, StageAggregate, func(ctx context.Context) (err error) {
		if result.interactions, err = dataset.Aggregate(result.txs); err != nil {
			return errors.Trace(err)
		}
		result.Interactions = len(result.interactions)
		RowsVec.WithLabelValues("interactions").Set(float64(result.Interactions))
		return nil
	}); err != nil {
		return err
	}

	var encoded []dataset.EncodedInteraction
	if err := s.stage(ctx, StageEncode, func(ctx context.Context) error {
		result.Encoder = dataset.NewEncoder(result.interactions)
		var skipped int
		encoded, skipped = result.Encoder.Encode(result.interactions)
		if skipped > 0 {
			return errors.Annotatef(base.ErrUnknownKey, "%d interactions", skipped)
		}
		UsersTotal.Set(float64(result.Encoder.CountUsers()))
		ItemsTotal.Set(float64(result.Encoder.CountItems()))
		return nil
	}); err != nil {
		return err
	}

	return s.stage(ctx, StageSplit, func(ctx context.Context) error {
		train, test := dataset.Split(encoded, s.Config.Split.TrainFraction, s.Config.Model.Seed)
		result.trainSet = dataset.NewMatrix(result.Encoder.CountUsers(), result.Encoder.CountItems(), train)
		result.testSet = test
		result.TrainSize, result.TestSize = len(train), len(test)
		RowsVec.WithLabelValues("train").Set(float64(len(train)))
		RowsVec.WithLabelValues("test").Set(float64(len(test)))
		return nil
	})
}

// Run executes all stages. On failure the returned result carries the outputs of the stages
// completed before the failing one, and the error is a *StageError.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "run")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", s.RunId))
	result := &Result{RunId: s.RunId}
	if err := s.prepare(ctx, result); err != nil {
		return result, err
	}

	if err := s.stage(ctx, StageFit, func(ctx context.Context) error {
		als := cf.NewALS(s.Config.Model.GetParams())
		m, fitResult, err := als.Fit(ctx, result.trainSet, s.Config.Model.GetFitConfig())
		// A cancelled fit still returns the factors of its last completed sweep.
		result.Model, result.FitResult = m, fitResult
		FitEpochs.Set(float64(fitResult.Epochs))
		if len(fitResult.Loss) > 0 {
			FitLoss.Set(fitResult.Loss[len(fitResult.Loss)-1])
		}
		return errors.Trace(err)
	}); err != nil {
		return result, err
	}

	if err := s.stage(ctx, StageEvaluate, func(ctx context.Context) error {
		evaluation, err := cf.EvaluateRMSE(result.Model, result.testSet, s.Config.Model.Jobs)
		if err != nil {
			return errors.Trace(err)
		}
		result.Evaluation = &evaluation
		EvaluationRMSE.Set(float64(evaluation.RMSE))
		EvaluationDroppedTotal.Set(float64(evaluation.Dropped))
		return nil
	}); err != nil {
		return result, err
	}

	if err := s.stage(ctx, StageRecommend, func(ctx context.Context) (err error) {
		recommender := logics.NewRecommender(result.Model, result.Encoder,
			dataset.Descriptions(result.txs), s.Config.Recommend.TopK)
		if result.Recommendations, err = recommender.RecommendAll(ctx, s.Config.Model.Jobs); err != nil {
			return errors.Trace(err)
		}
		result.Rows = recommender.Rows()
		RecommendationsTotal.Set(float64(len(result.Rows)))
		return nil
	}); err != nil {
		return result, err
	}

	if err := s.stage(ctx, StagePublish, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.Config.Output.Timeout)
		defer cancel()
		if err := Publish(ctx, s.store, s.Config.Output.Path, result.Rows); err != nil {
			return errors.Annotatef(err, "publish %s", s.Config.Output.Path)
		}
		result.OutputPath = s.Config.Output.Path
		if s.cache != nil {
			if err := s.cache.SetRecommendations(ctx, cacheScores(result.Rows)); err != nil {
				return errors.Annotate(err, "publish recommendations to redis")
			}
		}
		return nil
	}); err != nil {
		return result, err
	}
	return result, nil
}

func cacheScores(rows []logics.Row) map[string][]cache.Score {
	scores := make(map[string][]cache.Score)
	for _, row := range rows {
		scores[row.CustomerID] = append(scores[row.CustomerID], cache.Score{
			Id:    row.StockCode,
			Score: float64(row.PredictedScore),
		})
	}
	return scores
}

// Tune searches ALS hyper-parameters on the train/test split of the input.
func (s *Session) Tune(ctx context.Context) (*Result, cf.SearchResult, error) {
	ctx, span := s.tracer.Start(ctx, "tune")
	defer span.End()
	result := &Result{RunId: s.RunId}
	if err := s.prepare(ctx, result); err != nil {
		return result, cf.SearchResult{}, err
	}
	var searchResult cf.SearchResult
	err := s.stage(ctx, StageFit, func(ctx context.Context) (err error) {
		search := cf.NewModelSearch(s.Config.Model.GetParams(), result.trainSet, result.testSet,
			s.Config.Model.GetFitConfig())
		searchResult, err = search.Optimize(s.Config.Tune.Trials, s.Config.Model.Seed)
		return errors.Trace(err)
	})
	return result, searchResult, err
}
