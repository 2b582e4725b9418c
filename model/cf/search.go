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
	"context"
	"math"

	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/dataset"
	"github.com/basketcf/basketcf/model"
	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// SearchResult is the best trial of a hyper-parameter search.
type SearchResult struct {
	Params     model.Params
	Evaluation Evaluation
	Trials     int
}

// ModelSearch tunes rank, regularization and confidence scale by minimizing held-out RMSE.
type ModelSearch struct {
	params   model.Params
	trainSet *dataset.Matrix
	testSet  []dataset.EncodedInteraction
	config   *FitConfig
	result   SearchResult
}

func NewModelSearch(params model.Params, trainSet *dataset.Matrix, testSet []dataset.EncodedInteraction, config *FitConfig) *ModelSearch {
	if config == nil {
		config = NewFitConfig()
	}
	return &ModelSearch{
		params:   params,
		trainSet: trainSet,
		testSet:  testSet,
		config:   config,
	}
}

// SuggestParams samples ALS hyper-parameters for a trial.
func SuggestParams(trial goptuna.Trial) (model.Params, error) {
	nFactors, err := trial.SuggestInt(string(model.NFactors), 4, 64)
	if err != nil {
		return nil, errors.Trace(err)
	}
	reg, err := trial.SuggestLogFloat(string(model.Reg), 1e-3, 10)
	if err != nil {
		return nil, errors.Trace(err)
	}
	alpha, err := trial.SuggestLogFloat(string(model.Alpha), 1e-2, 100)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return model.Params{
		model.NFactors: nFactors,
		model.Reg:      reg,
		model.Alpha:    alpha,
	}, nil
}

// Objective fits a model with sampled hyper-parameters and returns its RMSE.
func (ms *ModelSearch) Objective(trial goptuna.Trial) (float64, error) {
	suggested, err := SuggestParams(trial)
	if err != nil {
		return 0, errors.Trace(err)
	}
	params := ms.params.Overwrite(suggested)
	m, _, err := NewALS(params).Fit(context.Background(), ms.trainSet, ms.config)
	if err != nil {
		log.Logger().Warn("model search trial failed", zap.Any("params", suggested), zap.Error(err))
		return math.MaxFloat64, nil
	}
	evaluation, err := EvaluateRMSE(m, ms.testSet, ms.config.Jobs)
	if err != nil {
		return 0, errors.Trace(err)
	}
	ms.result.Trials++
	log.Logger().Info("model search trial",
		zap.Any("params", suggested),
		zap.Float32("rmse", evaluation.RMSE),
		zap.Int("dropped", evaluation.Dropped))
	if math32.IsNaN(evaluation.RMSE) {
		return math.MaxFloat64, nil
	}
	if ms.result.Params == nil || evaluation.RMSE < ms.result.Evaluation.RMSE {
		ms.result.Params = params
		ms.result.Evaluation = evaluation
	}
	return float64(evaluation.RMSE), nil
}

// Result returns the best trial so far.
func (ms *ModelSearch) Result() SearchResult {
	return ms.result
}

// Optimize runs a TPE study with nTrials trials.
func (ms *ModelSearch) Optimize(nTrials int, seed int64) (SearchResult, error) {
	study, err := goptuna.CreateStudy("basketcf-als",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler(tpe.SamplerOptionSeed(seed))))
	if err != nil {
		return SearchResult{}, errors.Trace(err)
	}
	if err = study.Optimize(ms.Objective, nTrials); err != nil {
		return SearchResult{}, errors.Trace(err)
	}
	if ms.result.Params == nil {
		return ms.result, errors.New("no trial produced a finite RMSE")
	}
	return ms.result, nil
}
