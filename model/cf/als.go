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
	"fmt"
	"math"
	"time"

	"github.com/basketcf/basketcf/base"
	"github.com/basketcf/basketcf/base/progress"
	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/common/parallel"
	"github.com/basketcf/basketcf/dataset"
	"github.com/basketcf/basketcf/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

type FitConfig struct {
	Jobs    int
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 1,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

// FitResult describes a training run.
type FitResult struct {
	Epochs    int       // completed sweeps
	Loss      []float64 // objective after each completed sweep
	Delta     float64   // max absolute factor change of the last sweep
	Converged bool      // factor change fell below tolerance
	Cancelled bool      // context was cancelled at a sweep boundary
}

// ALS fits implicit feedback by alternating least squares [Hu, Koren and Volinsky, 2008]. The
// confidence of an observed rating r is 1 + alpha * r and its preference is 1. Unobserved pairs
// have confidence 1 and preference 0.
type ALS struct {
	model.BaseModel
	// Hyper parameters
	nFactors   int
	nEpochs    int
	reg        float64
	alpha      float64
	initMean   float64
	initStdDev float64
	tolerance  float64
}

// NewALS creates an ALS model.
func NewALS(params model.Params) *ALS {
	als := new(ALS)
	als.SetParams(params)
	return als
}

// SetParams sets hyper-parameters for the ALS model.
func (als *ALS) SetParams(params model.Params) {
	als.BaseModel.SetParams(params)
	als.nFactors = als.Params.GetInt(model.NFactors, 20)
	als.nEpochs = als.Params.GetInt(model.NEpochs, 10)
	als.reg = als.Params.GetFloat64(model.Reg, 0.1)
	als.alpha = als.Params.GetFloat64(model.Alpha, 1.0)
	als.initMean = als.Params.GetFloat64(model.InitMean, 0)
	als.initStdDev = als.Params.GetFloat64(model.InitStdDev, 0.01)
	als.tolerance = als.Params.GetFloat64(model.Tolerance, 1e-6)
}

// Fit the ALS model. Cancellation is only observed between sweeps: a cancelled fit returns the
// factors of the last completed sweep together with the context error.
func (als *ALS) Fit(ctx context.Context, trainSet *dataset.Matrix, config *FitConfig) (*Model, FitResult, error) {
	var result FitResult
	if config == nil {
		config = NewFitConfig()
	}
	if trainSet.CountFeedback() == 0 || trainSet.CountUsers() == 0 || trainSet.CountItems() == 0 {
		return nil, result, errors.Annotate(base.ErrEmptyInput, "no interactions to fit")
	}
	if als.nFactors <= 0 || als.nEpochs < 0 || als.reg <= 0 || als.alpha < 0 {
		return nil, result, errors.NotValidf("ALS params %v", als.GetParams())
	}
	log.Logger().Info("fit als",
		zap.Int("n_users", trainSet.CountUsers()),
		zap.Int("n_items", trainSet.CountItems()),
		zap.Int("train_set_size", trainSet.CountFeedback()),
		zap.Any("params", als.GetParams()),
		zap.Any("config", config))

	rng := als.GetRandomGenerator()
	userFactor := mat.NewDense(trainSet.CountUsers(), als.nFactors,
		rng.NormalMatrix64(trainSet.CountUsers(), als.nFactors, als.initMean, als.initStdDev))
	itemFactor := mat.NewDense(trainSet.CountItems(), als.nFactors,
		rng.NormalMatrix64(trainSet.CountItems(), als.nFactors, als.initMean, als.initStdDev))

	_, span := progress.Start(ctx, "ALS.Fit", als.nEpochs)
	defer span.End()
	for ep := 1; ep <= als.nEpochs; ep++ {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			span.Fail(err)
			m, mErr := newModel(als.GetParams(), als.nFactors, userFactor, itemFactor, trainSet)
			if mErr != nil {
				return nil, result, errors.Trace(mErr)
			}
			log.Logger().Warn("fit als cancelled", zap.Int("completed_epochs", result.Epochs))
			return m, result, errors.Annotatef(err, "fit als cancelled after %d epochs", result.Epochs)
		}
		fitStart := time.Now()
		// user step
		newUserFactor, err := als.solve(itemFactor, trainSet.CountUsers(), trainSet.UserFeedback, config.Jobs)
		if err != nil {
			span.Fail(err)
			return nil, result, errors.Annotatef(err, "user step of epoch %d", ep)
		}
		// item step
		newItemFactor, err := als.solve(newUserFactor, trainSet.CountItems(), trainSet.ItemFeedback, config.Jobs)
		if err != nil {
			span.Fail(err)
			return nil, result, errors.Annotatef(err, "item step of epoch %d", ep)
		}
		result.Delta = math.Max(maxAbsDiff(userFactor, newUserFactor), maxAbsDiff(itemFactor, newItemFactor))
		userFactor, itemFactor = newUserFactor, newItemFactor
		loss := Loss(userFactor, itemFactor, trainSet, als.alpha, als.reg)
		result.Loss = append(result.Loss, loss)
		result.Epochs = ep
		span.Add(1)
		if config.Verbose > 0 && (ep%config.Verbose == 0 || ep == als.nEpochs) {
			log.Logger().Debug(fmt.Sprintf("fit als %v/%v", ep, als.nEpochs),
				zap.String("fit_time", time.Since(fitStart).String()),
				zap.Float64("loss", loss),
				zap.Float64("delta", result.Delta))
		}
		if result.Delta < als.tolerance {
			result.Converged = true
			break
		}
	}

	m, err := newModel(als.GetParams(), als.nFactors, userFactor, itemFactor, trainSet)
	if err != nil {
		span.Fail(err)
		return nil, result, errors.Trace(err)
	}
	log.Logger().Info("fit als complete",
		zap.Int("epochs", result.Epochs),
		zap.Bool("converged", result.Converged),
		zap.Float64("delta", result.Delta))
	return m, result, nil
}

// solve fits every row of a factor matrix against the fixed factors of the other side. Rows
// are independent, so they are distributed over workers with per-worker scratch space and
// written into a fresh matrix that the caller swaps in once the whole step completes.
func (als *ALS) solve(fixed *mat.Dense, n int, feedback func(int) []dataset.Entry, jobs int) (*mat.Dense, error) {
	if jobs < 1 {
		jobs = 1
	}
	k := als.nFactors
	// G = F^T F
	gram := mat.NewSymDense(k, nil)
	gram.SymOuterK(1, fixed.T())
	// scratch space
	a := make([]*mat.SymDense, jobs)
	b := make([]*mat.VecDense, jobs)
	chol := make([]mat.Cholesky, jobs)
	for i := 0; i < jobs; i++ {
		a[i] = mat.NewSymDense(k, nil)
		b[i] = mat.NewVecDense(k, nil)
	}
	solved := mat.NewDense(n, k, nil)
	err := parallel.Parallel(context.Background(), n, jobs, func(workerId, row int) error {
		entries := feedback(row)
		if len(entries) == 0 {
			// (G + reg * I) x = 0
			return nil
		}
		A, B := a[workerId], b[workerId]
		A.CopySym(gram)
		B.Zero()
		for _, e := range entries {
			y := mat.NewVecDense(k, fixed.RawRowView(int(e.Index)))
			confidence := 1 + als.alpha*float64(e.Rating)
			// A += (c - 1) y y^T, B += c y
			A.SymRankOne(A, confidence-1, y)
			B.AddScaledVec(B, confidence, y)
		}
		for i := 0; i < k; i++ {
			A.SetSym(i, i, A.At(i, i)+als.reg)
		}
		if ok := chol[workerId].Factorize(A); !ok {
			return errors.Annotatef(base.ErrConvergenceFailure, "normal equations of row %d are not positive definite", row)
		}
		x := mat.NewVecDense(k, solved.RawRowView(row))
		if err := chol[workerId].SolveVecTo(x, B); err != nil {
			var condition mat.Condition
			if !errors.As(err, &condition) {
				return errors.Annotatef(base.ErrConvergenceFailure, "solve row %d: %v", row, err)
			}
		}
		for i := 0; i < k; i++ {
			if v := x.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Annotatef(base.ErrConvergenceFailure, "row %d has non-finite factors", row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return solved, nil
}

func maxAbsDiff(a, b *mat.Dense) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	return maxAbs(&diff)
}

func maxAbs(m *mat.Dense) float64 {
	r, c := m.Dims()
	var ret float64
	for i := 0; i < r; i++ {
		for _, v := range m.RawRowView(i)[:c] {
			ret = math.Max(ret, math.Abs(v))
		}
	}
	return ret
}
