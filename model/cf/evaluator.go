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

	"github.com/basketcf/basketcf/common/parallel"
	"github.com/basketcf/basketcf/dataset"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
)

// Evaluation is the RMSE of a model on held-out interactions. Pairs whose user or item had no
// training interactions cannot be scored; they are excluded from RMSE and counted in Dropped.
type Evaluation struct {
	RMSE    float32
	Count   int
	Dropped int
}

// EvaluateRMSE scores held-out interactions against raw ratings. RMSE is NaN if no pair could
// be scored.
func EvaluateRMSE(m *Model, testSet []dataset.EncodedInteraction, jobs int) (Evaluation, error) {
	if jobs < 1 {
		jobs = 1
	}
	chunks := parallel.Split(testSet, jobs)
	sums := make([]float64, len(chunks))
	counts := make([]int, len(chunks))
	dropped := make([]int, len(chunks))
	if err := parallel.For(context.Background(), len(chunks), jobs, func(i int) {
		for _, interaction := range chunks[i] {
			if !m.IsUserPredictable(interaction.UserId) || !m.IsItemPredictable(interaction.ItemId) {
				dropped[i]++
				continue
			}
			diff := float64(m.Predict(interaction.UserId, interaction.ItemId) - interaction.Rating)
			sums[i] += diff * diff
			counts[i]++
		}
	}); err != nil {
		return Evaluation{}, errors.Annotate(err, "evaluate rmse")
	}
	var evaluation Evaluation
	var sum float64
	for i := range chunks {
		sum += sums[i]
		evaluation.Count += counts[i]
		evaluation.Dropped += dropped[i]
	}
	if evaluation.Count == 0 {
		evaluation.RMSE = math32.NaN()
	} else {
		evaluation.RMSE = math32.Sqrt(float32(sum / float64(evaluation.Count)))
	}
	return evaluation, nil
}
