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
	"github.com/basketcf/basketcf/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Loss computes the implicit feedback objective
//
//	sum_{u,i} c_ui (p_ui - x_u^T y_i)^2 + reg (||X||^2 + ||Y||^2)
//
// without materializing the dense prediction matrix: the sum over all pairs with unit
// confidence is trace((X^T X)(Y^T Y)), and observed pairs add c (1 - s)^2 - s^2.
func Loss(userFactor, itemFactor *mat.Dense, trainSet *dataset.Matrix, alpha, reg float64) float64 {
	var gramX, gramY mat.Dense
	gramX.Mul(userFactor.T(), userFactor)
	gramY.Mul(itemFactor.T(), itemFactor)
	var loss float64
	k, _ := gramX.Dims()
	for i := 0; i < k; i++ {
		loss += floats.Dot(gramX.RawRowView(i), gramY.RawRowView(i))
	}
	for userId := 0; userId < trainSet.CountUsers(); userId++ {
		x := userFactor.RawRowView(userId)
		for _, e := range trainSet.UserFeedback(userId) {
			s := floats.Dot(x, itemFactor.RawRowView(int(e.Index)))
			c := 1 + alpha*float64(e.Rating)
			loss += c*(1-s)*(1-s) - s*s
		}
	}
	normX := mat.Norm(userFactor, 2)
	normY := mat.Norm(itemFactor, 2)
	return loss + reg*(normX*normX+normY*normY)
}
