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
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	LabelStage = "stage"
	LabelData  = "data"
)

var (
	registry = prometheus.NewRegistry()

	StageSecondsVec = promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "basketcf",
		Subsystem: "pipeline",
		Name:      "stage_seconds",
	}, []string{LabelStage})
	RowsVec = promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "basketcf",
		Subsystem: "pipeline",
		Name:      "rows",
	}, []string{LabelData})
	UsersTotal = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "basketcf",
		Subsystem: "pipeline",
		Name:      "users_total",
	})
	ItemsTotal = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "basketcf",
		Subsystem: "pipeline",
		Name:      "items_total",
	})
	FitEpochs = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "basketcf",
		Subsystem: "als",
		Name:      "epochs",
	})
	FitLoss = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "basketcf",
		Subsystem: "als",
		Name:      "loss",
	})
	EvaluationRMSE = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "basketcf",
		Subsystem: "evaluation",
		Name:      "rmse",
	})
	EvaluationDroppedTotal = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "basketcf",
		Subsystem: "evaluation",
		Name:      "dropped_total",
	})
	RecommendationsTotal = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "basketcf",
		Subsystem: "recommend",
		Name:      "rows_total",
	})
)

// PushMetrics pushes metrics of a run to a Prometheus Pushgateway.
func PushMetrics(url, job, runId string) error {
	return errors.Trace(push.New(url, job).
		Gatherer(registry).
		Grouping("run_id", runId).
		Push())
}
