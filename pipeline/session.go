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

	"github.com/basketcf/basketcf/base/progress"
	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/config"
	"github.com/basketcf/basketcf/dataset"
	"github.com/basketcf/basketcf/storage/blob"
	"github.com/basketcf/basketcf/storage/cache"
	"github.com/basketcf/basketcf/storage/data"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Session is the execution context of a run. Every client a run touches is created by
// NewSession and released by Close.
type Session struct {
	RunId  string
	Config *config.Config
	Tracer *progress.Tracer

	source   data.Source
	store    blob.Store
	cache    *cache.Redis
	filter   *vm.Program
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// NewSession opens the input source, output store and optional cache of a configuration.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	s := &Session{
		RunId:  uuid.NewString(),
		Config: cfg,
		Tracer: progress.NewTracer("basketcf"),
	}
	tp, shutdown, err := cfg.Tracing.NewTracerProvider()
	if err != nil {
		return nil, errors.Trace(err)
	}
	otel.SetTracerProvider(tp)
	otel.SetErrorHandler(log.GetErrorHandler())
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	s.tracer = tp.Tracer("basketcf")
	s.shutdown = shutdown

	if cfg.Input.Filter != "" {
		if s.filter, err = dataset.CompileFilter(cfg.Input.Filter); err != nil {
			_ = s.Close(ctx)
			return nil, errors.Trace(err)
		}
	}
	if s.source, err = data.Open(cfg.Input.Source, cfg.Input.Table); err != nil {
		_ = s.Close(ctx)
		return nil, errors.Trace(err)
	}
	if s.store, err = blob.Open(cfg.Output); err != nil {
		_ = s.Close(ctx)
		return nil, errors.Trace(err)
	}
	if cfg.Output.Redis != "" {
		if s.cache, err = cache.Open(cfg.Output.Redis); err != nil {
			_ = s.Close(ctx)
			return nil, errors.Trace(err)
		}
	}
	log.Logger().Info("session started",
		zap.String("run_id", s.RunId),
		zap.String("source", log.RedactDBURL(cfg.Input.Source)),
		zap.String("output", cfg.Output.Path),
		zap.String("storage", cfg.Output.Storage))
	return s, nil
}

// Close pushes metrics, flushes spans and closes clients. All steps are attempted and the
// first error is returned.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if s.Config.Metrics.PushGateway != "" {
		job := s.Config.Metrics.Job
		if job == "" {
			job = "basketcf"
		}
		if err := PushMetrics(s.Config.Metrics.PushGateway, job, s.RunId); err != nil {
			log.Logger().Warn("failed to push metrics", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if s.shutdown != nil {
		if err := s.shutdown(ctx); err != nil {
			errs = append(errs, errors.Trace(err))
		}
	}
	if s.source != nil {
		if err := s.source.Close(); err != nil {
			errs = append(errs, errors.Trace(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, errors.Trace(err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
