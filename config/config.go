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

package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/basketcf/basketcf/model"
	"github.com/basketcf/basketcf/model/cf"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	StoragePOSIX = "posix"
	StorageS3    = "s3"
	StorageGCS   = "gcs"
	StorageAzure = "azure"
)

// Config is the configuration of a recommendation run.
type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Model     ModelConfig     `mapstructure:"model"`
	Split     SplitConfig     `mapstructure:"split"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Tune      TuneConfig      `mapstructure:"tune"`
	Output    OutputConfig    `mapstructure:"output"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type InputConfig struct {
	Source string `mapstructure:"source" validate:"required"`
	Table  string `mapstructure:"table"`
	Filter string `mapstructure:"filter"`
}

type ModelConfig struct {
	Rank            int     `mapstructure:"rank" validate:"gt=0"`
	MaxIterations   int     `mapstructure:"max_iterations" validate:"gte=0"`
	Regularization  float64 `mapstructure:"regularization" validate:"gt=0"`
	ConfidenceScale float64 `mapstructure:"confidence_scale" validate:"gte=0"`
	InitStdDev      float64 `mapstructure:"init_std_dev" validate:"gt=0"`
	Tolerance       float64 `mapstructure:"tolerance" validate:"gte=0"`
	Seed            int64   `mapstructure:"seed"`
	Jobs            int     `mapstructure:"jobs" validate:"gt=0"`
}

// GetParams returns hyper-parameters of the ALS model.
func (c *ModelConfig) GetParams() model.Params {
	return model.Params{
		model.NFactors:    c.Rank,
		model.NEpochs:     c.MaxIterations,
		model.Reg:         c.Regularization,
		model.Alpha:       c.ConfidenceScale,
		model.InitStdDev:  c.InitStdDev,
		model.Tolerance:   c.Tolerance,
		model.RandomState: c.Seed,
	}
}

func (c *ModelConfig) GetFitConfig() *cf.FitConfig {
	return cf.NewFitConfig().SetJobs(c.Jobs)
}

type SplitConfig struct {
	TrainFraction float64 `mapstructure:"train_fraction" validate:"gt=0,lte=1"`
}

type RecommendConfig struct {
	TopK int `mapstructure:"top_k" validate:"gt=0"`
}

type TuneConfig struct {
	Trials int `mapstructure:"trials" validate:"gt=0"`
}

type OutputConfig struct {
	Path    string          `mapstructure:"path" validate:"required"`
	Storage string          `mapstructure:"storage" validate:"oneof=posix s3 gcs azure"`
	Timeout time.Duration   `mapstructure:"timeout" validate:"gt=0"`
	Redis   string          `mapstructure:"redis" validate:"omitempty,startswith=redis://|startswith=rediss://"`
	S3      S3Config        `mapstructure:"s3"`
	GCS     GCSConfig       `mapstructure:"gcs"`
	Azure   AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Secure          bool   `mapstructure:"secure"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
	ConnectionString string `mapstructure:"connection_string"`
	Container        string `mapstructure:"container"`
	Prefix           string `mapstructure:"prefix"`
}

type MetricsConfig struct {
	PushGateway string `mapstructure:"push_gateway" validate:"omitempty,url"`
	Job         string `mapstructure:"job"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Source: "data/retaildata.csv",
			Table:  "transactions",
		},
		Model: ModelConfig{
			Rank:            20,
			MaxIterations:   10,
			Regularization:  0.1,
			ConfidenceScale: 1.0,
			InitStdDev:      0.01,
			Tolerance:       1e-6,
			Seed:            42,
			Jobs:            1,
		},
		Split: SplitConfig{
			TrainFraction: 0.8,
		},
		Recommend: RecommendConfig{
			TopK: 5,
		},
		Tune: TuneConfig{
			Trials: 20,
		},
		Output: OutputConfig{
			Path:    "output/user_recommendations.csv",
			Storage: StoragePOSIX,
			Timeout: 5 * time.Minute,
		},
		Tracing: TracingConfig{
			Exporter: "otlp",
			Sampler:  "always",
			Ratio:    1,
		},
		Metrics: MetricsConfig{
			Job: "basketcf",
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [input]
	v.SetDefault("input.source", defaultConfig.Input.Source)
	v.SetDefault("input.table", defaultConfig.Input.Table)
	v.SetDefault("input.filter", defaultConfig.Input.Filter)
	// [model]
	v.SetDefault("model.rank", defaultConfig.Model.Rank)
	v.SetDefault("model.max_iterations", defaultConfig.Model.MaxIterations)
	v.SetDefault("model.regularization", defaultConfig.Model.Regularization)
	v.SetDefault("model.confidence_scale", defaultConfig.Model.ConfidenceScale)
	v.SetDefault("model.init_std_dev", defaultConfig.Model.InitStdDev)
	v.SetDefault("model.tolerance", defaultConfig.Model.Tolerance)
	v.SetDefault("model.seed", defaultConfig.Model.Seed)
	v.SetDefault("model.jobs", defaultConfig.Model.Jobs)
	// [split]
	v.SetDefault("split.train_fraction", defaultConfig.Split.TrainFraction)
	// [recommend]
	v.SetDefault("recommend.top_k", defaultConfig.Recommend.TopK)
	// [tune]
	v.SetDefault("tune.trials", defaultConfig.Tune.Trials)
	// [output]
	v.SetDefault("output.path", defaultConfig.Output.Path)
	v.SetDefault("output.storage", defaultConfig.Output.Storage)
	v.SetDefault("output.timeout", defaultConfig.Output.Timeout)
	v.SetDefault("output.redis", "")
	for _, key := range []string{"endpoint", "access_key_id", "secret_access_key", "bucket", "prefix"} {
		v.SetDefault("output.s3."+key, "")
	}
	v.SetDefault("output.s3.secure", false)
	for _, key := range []string{"bucket", "prefix", "credentials_file"} {
		v.SetDefault("output.gcs."+key, "")
	}
	for _, key := range []string{"account_name", "account_key", "endpoint", "connection_string", "container", "prefix"} {
		v.SetDefault("output.azure."+key, "")
	}
	// [tracing]
	v.SetDefault("tracing.enable_tracing", defaultConfig.Tracing.EnableTracing)
	v.SetDefault("tracing.exporter", defaultConfig.Tracing.Exporter)
	v.SetDefault("tracing.collector_endpoint", defaultConfig.Tracing.CollectorEndpoint)
	v.SetDefault("tracing.sampler", defaultConfig.Tracing.Sampler)
	v.SetDefault("tracing.ratio", defaultConfig.Tracing.Ratio)
	// [metrics]
	v.SetDefault("metrics.push_gateway", defaultConfig.Metrics.PushGateway)
	v.SetDefault("metrics.job", defaultConfig.Metrics.Job)
}

// LoadConfig loads configuration from a TOML file. Every key may be overridden by an environment
// variable, e.g. BASKETCF_MODEL_RANK for model.rank. An empty path loads defaults and environment
// variables only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix("BASKETCF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks values of the configuration. Errors name keys by their configuration path.
func (config *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return errors.Trace(err)
	}
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
	})
	err := validate.Struct(config)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := lo.Map(validationErrors, func(e validator.FieldError, _ int) string {
			namespace := strings.TrimPrefix(e.Namespace(), "Config.")
			return strings.Replace(e.Translate(trans), e.Field(), namespace, 1)
		})
		return errors.NotValidf("config: %s", strings.Join(messages, "; "))
	} else if err != nil {
		return errors.Trace(err)
	}
	if config.Output.Storage == StorageS3 && config.Output.S3.Bucket == "" {
		return errors.NotValidf("config: output.s3.bucket is required for s3 storage")
	}
	if config.Output.Storage == StorageGCS && config.Output.GCS.Bucket == "" {
		return errors.NotValidf("config: output.gcs.bucket is required for gcs storage")
	}
	if config.Output.Storage == StorageAzure && config.Output.Azure.Container == "" {
		return errors.NotValidf("config: output.azure.container is required for azure storage")
	}
	return nil
}
