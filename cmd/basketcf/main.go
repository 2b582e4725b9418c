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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/basketcf/basketcf/cmd/version"
	"github.com/basketcf/basketcf/common/log"
	"github.com/basketcf/basketcf/config"
	"github.com/basketcf/basketcf/pipeline"
	"github.com/basketcf/basketcf/report"
	"github.com/basketcf/basketcf/storage/blob"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "basketcf",
	Short: "Personalized product recommendations from retail transactions.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.CloseLogger()
	},
}

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Fit the model and publish recommendations",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		conf := loadConfig(cmd)
		session, err := pipeline.NewSession(ctx, conf)
		if err != nil {
			log.Logger().Fatal("failed to create session", zap.Error(err))
		}
		result, runErr := session.Run(ctx)
		printResult(result)
		_ = report.Stages(os.Stdout, session.Tracer.List())
		if err = session.Close(context.Background()); err != nil {
			log.Logger().Warn("failed to close session", zap.Error(err))
		}
		if runErr != nil {
			log.Logger().Fatal("run failed", zap.Error(runErr))
		}
		fmt.Printf("recommendations written to %s\n", result.OutputPath)
	},
}

var tuneCommand = &cobra.Command{
	Use:   "tune",
	Short: "Search hyper-parameters of the model",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		conf := loadConfig(cmd)
		if trials, _ := cmd.Flags().GetInt("trials"); trials > 0 {
			conf.Tune.Trials = trials
		}
		session, err := pipeline.NewSession(ctx, conf)
		if err != nil {
			log.Logger().Fatal("failed to create session", zap.Error(err))
		}
		defer session.Close(context.Background())
		_, search, err := session.Tune(ctx)
		if err != nil {
			log.Logger().Fatal("tune failed", zap.Error(err))
		}
		_ = report.Search(os.Stdout, search)
	},
}

var showCommand = &cobra.Command{
	Use:   "show",
	Short: "Show published recommendations",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		customer, _ := cmd.Flags().GetString("customer")
		store, err := blob.Open(conf.Output)
		if err != nil {
			log.Logger().Fatal("failed to open output storage", zap.Error(err))
		}
		rows, err := pipeline.LoadRows(cmd.Context(), store, conf.Output.Path, customer)
		if errors.Is(err, errors.NotFound) {
			fmt.Println("recommendations not yet generated, run `basketcf run` first")
			return
		} else if err != nil {
			log.Logger().Fatal("failed to load recommendations", zap.Error(err))
		}
		if len(rows) == 0 {
			fmt.Printf("no recommendations for customer %s\n", customer)
			return
		}
		if err = report.Recommendations(os.Stdout, rows); err != nil {
			log.Logger().Fatal("failed to print recommendations", zap.Error(err))
		}
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

func loadConfig(cmd *cobra.Command) *config.Config {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	return conf
}

func printResult(result *pipeline.Result) {
	if result == nil {
		return
	}
	if result.Summary.TotalRows > 0 {
		_ = report.Summary(os.Stdout, result.Summary)
		_ = report.Clean(os.Stdout, result.CleanReport)
		_ = report.TopCustomers(os.Stdout, result.TopCustomers)
	}
	if result.Model != nil {
		_ = report.Evaluation(os.Stdout, result.FitResult, result.Evaluation)
	}
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	tuneCommand.Flags().Int("trials", 0, "number of trials (overrides tune.trials)")
	showCommand.Flags().String("customer", "", "only show recommendations of a customer")
	rootCommand.AddCommand(runCommand, tuneCommand, showCommand, versionCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
