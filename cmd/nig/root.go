// Copyright 2025 Quantdists
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quantdists/nig/pkg/metrics"
	"github.com/quantdists/nig/pkg/nig"
)

var rootCmd = &cobra.Command{
	Use:          "nig",
	Short:        "Normal Inverse Gaussian toolkit: density, quantiles, spline tables and batch transforms.",
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = NewVersionInfo().String()

	setupFlags(rootCmd)

	rootCmd.AddCommand(evalCmd, quantileCmd, benchCmd)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		zap.ReplaceGlobals(createLogger(level))
		metrics.StartMetricsServer(cmd.Context(), bind)
	}
}

// newDist builds the distribution selected by the shape flags.
func newDist() (*nig.Dist, error) {
	return nig.New(alpha, beta, delta, mu)
}

func createLogger(level string) *zap.Logger {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.SetLevel(zap.InfoLevel)
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		lvl,
	))
	return logger
}
