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
	"github.com/spf13/cobra"
)

var (
	alpha float64
	beta  float64
	delta float64
	mu    float64

	level string
	bind  string

	pmin    float64
	pmax    float64
	nodes   int
	workers int

	quantileSpline bool

	benchCount int
	benchSeed  string
)

func setupFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		Float64VarP(&alpha, "alpha", "a", 1, "Tail heaviness parameter, must exceed |beta|")
	cmd.PersistentFlags().
		Float64VarP(&beta, "beta", "", 0, "Asymmetry parameter")
	cmd.PersistentFlags().
		Float64VarP(&delta, "delta", "d", 1, "Scale parameter, must be positive")
	cmd.PersistentFlags().
		Float64VarP(&mu, "mu", "m", 0, "Location parameter")
	cmd.PersistentFlags().
		StringVarP(&level, "level", "", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().
		StringVarP(&bind, "bind", "b", "0.0.0.0:2112", "Interface and port to bind prometheus metrics on")
	cmd.PersistentFlags().
		Float64VarP(&pmin, "pmin", "", 1e-6, "Lower edge of the spline probability domain")
	cmd.PersistentFlags().
		Float64VarP(&pmax, "pmax", "", 1-1e-6, "Upper edge of the spline probability domain")
	cmd.PersistentFlags().
		IntVarP(&nodes, "nodes", "n", 10000, "Spline grid size")
	cmd.PersistentFlags().
		IntVarP(&workers, "workers", "w", 0, "Worker goroutines for builds and batch transforms, 0 means GOMAXPROCS")

	quantileCmd.Flags().
		BoolVarP(&quantileSpline, "spline", "", false, "Also evaluate through a spline table and report the interpolation error")

	benchCmd.Flags().
		IntVarP(&benchCount, "count", "c", 1_000_000, "Number of standard normal samples to transform")
	benchCmd.Flags().
		StringVarP(&benchSeed, "seed", "s", "random", "Sample seed value")
}
