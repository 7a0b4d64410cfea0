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
	"fmt"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantdists/nig/pkg/nig"
	"github.com/quantdists/nig/pkg/spline"
)

var evalCmd = &cobra.Command{
	Use:   "eval x [x...]",
	Short: "Evaluate the density and distribution function at one or more points",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		xs, err := parseFloats(args)
		if err != nil {
			return err
		}

		d, err := newDist()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "x\tpdf\tcdf")
		for _, x := range xs {
			fmt.Fprintf(w, "%g\t%.12g\t%.12g\n", x, d.PDF(x), d.CDF(x))
		}
		return w.Flush()
	},
}

var quantileCmd = &cobra.Command{
	Use:   "quantile p [p...]",
	Short: "Invert the distribution function at one or more probabilities",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := parseFloats(args)
		if err != nil {
			return err
		}

		d, err := newDist()
		if err != nil {
			return err
		}

		var tbl *spline.Table
		if quantileSpline {
			tbl, err = spline.Build(cmd.Context(), d, spline.Config{
				PMin:    pmin,
				PMax:    pmax,
				Nodes:   nodes,
				Workers: workers,
			})
			if err != nil {
				return err
			}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		if tbl != nil {
			fmt.Fprintln(w, "p\tppf\tspline\terror")
		} else {
			fmt.Fprintln(w, "p\tppf")
		}

		for _, p := range ps {
			x, err := d.PPF(p)

			var conv *nig.ConvergenceError
			switch {
			case err == nil:
			case errors.As(err, &conv):
				zap.L().Warn("quantile search exhausted iterations, reporting best estimate",
					zap.Float64("p", p),
					zap.Float64("residual", conv.Residual),
				)
			default:
				return err
			}

			if tbl != nil {
				approx := tbl.Evaluate(p)
				fmt.Fprintf(w, "%g\t%.12g\t%.12g\t%.3g\n", p, x, approx, math.Abs(approx-x))
			} else {
				fmt.Fprintf(w, "%g\t%.12g\n", p, x)
			}
		}
		return w.Flush()
	},
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %q", arg)
		}
		out = append(out, v)
	}
	return out, nil
}
