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

// Package transform maps standard normal samples onto a target
// distribution through its precomputed quantile table, the probability
// integral transform used to impose NIG margins on Gaussian draws.
package transform

import (
	"context"
	"math"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantdists/nig/pkg/metrics"
	"github.com/quantdists/nig/pkg/spline"
	"github.com/quantdists/nig/pkg/utils"
)

// MapNormalToNIG writes tbl.Evaluate(Phi(xs[i])) into dst[i], where Phi is
// the standard normal CDF. NaN inputs pass through as NaN without
// affecting neighbours. dst and xs may alias for in-place operation; they
// must be the same length.
func MapNormalToNIG(dst, xs []float64, tbl *spline.Table) error {
	if len(dst) != len(xs) {
		return errors.Errorf("length mismatch: dst has %d elements, xs has %d", len(dst), len(xs))
	}

	mapRange(dst, xs, tbl)
	metrics.BatchElements.Add(float64(len(xs)))
	return nil
}

// MapNormalToNIGParallel is MapNormalToNIG fanned out over workers
// goroutines on contiguous chunks. Output positions match input positions
// regardless of worker count. workers < 1 defaults to GOMAXPROCS.
func MapNormalToNIGParallel(ctx context.Context, dst, xs []float64, tbl *spline.Table, workers int) error {
	if len(dst) != len(xs) {
		return errors.Errorf("length mismatch: dst has %d elements, xs has %d", len(dst), len(xs))
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range utils.Chunks(len(xs), workers) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mapRange(dst[c.Lo:c.Hi], xs[c.Lo:c.Hi], tbl)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "parallel transform")
	}

	metrics.BatchElements.Add(float64(len(xs)))
	return nil
}

func mapRange(dst, xs []float64, tbl *spline.Table) {
	invalid := 0
	for i, x := range xs {
		if math.IsNaN(x) {
			dst[i] = math.NaN()
			invalid++
			continue
		}
		dst[i] = tbl.Evaluate(distuv.UnitNormal.CDF(x))
	}
	if invalid > 0 {
		metrics.BatchInvalidValues.Add(float64(invalid))
	}
}
