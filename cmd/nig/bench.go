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
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantdists/nig/pkg/spline"
	"github.com/quantdists/nig/pkg/transform"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Build a spline table and push a batch of normal samples through it, reporting throughput",
	RunE:  runBench,
}

func runBench(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zap.L().Named("bench")

	seed, err := resolveSeed(benchSeed)
	if err != nil {
		return errors.Wrapf(err, "failed to parse --seed argument")
	}
	if benchCount < 1 {
		return errors.Errorf("count (%d) must be positive", benchCount)
	}

	d, err := newDist()
	if err != nil {
		return err
	}

	// Deterministic sample stream for a given seed and batch size.
	hash := sha256.Sum256([]byte(seed + strconv.Itoa(benchCount)))
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewChaCha8(hash)}

	xs := make([]float64, benchCount)
	for i := range xs {
		xs[i] = normal.Rand()
	}

	logger.Info("samples generated",
		zap.Int("count", benchCount),
		zap.String("seed", seed),
	)

	buildStart := time.Now()
	tbl, err := spline.Build(ctx, d, spline.Config{
		PMin:    pmin,
		PMax:    pmax,
		Nodes:   nodes,
		Workers: workers,
	})
	if err != nil {
		return err
	}
	buildTime := time.Since(buildStart)

	dst := make([]float64, len(xs))
	mapStart := time.Now()
	if err = transform.MapNormalToNIGParallel(ctx, dst, xs, tbl, workers); err != nil {
		return err
	}
	mapTime := time.Since(mapStart)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "samples\t%d\n", benchCount)
	fmt.Fprintf(w, "spline nodes\t%d\n", tbl.Nodes())
	fmt.Fprintf(w, "build time\t%v\n", buildTime)
	fmt.Fprintf(w, "transform time\t%v\n", mapTime)
	fmt.Fprintf(w, "throughput\t%.3g samples/s\n", float64(benchCount)/mapTime.Seconds())
	fmt.Fprintf(w, "clamped\t%d\n", tbl.Clamped())
	fmt.Fprintf(w, "max error\t%.3g\n", maxTransformError(d, tbl, xs, dst))
	return w.Flush()
}

// maxTransformError compares a subsample of the spline outputs against the
// exact quantiles. Clamped probabilities are skipped, the table is not
// expected to track the exact tails outside its domain.
func maxTransformError(q spline.Quantiler, tbl *spline.Table, xs, dst []float64) float64 {
	stride := len(xs) / 1000
	if stride < 1 {
		stride = 1
	}

	worst := 0.0
	for i := 0; i < len(xs); i += stride {
		p := distuv.UnitNormal.CDF(xs[i])
		if p < tbl.PMin() || p > tbl.PMax() {
			continue
		}

		exact, err := q.PPF(p)
		if err != nil {
			continue
		}
		if e := math.Abs(dst[i] - exact); e > worst {
			worst = e
		}
	}
	return worst
}

func resolveSeed(seed string) (string, error) {
	if seed != "random" {
		_, err := strconv.ParseUint(seed, 10, 64)
		return seed, err
	}

	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return "", err
	}
	return strconv.FormatUint(binary.LittleEndian.Uint64(b[:]), 10), nil
}
