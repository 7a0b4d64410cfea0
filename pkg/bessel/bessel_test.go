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

package bessel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference values cross-checked against the A&S 9.6 series and the scaled
// integral representation evaluated independently at 160 quadrature nodes.
var k1Reference = []struct {
	x, k1, k1Scaled float64
}{
	{0.1, 9.853844780870606, 10.890182683049698},
	{0.5, 1.6564411200033009, 2.7310097082117859},
	{1.0, 0.60190723019723458, 1.6361534862632581},
	{2.0, 0.13986588181652243, 1.0334768470686886},
	{5.0, 0.0040446134454521637, 0.60027385878831252},
	{10.0, 1.8648773453825579e-05, 0.41076657059578858},
}

func TestK1ReferenceValues(t *testing.T) {
	t.Parallel()

	for _, tc := range k1Reference {
		assert.InEpsilon(t, tc.k1, K1(tc.x), 1e-12, "K1(%v)", tc.x)
		assert.InEpsilon(t, tc.k1Scaled, K1Scaled(tc.x), 1e-12, "K1Scaled(%v)", tc.x)
	}
}

func TestK1RegimeBoundaryContinuity(t *testing.T) {
	t.Parallel()

	// Series just below the cutoff, integral just above. A discontinuity
	// here would show up as a kink in every density built on top.
	below := K1Scaled(seriesCutoff - 1e-9)
	above := K1Scaled(seriesCutoff + 1e-9)
	require.InEpsilon(t, below, above, 1e-7)
}

func TestK1ScaledConsistency(t *testing.T) {
	t.Parallel()

	for _, x := range []float64{0.05, 0.7, 1.9, 2.3, 4, 8} {
		assert.InEpsilon(t, math.Exp(x)*K1(x), K1Scaled(x), 1e-12, "x=%v", x)
	}
}

func TestK1SmallArgumentAsymptote(t *testing.T) {
	t.Parallel()

	// K1(x) -> 1/x as x -> 0.
	for _, x := range []float64{1e-8, 1e-6, 1e-4} {
		assert.InEpsilon(t, 1/x, K1(x), 1e-6, "x=%v", x)
	}
}

func TestK1LargeArgumentAsymptote(t *testing.T) {
	t.Parallel()

	// exp(x) K1(x) -> sqrt(pi/2x) (1 + 3/8x - 15/128x² + ...).
	for _, x := range []float64{1e3, 1e6, 1e9, 1e12} {
		want := math.Sqrt(math.Pi/(2*x)) * (1 + 3/(8*x) - 15/(128*x*x))
		assert.InEpsilon(t, want, K1Scaled(x), 1e-8, "x=%v", x)
	}
}

func TestK1Monotonicity(t *testing.T) {
	t.Parallel()

	prev := math.Inf(1)
	for x := 0.01; x < 20; x += 0.01 {
		v := K1(x)
		require.Less(t, v, prev, "K1 must be strictly decreasing, x=%v", x)
		require.Greater(t, v, 0.0)
		prev = v
	}
}

func TestK1InvalidInput(t *testing.T) {
	t.Parallel()

	for _, x := range []float64{0, -1, math.Inf(-1), math.Inf(1), math.NaN()} {
		assert.True(t, math.IsNaN(K1(x)), "K1(%v)", x)
		assert.True(t, math.IsNaN(K1Scaled(x)), "K1Scaled(%v)", x)
	}
}
