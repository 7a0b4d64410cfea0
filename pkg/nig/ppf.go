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

package nig

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/quantdists/nig/pkg/metrics"
)

const (
	// ppfTol is the convergence tolerance in probability space.
	ppfTol = 1e-11

	maxPPFIterations = 200
)

// ConvergenceError reports that PPF exhausted its iteration budget. Best
// carries the final estimate, so callers configured for best-effort
// operation can recover it with errors.As instead of failing the request.
type ConvergenceError struct {
	Best       float64
	Residual   float64
	Iterations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf(
		"ppf did not converge after %d iterations: best estimate %g, probability residual %g",
		e.Iterations, e.Best, e.Residual,
	)
}

// PPF inverts the CDF at probability p by Newton steps (the density is the
// CDF's derivative) safeguarded by a shrinking bisection bracket: any
// Newton step that leaves the bracket is replaced by its midpoint. Near 0
// and 1 the result approaches the support edges, staying finite.
//
// p outside (0, 1) is ErrDomain. A result that misses the tolerance after
// the iteration budget is returned together with a *ConvergenceError.
func (d *Dist) PPF(p float64) (float64, error) {
	if !(p > 0 && p < 1) {
		return math.NaN(), errors.Wrapf(ErrDomain, "p=%v", p)
	}

	lo, hi := d.left, d.right
	x := d.params.Mu
	residual := math.Inf(1)

	for range maxPPFIterations {
		fx := d.CDF(x)
		residual = math.Abs(fx - p)
		if residual <= ppfTol {
			return x, nil
		}

		if fx < p {
			lo = x
		} else {
			hi = x
		}

		next := x
		if dens := d.PDF(x); dens > 0 {
			next = x + (p-fx)/dens
		}
		if !(next > lo && next < hi) {
			next = (lo + hi) / 2
		}
		x = next
	}

	metrics.PPFConvergenceFailures.Inc()
	return x, &ConvergenceError{Best: x, Residual: residual, Iterations: maxPPFIterations}
}
