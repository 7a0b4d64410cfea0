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

package metrics

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registerer = prometheus.NewRegistry()

var (
	SplineBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spline_build_duration_seconds",
			Help:    "Time taken to sample the quantile function and solve the spline system.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	SplineNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spline_nodes",
			Help: "Node count of the most recently built spline table.",
		},
	)

	SplineClampedValues = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spline_clamped_evaluations",
			Help: "Evaluations outside the built probability domain, clamped to the boundary.",
		},
	)

	BatchElements = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_transformed_values",
		},
	)

	BatchInvalidValues = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_invalid_values",
			Help: "NaN inputs passed through a batch transform as NaN sentinels.",
		},
	)

	PPFConvergenceFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ppf_convergence_failures",
		},
	)
)

func init() {
	r := prometheus.WrapRegistererWithPrefix("nig_", registerer)

	r.MustRegister(
		SplineBuildDuration,
		SplineNodes,
		SplineClampedValues,
		BatchElements,
		BatchInvalidValues,
		PPFConvergenceFailures,
	)

	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
			ReportErrors: true,
			PidFn: func() (int, error) {
				return os.Getpid(), nil
			},
		}),
	)
}

func StartMetricsServer(ctx context.Context, bind string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		registerer, promhttp.HandlerFor(registerer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          registerer,
		}),
	))

	server := &http.Server{
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		WriteTimeout: 1 * time.Minute,
		Handler:      mux,
		Addr:         bind,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(errors.Wrapf(err, "failed to start metrics server on %s", bind))
		}
	}()

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Println(err)
		}
	}()
}
