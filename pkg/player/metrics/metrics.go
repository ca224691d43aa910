// Copyright 2024 The Trackplanner Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics carries the Prometheus instrumentation H6 calls for:
// cache hit rate, plan cost and feasibility rejections. Grounded on the
// teacher's pkg/telemetry/prometheus package (namespaced CounterVec/
// Histogram globals, registered once via MustRegister).
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "trackplanner"

var (
	cacheLabels = []string{"cache"}

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	planCost    *prometheus.HistogramVec
	planChoices *prometheus.CounterVec

	feasibilityRejections prometheus.Counter
)

// Register wires every metric into reg (typically
// prometheus.DefaultRegisterer). Calling it more than once panics, the
// same discipline the teacher's prometheus package init functions
// follow.
func Register(reg prometheus.Registerer) {
	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
	}, cacheLabels)
	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
	}, cacheLabels)
	planCost = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "plan",
		Name:      "cost_bytes",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
	}, []string{"path_type"})
	planChoices = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "plan",
		Name:      "choices_total",
	}, []string{"path_type"})
	feasibilityRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "feasibility",
		Name:      "rejections_total",
	})

	reg.MustRegister(cacheHits, cacheMisses, planCost, planChoices, feasibilityRejections)
}

// ObserveCacheLookup records a cache.Has outcome, labelled by which of
// the raster/state/chunk caches was queried.
func ObserveCacheLookup(cache string, hit bool) {
	if cacheHits == nil {
		return
	}
	if hit {
		cacheHits.WithLabelValues(cache).Inc()
	} else {
		cacheMisses.WithLabelValues(cache).Inc()
	}
}

// ObservePlanChoice records the cost and path type of a resolved
// ChosenPlan (C6.ChoosePath).
func ObservePlanChoice(pathType string, cost uint64) {
	if planChoices == nil {
		return
	}
	planChoices.WithLabelValues(pathType).Inc()
	planCost.WithLabelValues(pathType).Observe(float64(cost))
}

// ObserveFeasibilityRejection records one candidate the feasibility
// predicate ruled out during sequential play.
func ObserveFeasibilityRejection() {
	if feasibilityRejections == nil {
		return
	}
	feasibilityRejections.Inc()
}
