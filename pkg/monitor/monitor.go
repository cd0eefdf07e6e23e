/*
Copyright 2026 The KubeEdge Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

const (
	metricNamespace = "lwm2mconsole"

	// ObjectDefSubsystem - subsystem name used by the object definition fetcher
	ObjectDefSubsystem = "objectdef"
	// TemplateSubsystem - subsystem name used by the template client
	TemplateSubsystem = "template"
)

// Fetch results used as label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	ObjectDefFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: ObjectDefSubsystem,
			Name:      "fetches_total",
			Help:      "Number of object definition requests sent to the backend, by result",
		},
		[]string{"result"},
	)

	ObjectDefCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: ObjectDefSubsystem,
			Name:      "cache_hits_total",
			Help:      "Number of object definition lookups served from a cache, by tier",
		},
		[]string{"tier"},
	)

	TemplateRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: TemplateSubsystem,
			Name:      "requests_total",
			Help:      "Number of template API requests, by operation and result",
		},
		[]string{"operation", "result"},
	)

	TemplateCacheInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: TemplateSubsystem,
			Name:      "cache_invalidations_total",
			Help:      "Number of template read cache invalidations",
		},
	)
)

var registerOnce sync.Once

// RegisterMetrics registers all metrics with the default registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ObjectDefFetches,
			ObjectDefCacheHits,
			TemplateRequests,
			TemplateCacheInvalidations,
		)
	})
}

// Result maps err to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

func installHandlerForPProf(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

// ServeMonitor serves /metrics on bindAddress until ctx is done.
func ServeMonitor(ctx context.Context, bindAddress string, enableProfiling bool) error {
	RegisterMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if enableProfiling {
		installHandlerForPProf(mux)
	}

	s := http.Server{
		Addr:              bindAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			klog.Errorf("Monitor server shutdown failed: %v", err)
		}
	}()

	klog.Infof("starting monitor server on addr: %s", bindAddress)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
