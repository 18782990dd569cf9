// Package metrics defines the Prometheus collectors for imports and serves
// them over HTTP.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

const namespace = "compendium"

// Import outcomes
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
)

// Metrics holds the import collectors. A nil *Metrics records nothing.
type Metrics struct {
	imports        *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	tables         *prometheus.CounterVec
	citations      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when reg is not nil
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Entity imports by kind and outcome.",
		}, []string{"kind", "outcome", "code"}),
		importDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Time spent persisting one entity.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"kind"}),
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "random_tables_total",
			Help:      "Random tables stored with imported entities.",
		}, []string{"kind"}),
		citations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citations_total",
			Help:      "Source citations of imported entities by resolution status.",
		}, []string{"kind", "status"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.imports, m.importDuration, m.tables, m.citations} {
			if err := reg.Register(c); err != nil {
				return nil, errors.Wrap(err, "failed to register import metrics")
			}
		}
	}
	return m, nil
}

// ObserveImport records one import attempt
func (m *Metrics) ObserveImport(kind string, created bool, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeUpdated
	code := errors.CodeOK.String()
	switch {
	case err != nil:
		outcome = OutcomeFailed
		code = errors.GetCode(err).String()
	case created:
		outcome = OutcomeCreated
	}
	m.imports.WithLabelValues(kind, outcome, code).Inc()
	m.importDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveEntity records the tables and citation status of a stored entity
func (m *Metrics) ObserveEntity(kind string, tables int, citationStatus string) {
	if m == nil {
		return
	}
	m.tables.WithLabelValues(kind).Add(float64(tables))
	m.citations.WithLabelValues(kind, citationStatus).Inc()
}

// Imports returns the import counter for one label set. Used by tests.
func (m *Metrics) Imports(kind, outcome, code string) prometheus.Counter {
	return m.imports.WithLabelValues(kind, outcome, code)
}

// Citations returns the citation counter for one label set. Used by tests.
func (m *Metrics) Citations(kind, status string) prometheus.Counter {
	return m.citations.WithLabelValues(kind, status)
}

// Serve exposes gatherer on addr at /metrics until ctx is done
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed to stop metrics server")
		}
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return errors.WrapWithCode(err, errors.CodeUnavailable, "metrics server failed")
	}
}
