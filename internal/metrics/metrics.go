// Package metrics exposes Prometheus metrics for the book list.
//
// The collector is fed from two places: the repository's change
// notifications, which carry the committed snapshot, and the HTTP handlers,
// which report the outcome of each requested operation.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ugur10/go-bookshelf/internal/books"
)

const namespace = "bookshelf"

// Operation outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Collector holds the bookshelf metrics and the registry they live in.
type Collector struct {
	registry *prometheus.Registry

	// Books is the number of books after the last committed change.
	Books prometheus.Gauge

	// Revision is the collection revision after the last committed change.
	Revision prometheus.Gauge

	// Changes counts change notifications.
	Changes prometheus.Counter

	// Operations counts requested operations.
	// Labels: op (append, delete, move, edit), outcome.
	Operations *prometheus.CounterVec

	// Subscribers is the number of connected change-feed clients.
	Subscribers prometheus.Gauge
}

// New creates a Collector registered on its own registry, together with the
// Go runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		Books: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "books",
			Help:      "Number of books in the list.",
		}),
		Revision: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "revision",
			Help:      "Number of mutations committed to the list.",
		}),
		Changes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Change notifications delivered to observers.",
		}),
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Requested list operations by outcome.",
		}, []string{"op", "outcome"}),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Connected change-feed clients.",
		}),
	}
}

// SetSize records the initial list size before any change is committed.
func (c *Collector) SetSize(n int) {
	c.Books.Set(float64(n))
}

// ObserveChange is a books.MemoryRepository observer.
func (c *Collector) ObserveChange(snapshot []books.Book, revision uint64) {
	c.Changes.Inc()
	c.Books.Set(float64(len(snapshot)))
	c.Revision.Set(float64(revision))
}

// ObserveOperation records the outcome of op. A nil err with found false is
// counted as not found.
func (c *Collector) ObserveOperation(op string, found bool, err error) {
	c.Operations.WithLabelValues(op, Outcome(found, err)).Inc()
}

// Outcome classifies an operation result for the outcome label.
func Outcome(found bool, err error) string {
	switch {
	case errors.Is(err, books.ErrInvalidArgument):
		return OutcomeInvalid
	case errors.Is(err, books.ErrNotFound):
		return OutcomeNotFound
	case err != nil:
		return OutcomeError
	case !found:
		return OutcomeNotFound
	default:
		return OutcomeOK
	}
}

// Registry returns the registry the metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
