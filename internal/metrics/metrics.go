package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shipquote/internal/errs"
)

// Outcome label values.
const (
	OutcomeOK                 = "ok"
	OutcomeProviderError      = "provider_error"
	OutcomeConfigurationError = "configuration_error"
	OutcomeValidationError    = "validation_error"
	OutcomeError              = "error"
)

// Outcome classifies err into an outcome label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, errs.ErrProvider):
		return OutcomeProviderError
	case errors.Is(err, errs.ErrConfiguration):
		return OutcomeConfigurationError
	case errors.Is(err, errs.ErrValidation):
		return OutcomeValidationError
	default:
		return OutcomeError
	}
}

// Collector bundles the service's Prometheus metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Quotes           *prometheus.CounterVec
	Labels           *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	quotes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipquote_quotes_total",
		Help: "Quote requests, labeled by mode and outcome.",
	}, []string{"mode", "outcome"}), "shipquote_quotes_total")
	if err != nil {
		return nil, err
	}
	labels, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipquote_labels_total",
		Help: "Label purchases, labeled by mode and outcome.",
	}, []string{"mode", "outcome"}), "shipquote_labels_total")
	if err != nil {
		return nil, err
	}
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipquote_provider_request_duration_seconds",
		Help:    "Round-trip latency of shipping provider calls.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"operation"})
	if err := reg.Register(durations); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, fmt.Errorf("collector shipquote_provider_request_duration_seconds already registered with incompatible type")
		}
		durations = existing
	}

	return &Collector{
		gatherer:         gatherer,
		Quotes:           quotes,
		Labels:           labels,
		ProviderDuration: durations,
	}, nil
}

func (c *Collector) ObserveQuote(mode, outcome string) {
	if c == nil {
		return
	}
	c.Quotes.WithLabelValues(mode, outcome).Inc()
}

func (c *Collector) ObserveLabel(mode, outcome string) {
	if c == nil {
		return
	}
	c.Labels.WithLabelValues(mode, outcome).Inc()
}

// ObserveProvider matches shippo.Observer.
func (c *Collector) ObserveProvider(operation string, d time.Duration) {
	if c == nil {
		return
	}
	c.ProviderDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
