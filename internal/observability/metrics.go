// Package observability exposes prometheus metrics for the inspection
// engine.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's instrumentation. A nil *Metrics is valid
// and records nothing, so instrumentation stays optional.
type Metrics struct {
	signaturesLoaded prometheus.Gauge
	packetsTotal     prometheus.Counter
	matchesTotal     *prometheus.CounterVec
	noMatchTotal     *prometheus.CounterVec
}

// NewMetrics registers the engine metrics with reg, defaulting to the
// global registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		signaturesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "krait_signatures_loaded", Help: "Signatures in the active ruleset"},
		),
		packetsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "krait_packets_inspected_total", Help: "Packets inspected"},
		),
		matchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "krait_rule_matches_total", Help: "Rule matches"},
			[]string{"sid"},
		),
		noMatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "krait_eval_nomatch_total", Help: "Signature evaluations halted by a keyword returning no-match"},
			[]string{"keyword"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.signaturesLoaded,
		m.packetsTotal,
		m.matchesTotal,
		m.noMatchTotal,
	)
	return m
}

// Handler serves the metrics endpoint for the given gatherer,
// defaulting to the global gatherer when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveRuleset records the size of the active ruleset.
func (m *Metrics) ObserveRuleset(signatures int) {
	if m == nil {
		return
	}
	m.signaturesLoaded.Set(float64(signatures))
}

// ObservePacket counts one inspected packet.
func (m *Metrics) ObservePacket() {
	if m == nil {
		return
	}
	m.packetsTotal.Inc()
}

// ObserveMatch counts one rule match.
func (m *Metrics) ObserveMatch(sid uint32) {
	if m == nil {
		return
	}
	m.matchesTotal.WithLabelValues(strconv.FormatUint(uint64(sid), 10)).Inc()
}

// ObserveNoMatch counts one signature evaluation halted by the named
// keyword returning no-match. Evaluation-time failures (short buffers,
// overflow, divide-by-zero) surface here because they absorb to
// no-match.
func (m *Metrics) ObserveNoMatch(keywordName string) {
	if m == nil {
		return
	}
	m.noMatchTotal.WithLabelValues(keywordName).Inc()
}
