package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRuleset(3)
	m.ObservePacket()
	m.ObservePacket()
	m.ObserveMatch(2020)
	m.ObserveNoMatch("byte_math")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.signaturesLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.packetsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchesTotal.WithLabelValues("2020")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.noMatchTotal.WithLabelValues("byte_math")))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObservePacket()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "krait_packets_inspected_total 1")
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRuleset(1)
		m.ObservePacket()
		m.ObserveMatch(1)
		m.ObserveNoMatch("content")
	})
}
