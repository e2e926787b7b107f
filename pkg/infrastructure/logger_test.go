package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("production", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = NewLogger("development", "")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("production", "loud")
	assert.Error(t, err)
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("resume")
	m.SaveResult("inserted")
	m.ExportResult("ok")
	m.CheckoutTransition("approved")
	m.CheckoutTransition("approved")
	m.ObserveHTTP("GET", "/healthz", 200, time.Millisecond)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				names[f.GetName()] += c.GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, names["resume_saves_total"])
	assert.Equal(t, 1.0, names["resume_exports_total"])
	assert.Equal(t, 2.0, names["resume_checkout_transitions_total"])
	assert.Equal(t, 1.0, names["resume_http_requests_total"])
}
