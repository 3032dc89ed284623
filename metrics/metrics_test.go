package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	for _, c := range m.PrometheusCollectors() {
		require.NoError(t, reg.Register(c))
	}

	m.OrdersCreated.WithLabelValues("takeaway").Inc()
	m.Connections.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersCreated.WithLabelValues("takeaway")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connections))
}
