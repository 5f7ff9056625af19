package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	m := New()
	m.Issuance("issued")
	m.Issuance("issued")
	m.Issuance("resolved")
	m.Activation("ok")
	m.Verification("revoked")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.issuance.WithLabelValues("issued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.issuance.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("revoked")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Issuance("issued")
		m.Activation("ok")
		m.Verification("ok")
		m.Deactivation("ok")
		m.Notification("sent")
		m.ObserveHTTP("GET", "/", "200", time.Millisecond)
		m.SetInventory(map[string]int{"active": 1}, 1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodPost, "/activate", "200", 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `seatlicense_http_requests_total{method="POST",route="/activate",status="200"} 1`)
	assert.Contains(t, body, "seatlicense_http_request_duration_seconds_bucket")
}

func TestSetInventoryReplacesPreviousSnapshot(t *testing.T) {
	m := New()
	m.SetInventory(map[string]int{"active": 3, "revoked": 1}, 4)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.licenses.WithLabelValues("active")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.activeDevices))

	m.SetInventory(map[string]int{"active": 2}, 1)
	assert.Equal(t, 1, testutil.CollectAndCount(m.licenses))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.licenses.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeDevices))
}
