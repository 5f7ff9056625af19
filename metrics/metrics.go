package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seatlicense"

// Metrics 라이선스 서버 Prometheus 지표 묶음. nil 수신자의 메서드 호출은 아무것도 하지 않습니다.
type Metrics struct {
	registry *prometheus.Registry

	issuance      *prometheus.CounterVec
	activations   *prometheus.CounterVec
	verifications *prometheus.CounterVec
	deactivations *prometheus.CounterVec
	notifications *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	licenses      *prometheus.GaugeVec
	activeDevices prometheus.Gauge
}

// New 전용 레지스트리에 지표를 등록합니다.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		issuance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_issuance_total",
			Help:      "Payment events processed by outcome (issued, resolved, ignored, rejected, error).",
		}, []string{"outcome"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Activation attempts by result.",
		}, []string{"result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Token verifications by result.",
		}, []string{"result"}),
		deactivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deactivations_total",
			Help:      "Deactivation requests by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Buyer notifications by result (sent, failed, dropped).",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		licenses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "licenses",
			Help:      "Stored licenses by status, refreshed periodically.",
		}, []string{"status"}),
		activeDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_devices",
			Help:      "Occupied device seats across all licenses, refreshed periodically.",
		}),
	}

	registry.MustRegister(
		m.issuance,
		m.activations,
		m.verifications,
		m.deactivations,
		m.notifications,
		m.httpRequests,
		m.httpDuration,
		m.licenses,
		m.activeDevices,
	)
	return m
}

// Handler /metrics 노출 핸들러
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Issuance(outcome string) {
	if m != nil {
		m.issuance.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Activation(result string) {
	if m != nil {
		m.activations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Verification(result string) {
	if m != nil {
		m.verifications.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Deactivation(result string) {
	if m != nil {
		m.deactivations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Notification(result string) {
	if m != nil {
		m.notifications.WithLabelValues(result).Inc()
	}
}

// ObserveHTTP 요청 한 건을 기록합니다. route는 라우터 패턴이어야 합니다 (경로 원문 사용 금지).
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetInventory 저장소 집계 결과로 게이지를 갱신합니다. 이전에 보고된 상태 중 사라진 값은 0이 됩니다.
func (m *Metrics) SetInventory(byStatus map[string]int, devices int) {
	if m == nil {
		return
	}
	m.licenses.Reset()
	for status, n := range byStatus {
		m.licenses.WithLabelValues(status).Set(float64(n))
	}
	m.activeDevices.Set(float64(devices))
}
