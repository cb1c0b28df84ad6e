package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ThreatsDetected counts detected security events by type and severity.
	ThreatsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_threats_detected_total",
			Help: "Total number of detected security events",
		},
		[]string{"type", "severity"},
	)

	// RequestsBlocked counts pipeline rejections by reason.
	RequestsBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_requests_blocked_total",
			Help: "Total number of requests rejected by the security pipeline",
		},
		[]string{"reason"},
	)

	// BackgroundDrops counts swallowed background-write failures by sink.
	// Best-effort writes never fail requests; drops surface here instead.
	BackgroundDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_background_drop_total",
			Help: "Total number of dropped background writes",
		},
		[]string{"sink"},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
