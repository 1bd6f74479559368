// Package metrics exposes draw counters and latencies to Prometheus.
package metrics

import (
	"shinsen_rewards/internal/domain" // Game modes

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus"          // Metrics registry
	"github.com/prometheus/client_golang/prometheus/promhttp" // Scrape handler
)

// Recorder implements draw.Observer
type Recorder struct {
	draws    *prometheus.CounterVec   // rewards_draws_total
	duration *prometheus.HistogramVec // rewards_draw_duration_seconds
}

// NewRecorder registers the draw collectors on reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rewards",
			Name:      "draws_total",
			Help:      "Finished draws by game, outcome and payout kind.",
		}, []string{"game", "outcome", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rewards",
			Name:      "draw_duration_seconds",
			Help:      "Time spent inside the draw transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"game"}),
	}
	reg.MustRegister(r.draws, r.duration)
	return r
}

// ObserveDraw records one finished draw
func (r *Recorder) ObserveDraw(mode domain.GameMode, outcome string, kind domain.PayoutKind, seconds float64) {
	r.draws.WithLabelValues(string(mode), outcome, string(kind)).Inc()
	r.duration.WithLabelValues(string(mode)).Observe(seconds)
}

// Handler serves the registry in the Prometheus text format
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
