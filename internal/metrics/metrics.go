// README: Prometheus instrumentation for the search pipeline, grounded on
// the promauto.NewHistogramVec / NewCounterVec style used by the pack's
// tempo query-frontend sharder (modules/frontend/searchsharding.go) —
// generalized here from per-tenant query throughput to per-stage pipeline
// latency and per-failure-reason request counts.
package metrics

import (
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "platefinder",
		Name:      "pipeline_stage_duration_seconds",
		Help:      "Per-stage wall-clock duration of the search pipeline.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platefinder",
		Name:      "pipeline_requests_total",
		Help:      "Total pipeline runs, partitioned by failure reason (NONE on success).",
	}, []string{"failure_reason"})
)

// Pipeline implements search.Metrics, writing the counters above. It has no
// other state — registration happens once via promauto's default registerer.
type Pipeline struct{}

func NewPipeline() Pipeline { return Pipeline{} }

func (Pipeline) ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (Pipeline) IncRequest(failureReason string) {
	requestsTotal.WithLabelValues(failureReason).Inc()
}

// Snapshot is the plain-value form returned by GET /api/v1/search/stats;
// gathered from the default Prometheus registry rather than duplicating
// counters in a second place.
type Snapshot struct {
	RequestsByFailureReason map[string]float64 `json:"requestsByFailureReason"`
}

// Gather reads the current counter values back out of requestsTotal. Errors
// reading a metric family are treated as "not yet observed" (zero value),
// since /stats is a best-effort diagnostic endpoint, not a correctness path.
func Gather() Snapshot {
	snap := Snapshot{RequestsByFailureReason: map[string]float64{}}
	metricCh := make(chan prometheus.Metric, 64)
	go func() {
		requestsTotal.Collect(metricCh)
		close(metricCh)
	}()
	for m := range metricCh {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			continue
		}
		reason := "unknown"
		for _, lp := range pb.GetLabel() {
			if lp.GetName() == "failure_reason" {
				reason = lp.GetValue()
			}
		}
		if pb.Counter != nil {
			snap.RequestsByFailureReason[reason] = pb.Counter.GetValue()
		}
	}
	return snap
}
