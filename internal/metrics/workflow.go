// Package metrics exposes the Prometheus instruments of the review workflow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workflow counts review transitions, helpful toggles and rating
// recomputes. A nil *Workflow records nothing.
type Workflow struct {
	transitions       *prometheus.CounterVec
	helpfulToggles    *prometheus.CounterVec
	recomputes        *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
}

// NewWorkflow registers the workflow metrics with reg.
func NewWorkflow(reg prometheus.Registerer) *Workflow {
	f := promauto.With(reg)
	return &Workflow{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "review_transitions_total",
			Help: "Review status transitions by source and target status",
		}, []string{"from", "to"}),
		helpfulToggles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "review_helpful_toggles_total",
			Help: "Helpful vote toggles by resulting action",
		}, []string{"action"}),
		recomputes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "park_rating_recomputes_total",
			Help: "Park rating summary recomputes by result",
		}, []string{"result"}),
		recomputeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "park_rating_recompute_duration_seconds",
			Help:    "Duration of park rating summary recomputes in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
}

// Transition records a status change. from is "none" for new reviews and
// to is "deleted" for removals.
func (w *Workflow) Transition(from, to string) {
	if w == nil {
		return
	}
	w.transitions.WithLabelValues(from, to).Inc()
}

// HelpfulToggle records a vote being added or removed.
func (w *Workflow) HelpfulToggle(added bool) {
	if w == nil {
		return
	}
	action := "removed"
	if added {
		action = "added"
	}
	w.helpfulToggles.WithLabelValues(action).Inc()
}

// Recompute records one recompute and how long it took.
func (w *Workflow) Recompute(start time.Time, err error) {
	if w == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	w.recomputes.WithLabelValues(result).Inc()
	w.recomputeDuration.Observe(time.Since(start).Seconds())
}
