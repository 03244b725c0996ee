// Package metrics exposes Prometheus metrics for operational tuning.
// Regeneration retries in particular burn provider quota, so every retry
// is counted here as well as logged.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompletionsTotal counts completion calls by model and outcome
	// (ok, empty, error).
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_completions_total",
			Help: "Total chat-completion calls issued",
		},
		[]string{"model", "outcome"},
	)

	// CompletionDuration observes completion latency per model.
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_completion_duration_seconds",
			Help:    "Duration of chat-completion calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// ModerationRetriesTotal counts regenerations by reason (banned, length).
	ModerationRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_moderation_retries_total",
			Help: "Reply regenerations forced by the moderation/length loop",
		},
		[]string{"reason"},
	)

	// RepliesSentTotal counts delivered replies per platform.
	RepliesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_replies_sent_total",
			Help: "Replies delivered to a platform",
		},
		[]string{"platform"},
	)

	// CandidatesSkippedTotal counts inbound candidates dropped before
	// generation (dedup, throttle, blocklist, invalid).
	CandidatesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_candidates_skipped_total",
			Help: "Inbound candidates skipped before any completion call",
		},
		[]string{"reason"},
	)
)
