package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registerOnce        sync.Once
	promptWriteRequests *prometheus.CounterVec
	moderationDecisions *prometheus.CounterVec
	promptReactions     *prometheus.CounterVec
)

const namespaceMetrics = "juristhub"

// MustRegister initializes the Prometheus collectors. Call once at startup.
func MustRegister() {
	registerOnce.Do(func() {
		promptWriteRequests = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "prompts",
					Name:      "write_requests_total",
					Help:      "Prompt create/update/delete calls, labelled by operation and result.",
				},
				[]string{"operation", "result"},
			),
		)
		moderationDecisions = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "moderation",
					Name:      "decisions_total",
					Help:      "Approve/reject decisions, labelled by decision and result.",
				},
				[]string{"decision", "result"},
			),
		)
		promptReactions = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "prompts",
					Name:      "reactions_total",
					Help:      "Like/favorite toggles, labelled by reaction kind.",
				},
				[]string{"reaction"},
			),
		)

		registerRuntimeCollectors()
	})
}

// RecordPromptWrite counts a create/update/delete outcome.
func RecordPromptWrite(operation, result string) {
	if promptWriteRequests == nil {
		return
	}
	promptWriteRequests.WithLabelValues(normalizeLabel(operation, "unknown"), normalizeLabel(result, "unknown")).Inc()
}

// RecordModeration counts an approve/reject outcome.
func RecordModeration(decision, result string) {
	if moderationDecisions == nil {
		return
	}
	moderationDecisions.WithLabelValues(normalizeLabel(decision, "unknown"), normalizeLabel(result, "unknown")).Inc()
}

// RecordReaction counts a like/unlike/favorite/unfavorite toggle.
func RecordReaction(reaction string) {
	if promptReactions == nil {
		return
	}
	promptReactions.WithLabelValues(normalizeLabel(reaction, "unknown")).Inc()
}

func normalizeLabel(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func registerCounterVec(vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(vec); err != nil {
		if existing := alreadyRegisteredCounterVec(err); existing != nil {
			return existing
		}
		panic(err)
	}
	return vec
}

func registerRuntimeCollectors() {
	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		if !isAlreadyRegistered(err) {
			panic(err)
		}
	}
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		if !isAlreadyRegistered(err) {
			panic(err)
		}
	}
}

func alreadyRegisteredCounterVec(err error) *prometheus.CounterVec {
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing
		}
	}
	return nil
}

func isAlreadyRegistered(err error) bool {
	_, ok := err.(prometheus.AlreadyRegisteredError)
	return ok
}
