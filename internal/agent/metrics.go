package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// toolInvocationsTotal counts tool dispatches across all controllers,
// partitioned by tool name and outcome: "ok", "error", or "unknown" for
// tool names no sub-agent owns.
var toolInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tourchat",
	Subsystem: "agent",
	Name:      "tool_invocations_total",
	Help:      "Total number of tool calls dispatched by the agent, partitioned by tool and outcome.",
}, []string{"tool", "outcome"})
