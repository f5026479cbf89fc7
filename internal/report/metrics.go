package report

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a single emitted log
const (
	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
)

// Scopes a log can be attached to
const (
	scopeItem   = "item"
	scopeLaunch = "launch"
)

type metrics struct {
	registry           *prometheus.Registry
	logs               *prometheus.CounterVec
	attachmentBytes    prometheus.Counter
	attachmentFailures prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		logs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rplog",
			Subsystem: "reporter",
			Name:      "logs_total",
			Help:      "Number of log records handed to the reporter",
		}, []string{"scope", "level", "outcome"}),
		attachmentBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rplog",
			Subsystem: "reporter",
			Name:      "attachment_bytes_total",
			Help:      "Attachment bytes successfully sent",
		}),
		attachmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rplog",
			Subsystem: "reporter",
			Name:      "attachment_failures_total",
			Help:      "Attachments that could not be read; the log text was sent without them",
		}),
	}
	m.registry.MustRegister(m.logs, m.attachmentBytes, m.attachmentFailures)
	return m
}

func (m *metrics) recordLog(scope, level, outcome string) {
	m.logs.With(prometheus.Labels{
		"scope":   scope,
		"level":   level,
		"outcome": outcome,
	}).Inc()
}
