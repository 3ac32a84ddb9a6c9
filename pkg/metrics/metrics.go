package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 领域指标：轮询、催办、动作下发。
// 未接入 OTLP 时全部落在全局 no-op provider 上，调用零开销。

var (
	meter = otel.Meter("shiftpulse")

	pollTotal        metric.Int64Counter
	pollFailures     metric.Int64Counter
	pollSessions     metric.Int64UpDownCounter
	escalationsArmed metric.Int64Counter
	followupsFired   metric.Int64Counter
	escalationResets metric.Int64Counter
	actionsTotal     metric.Int64Counter
	actionFailures   metric.Int64Counter
)

func init() {
	pollTotal, _ = meter.Int64Counter(
		"attendance_polls_total",
		metric.WithDescription("Total fact refresh attempts"),
		metric.WithUnit("{poll}"),
	)
	pollFailures, _ = meter.Int64Counter(
		"attendance_poll_failures_total",
		metric.WithDescription("Fact refreshes that failed and kept the stale value"),
		metric.WithUnit("{poll}"),
	)
	pollSessions, _ = meter.Int64UpDownCounter(
		"attendance_poll_sessions",
		metric.WithDescription("Live per-user poll sessions"),
		metric.WithUnit("{session}"),
	)
	escalationsArmed, _ = meter.Int64Counter(
		"break_escalations_armed_total",
		metric.WithDescription("Escalation timers armed"),
		metric.WithUnit("{escalation}"),
	)
	followupsFired, _ = meter.Int64Counter(
		"break_followups_fired_total",
		metric.WithDescription("Delayed follow-up prompts that actually fired"),
		metric.WithUnit("{escalation}"),
	)
	escalationResets, _ = meter.Int64Counter(
		"break_escalation_resets_total",
		metric.WithDescription("Escalations cancelled by compliance or user action"),
		metric.WithUnit("{escalation}"),
	)
	actionsTotal, _ = meter.Int64Counter(
		"attendance_actions_total",
		metric.WithDescription("Mutating actions dispatched upstream"),
		metric.WithUnit("{action}"),
	)
	actionFailures, _ = meter.Int64Counter(
		"attendance_action_failures_total",
		metric.WithDescription("Mutating actions rejected or failed"),
		metric.WithUnit("{action}"),
	)
}

func PollCompleted(fact string, err error) {
	attrs := metric.WithAttributes(attribute.String("fact", fact))
	pollTotal.Add(context.Background(), 1, attrs)
	if err != nil {
		pollFailures.Add(context.Background(), 1, attrs)
	}
}

func PollSessionsActive(delta int64) {
	pollSessions.Add(context.Background(), delta)
}

func EscalationArmed() {
	escalationsArmed.Add(context.Background(), 1)
}

func FollowupFired() {
	followupsFired.Add(context.Background(), 1)
}

func EscalationReset(cause string) {
	escalationResets.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("cause", cause)))
}

func ActionDispatched(action string, err error) {
	attrs := metric.WithAttributes(attribute.String("action", action))
	actionsTotal.Add(context.Background(), 1, attrs)
	if err != nil {
		actionFailures.Add(context.Background(), 1, attrs)
	}
}
