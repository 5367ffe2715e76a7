package internalevent

import (
	"errors"
	"log/slog"
	"time"

	"github.com/glesirok/eventlookup/pkg/event"
	"github.com/glesirok/eventlookup/pkg/lookup"
)

// InvalidMetricReceived 组件收到无法发送的指标，事件被丢弃
type InvalidMetricReceived struct {
	Value         *event.MetricValue
	Kind          event.MetricKind
	Err           error
	ComponentKind string
	ComponentType string
}

// StatsdInvalidMetricReceived statsd sink 收到无法编码的指标
func StatsdInvalidMetricReceived(value *event.MetricValue, kind event.MetricKind) InvalidMetricReceived {
	return InvalidMetricReceived{
		Value:         value,
		Kind:          kind,
		ComponentKind: ComponentSink,
		ComponentType: "statsd",
	}
}

func (e InvalidMetricReceived) EmitLogs(logger *slog.Logger) {
	attrs := []any{
		"value", e.Value.String(),
		"kind", e.Kind.String(),
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}
	logger.Warn("Invalid metric received; dropping event.", attrs...)
}

func (e InvalidMetricReceived) EmitMetrics(m *Metrics) {
	m.ProcessingError(e.ComponentKind, e.ComponentType, "invalid_metric")
}

func (e InvalidMetricReceived) RateLimitKey() string {
	return "invalid_metric_received:" + e.ComponentKind + ":" + e.ComponentType
}
func (InvalidMetricReceived) RateLimit() time.Duration { return 30 * time.Second }

// LookupParseFailed 配置中的字段路径无法解析
type LookupParseFailed struct {
	Path          string
	Err           error
	ComponentKind string
	ComponentType string
}

func (e LookupParseFailed) EmitLogs(logger *slog.Logger) {
	attrs := []any{
		"path", e.Path,
		"error", e.Err,
		"component_kind", e.ComponentKind,
		"component_type", e.ComponentType,
	}
	var perr *lookup.ParseError
	if errors.As(e.Err, &perr) {
		attrs = append(attrs, "reason", perr.Kind.String(), "offset", perr.Offset)
	}
	logger.Error("Invalid field path.", attrs...)
}

func (e LookupParseFailed) EmitMetrics(m *Metrics) {
	m.ProcessingError(e.ComponentKind, e.ComponentType, "invalid_lookup")
}

// FieldNotFound 规则引用的字段在事件中不存在
type FieldNotFound struct {
	Path          lookup.Lookup
	Action        string
	ComponentType string
}

func (e FieldNotFound) EmitLogs(logger *slog.Logger) {
	logger.Debug("Field not found; skipping.",
		"path", e.Path.String(),
		"action", e.Action,
	)
}

func (e FieldNotFound) EmitMetrics(m *Metrics) {
	m.ProcessingError(ComponentTransform, e.ComponentType, "field_not_found")
}

func (e FieldNotFound) RateLimitKey() string     { return "field_not_found:" + e.Action }
func (FieldNotFound) RateLimit() time.Duration { return 10 * time.Second }

// RuleApplyFailed 规则执行出错
type RuleApplyFailed struct {
	Rule          int
	Action        string
	Path          lookup.Lookup
	Err           error
	ComponentType string
}

func (e RuleApplyFailed) EmitLogs(logger *slog.Logger) {
	logger.Error("Rule failed; event left unchanged.",
		"rule", e.Rule,
		"action", e.Action,
		"path", e.Path.String(),
		"error", e.Err,
	)
}

func (e RuleApplyFailed) EmitMetrics(m *Metrics) {
	m.ProcessingError(ComponentTransform, e.ComponentType, "rule_failed")
}

// EventsProcessed 一个输入处理完成
type EventsProcessed struct {
	File          string
	Count         int
	Bytes         int
	ComponentType string
}

func (e EventsProcessed) EmitLogs(logger *slog.Logger) {
	logger.Debug("Events processed.", "file", e.File, "count", e.Count, "bytes", e.Bytes)
}

func (e EventsProcessed) EmitMetrics(m *Metrics) {
	m.Processed(ComponentTransform, e.ComponentType, e.Count, e.Bytes)
}
