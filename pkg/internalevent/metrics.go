package internalevent

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eventlookup"

// 组件种类标签
const (
	ComponentSource    = "source"
	ComponentTransform = "transform"
	ComponentSink      = "sink"
)

// Metrics 计数器集合，由调用方注入 Registerer，不使用全局注册表。
// nil *Metrics 的所有方法都是空操作。
type Metrics struct {
	processingErrors *prometheus.CounterVec
	eventsProcessed  *prometheus.CounterVec
	processedBytes   *prometheus.CounterVec
}

// NewMetrics 创建并注册计数器
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		processingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processing_errors_total",
			Help:      "Total processing errors by component and error type",
		}, []string{"component_kind", "component_type", "error_type"}),
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Total events processed by component",
		}, []string{"component_kind", "component_type"}),
		processedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processed_bytes_total",
			Help:      "Total bytes processed by component",
		}, []string{"component_kind", "component_type"}),
	}

	for _, c := range []prometheus.Collector{m.processingErrors, m.eventsProcessed, m.processedBytes} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// ProcessingError processing_errors_total 加一
func (m *Metrics) ProcessingError(componentKind, componentType, errorType string) {
	if m == nil {
		return
	}
	m.processingErrors.WithLabelValues(componentKind, componentType, errorType).Inc()
}

// Processed 累加事件数和字节数
func (m *Metrics) Processed(componentKind, componentType string, count, bytes int) {
	if m == nil {
		return
	}
	m.eventsProcessed.WithLabelValues(componentKind, componentType).Add(float64(count))
	m.processedBytes.WithLabelValues(componentKind, componentType).Add(float64(bytes))
}
