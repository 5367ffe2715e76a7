package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidMetric 指标值无法被下游接受
var ErrInvalidMetric = errors.New("invalid metric")

// MetricKind 指标是增量还是绝对值
type MetricKind uint8

const (
	MetricKindIncremental MetricKind = iota
	MetricKindAbsolute
)

func (k MetricKind) String() string {
	switch k {
	case MetricKindIncremental:
		return "incremental"
	case MetricKindAbsolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// MetricType 指标值的种类
type MetricType uint8

const (
	MetricTypeCounter MetricType = iota
	MetricTypeGauge
	MetricTypeSet
	MetricTypeDistribution
)

func (t MetricType) String() string {
	switch t {
	case MetricTypeCounter:
		return "counter"
	case MetricTypeGauge:
		return "gauge"
	case MetricTypeSet:
		return "set"
	case MetricTypeDistribution:
		return "distribution"
	default:
		return "unknown"
	}
}

// MetricValue 指标值。Value 用于 counter/gauge，Values 用于 set，Samples 用于 distribution
type MetricValue struct {
	Type    MetricType
	Value   float64
	Values  []string
	Samples []float64
}

// Validate 检查指标值能否按 kind 发送
func (v *MetricValue) Validate(kind MetricKind) error {
	switch v.Type {
	case MetricTypeCounter:
		if err := checkFinite(v.Value); err != nil {
			return err
		}
		if v.Value < 0 {
			return fmt.Errorf("negative counter %v: %w", v.Value, ErrInvalidMetric)
		}
	case MetricTypeGauge:
		return checkFinite(v.Value)
	case MetricTypeSet:
		if kind == MetricKindAbsolute {
			return fmt.Errorf("absolute set: %w", ErrInvalidMetric)
		}
	case MetricTypeDistribution:
		if len(v.Samples) == 0 {
			return fmt.Errorf("empty distribution: %w", ErrInvalidMetric)
		}
		for _, s := range v.Samples {
			if err := checkFinite(s); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("metric type %d: %w", v.Type, ErrInvalidMetric)
	}
	return nil
}

func (v *MetricValue) String() string {
	if v == nil {
		return "<nil>"
	}
	switch v.Type {
	case MetricTypeSet:
		return v.Type.String() + "{" + strings.Join(v.Values, ",") + "}"
	case MetricTypeDistribution:
		parts := make([]string, len(v.Samples))
		for i, s := range v.Samples {
			parts[i] = strconv.FormatFloat(s, 'g', -1, 64)
		}
		return v.Type.String() + "{" + strings.Join(parts, ",") + "}"
	default:
		return v.Type.String() + "{" + strconv.FormatFloat(v.Value, 'g', -1, 64) + "}"
	}
}

func checkFinite(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite value %v: %w", f, ErrInvalidMetric)
	}
	return nil
}

// Metric 识别指标事件：顶层 kind 为 incremental/absolute，且恰好带有
// counter、gauge、set、distribution 中的一个对象。不是指标事件时 ok 为 false。
// 无法解析的数值记为 NaN，由 Validate 拒绝。
func (e *Event) Metric() (value *MetricValue, kind MetricKind, ok bool) {
	switch e.fields["kind"] {
	case "incremental":
		kind = MetricKindIncremental
	case "absolute":
		kind = MetricKindAbsolute
	default:
		return nil, 0, false
	}

	for _, typ := range []MetricType{MetricTypeCounter, MetricTypeGauge, MetricTypeSet, MetricTypeDistribution} {
		body, found := e.fields[typ.String()].(map[string]any)
		if !found {
			continue
		}
		if value != nil {
			return nil, 0, false
		}
		value = metricValue(typ, body)
	}
	if value == nil {
		return nil, 0, false
	}
	return value, kind, true
}

func metricValue(typ MetricType, body map[string]any) *MetricValue {
	v := &MetricValue{Type: typ}
	switch typ {
	case MetricTypeCounter, MetricTypeGauge:
		v.Value = toFloat(body["value"])
	case MetricTypeSet:
		values, _ := body["values"].([]any)
		for _, item := range values {
			v.Values = append(v.Values, fmt.Sprint(item))
		}
	case MetricTypeDistribution:
		samples, _ := body["samples"].([]any)
		for _, sample := range samples {
			if m, ok := sample.(map[string]any); ok {
				sample = m["value"]
			}
			v.Samples = append(v.Samples, toFloat(sample))
		}
	}
	return v
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return math.NaN()
	}
}
