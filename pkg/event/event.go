// Package event 提供按 lookup.Lookup 寻址的事件存储。
//
// 事件是嵌套的 map[string]any / []any 结构：字段片段对应 map 键，
// 索引片段对应数组下标（负数从末尾计数）。
package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/glesirok/eventlookup/pkg/lookup"
)

var (
	// ErrTypeMismatch 路径经过的节点类型与片段不匹配
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrIndexOutOfRange 负索引超出数组范围
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Event 一条日志事件
type Event struct {
	fields map[string]any
}

// New 创建空事件
func New() *Event {
	return &Event{fields: make(map[string]any)}
}

// FromMap 直接使用 fields，不复制
func FromMap(fields map[string]any) *Event {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Event{fields: fields}
}

// FromJSON 解码一个 JSON 对象；数字保留为 json.Number
func FromJSON(data []byte) (*Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode json event: %w", err)
	}
	return FromMap(fields), nil
}

// FromYAMLNode 从 YAML 文档节点解码；非字符串键的映射转成 map[string]any
func FromYAMLNode(node *yaml.Node) (*Event, error) {
	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode yaml event: %w", err)
	}
	for k, v := range fields {
		fields[k] = normalize(v)
	}
	return FromMap(fields), nil
}

// Fields 返回底层 map
func (e *Event) Fields() map[string]any { return e.fields }

func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.fields)
}

func (e *Event) MarshalYAML() (interface{}, error) {
	return e.fields, nil
}

// Get 按路径取值；根路径返回整个 map
func (e *Event) Get(path lookup.Lookup) (any, bool) {
	return find(e.fields, path.Segments())
}

// Contains 报告路径是否存在
func (e *Event) Contains(path lookup.Lookup) bool {
	_, ok := e.Get(path)
	return ok
}

// Set 写入值并返回旧值，缺失的中间节点会被创建
func (e *Event) Set(path lookup.Lookup, value any) (any, error) {
	segments := path.Segments()
	if len(segments) == 0 {
		fields, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("set root to %T: %w", value, ErrTypeMismatch)
		}
		if fields == nil {
			fields = make(map[string]any)
		}
		prev := e.fields
		e.fields = fields
		return prev, nil
	}

	_, prev, err := insert(e.fields, segments, value)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}
	return prev, nil
}

// Remove 删除路径上的值，数组元素删除后后续元素前移；根路径不可删除
func (e *Event) Remove(path lookup.Lookup) (any, bool) {
	segments := path.Segments()
	if len(segments) == 0 {
		return nil, false
	}
	_, removed, ok := remove(e.fields, segments)
	return removed, ok
}

// Paths 返回所有叶子路径，map 键按字典序遍历
func (e *Event) Paths() []lookup.Lookup {
	var (
		paths []lookup.Lookup
		cur   lookup.Lookup
	)
	collectPaths(e.fields, &cur, &paths)
	return paths
}

// Clone 深复制
func (e *Event) Clone() *Event {
	return &Event{fields: CloneValue(e.fields).(map[string]any)}
}

func collectPaths(node any, cur *lookup.Lookup, paths *[]lookup.Lookup) {
	switch n := node.(type) {
	case map[string]any:
		if len(n) == 0 && !cur.IsRoot() {
			*paths = append(*paths, *cur)
			return
		}
		for _, key := range slices.Sorted(maps.Keys(n)) {
			cur.PushField(key)
			collectPaths(n[key], cur, paths)
			cur.Pop()
		}
	case []any:
		if len(n) == 0 {
			*paths = append(*paths, *cur)
			return
		}
		for i, elem := range n {
			cur.PushIndex(i)
			collectPaths(elem, cur, paths)
			cur.Pop()
		}
	default:
		*paths = append(*paths, *cur)
	}
}

// CloneValue 深复制 map 和数组，标量原样返回。
// 写入多个事件的同一个值（例如规则里的 value）必须先复制。
func CloneValue(v any) any {
	switch n := v.(type) {
	case map[string]any:
		if n == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(n))
		for k, child := range n {
			out[k] = CloneValue(child)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, child := range n {
			out[keyString(k)] = CloneValue(child)
		}
		return out
	case []any:
		if n == nil {
			return []any(nil)
		}
		out := make([]any, len(n))
		for i, child := range n {
			out[i] = CloneValue(child)
		}
		return out
	default:
		return v
	}
}

// normalize 原地把 map[any]any 换成 map[string]any
func normalize(v any) any {
	switch n := v.(type) {
	case map[string]any:
		for k, child := range n {
			n[k] = normalize(child)
		}
		return n
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, child := range n {
			out[keyString(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range n {
			n[i] = normalize(child)
		}
		return n
	default:
		return v
	}
}

// keyString YAML 标量键的文本形式，null 键记为 "null"
func keyString(k any) string {
	switch k := k.(type) {
	case nil:
		return "null"
	case string:
		return k
	default:
		return fmt.Sprint(k)
	}
}
