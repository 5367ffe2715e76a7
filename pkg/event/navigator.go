package event

import (
	"fmt"
	"slices"
	"strings"

	"github.com/glesirok/eventlookup/pkg/lookup"
)

// find 逐段向下查找
func find(node any, segments []lookup.Segment) (any, bool) {
	for _, seg := range segments {
		if seg.IsField() {
			m, ok := node.(map[string]any)
			if !ok {
				return nil, false
			}
			if node, ok = m[seg.Name()]; !ok {
				return nil, false
			}
			continue
		}

		arr, ok := node.([]any)
		if !ok {
			return nil, false
		}
		idx, ok := resolveIndex(seg.Index(), len(arr))
		if !ok {
			return nil, false
		}
		node = arr[idx]
	}
	return node, true
}

// insert 递归写入，返回（可能被替换的）当前节点和旧值
func insert(node any, segments []lookup.Segment, value any) (any, any, error) {
	seg := segments[0]
	rest := segments[1:]

	if seg.IsField() {
		var m map[string]any
		switch n := node.(type) {
		case nil:
			m = make(map[string]any)
		case map[string]any:
			m = n
			if m == nil {
				m = make(map[string]any)
			}
		default:
			return node, nil, fmt.Errorf("field %s on %T: %w", seg, node, ErrTypeMismatch)
		}

		key := seg.Name()
		child, exists := m[key]
		if !exists && seg.Borrowed() {
			// 新键会长期留在事件里，不能引用解析输入
			key = strings.Clone(key)
		}

		if len(rest) == 0 {
			m[key] = value
			return m, child, nil
		}

		newChild, prev, err := insert(child, rest, value)
		if err != nil {
			return node, nil, err
		}
		m[key] = newChild
		return m, prev, nil
	}

	var arr []any
	switch n := node.(type) {
	case nil:
	case []any:
		arr = n
	default:
		return node, nil, fmt.Errorf("index %s on %T: %w", seg, node, ErrTypeMismatch)
	}

	idx := seg.Index()
	if idx < 0 {
		resolved, ok := resolveIndex(idx, len(arr))
		if !ok {
			return node, nil, fmt.Errorf("index %d with length %d: %w", idx, len(arr), ErrIndexOutOfRange)
		}
		idx = resolved
	}
	// 越界的正索引用 nil 补齐
	for len(arr) <= idx {
		arr = append(arr, nil)
	}

	if len(rest) == 0 {
		prev := arr[idx]
		arr[idx] = value
		return arr, prev, nil
	}

	newChild, prev, err := insert(arr[idx], rest, value)
	if err != nil {
		return node, nil, err
	}
	arr[idx] = newChild
	return arr, prev, nil
}

// remove 递归删除，返回（可能被替换的）当前节点和被删除的值
func remove(node any, segments []lookup.Segment) (any, any, bool) {
	seg := segments[0]
	rest := segments[1:]

	if seg.IsField() {
		m, ok := node.(map[string]any)
		if !ok {
			return node, nil, false
		}
		child, ok := m[seg.Name()]
		if !ok {
			return node, nil, false
		}
		if len(rest) == 0 {
			delete(m, seg.Name())
			return m, child, true
		}
		newChild, removed, ok := remove(child, rest)
		if ok {
			m[seg.Name()] = newChild
		}
		return m, removed, ok
	}

	arr, ok := node.([]any)
	if !ok {
		return node, nil, false
	}
	idx, ok := resolveIndex(seg.Index(), len(arr))
	if !ok {
		return node, nil, false
	}
	if len(rest) == 0 {
		removed := arr[idx]
		return slices.Delete(arr, idx, idx+1), removed, true
	}
	newChild, removed, ok := remove(arr[idx], rest)
	if ok {
		arr[idx] = newChild
	}
	return arr, removed, ok
}

// resolveIndex 把可能为负的索引换算成下标
func resolveIndex(idx, length int) (int, bool) {
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}
