package lookup

import (
	"strconv"
	"strings"
)

// SegmentKind 区分字段片段和索引片段
type SegmentKind uint8

const (
	SegmentField SegmentKind = iota // 字段访问，如 foo
	SegmentIndex                    // 数组索引，如 [0] 或 [-1]
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentField:
		return "field"
	case SegmentIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Segment 表示路径中的一步
//
// 字段名始终保存反转义后的逻辑值。borrowed 为 true 时 name 直接引用解析输入的内存，
// 只影响内存归属，不参与比较、排序和哈希。
type Segment struct {
	kind     SegmentKind
	name     string
	index    int
	quoted   bool
	borrowed bool
}

// FieldSegment 构造字段片段，name 为逻辑值（不含转义）
func FieldSegment(name string) Segment {
	return Segment{
		kind:   SegmentField,
		name:   name,
		quoted: NeedsQuoting(name),
	}
}

// IndexSegment 构造索引片段，负数表示从末尾计数
func IndexSegment(i int) Segment {
	return Segment{kind: SegmentIndex, index: i}
}

func (s Segment) Kind() SegmentKind { return s.kind }

func (s Segment) IsField() bool { return s.kind == SegmentField }

func (s Segment) IsIndex() bool { return s.kind == SegmentIndex }

// Name 返回字段名；索引片段返回空串
func (s Segment) Name() string { return s.name }

// Index 返回索引值；字段片段返回 0
func (s Segment) Index() int { return s.index }

// Quoted 报告字段在文本形式中是否带引号（原文带引号，或名字本身需要引号）
func (s Segment) Quoted() bool { return s.quoted }

// Borrowed 报告字段名是否引用了解析输入的内存
func (s Segment) Borrowed() bool { return s.borrowed }

// Detach 返回字段名独立分配的副本
func (s Segment) Detach() Segment {
	if s.borrowed {
		s.name = strings.Clone(s.name)
		s.borrowed = false
	}
	return s
}

// Equal 按逻辑值比较
func (s Segment) Equal(other Segment) bool {
	if s.kind != other.kind {
		return false
	}
	if s.kind == SegmentIndex {
		return s.index == other.index
	}
	return s.name == other.name
}

// Compare 索引排在字段之前；索引按数值，字段按字节序
func (s Segment) Compare(other Segment) int {
	if s.kind != other.kind {
		if s.kind == SegmentIndex {
			return -1
		}
		return 1
	}
	if s.kind == SegmentIndex {
		switch {
		case s.index < other.index:
			return -1
		case s.index > other.index:
			return 1
		}
		return 0
	}
	return strings.Compare(s.name, other.name)
}

// String 返回单个片段的规范文本（字段不带前导 .）
func (s Segment) String() string {
	if s.kind == SegmentIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	if !NeedsQuoting(s.name) {
		return s.name
	}
	var b strings.Builder
	writeQuoted(&b, s.name)
	return b.String()
}

// NeedsQuoting 报告字段名在规范文本中是否必须加引号：
// 空名、数字开头，或含有裸字符集之外的字节
func NeedsQuoting(name string) bool {
	if name == "" || isDigit(name[0]) {
		return true
	}
	for i := 0; i < len(name); i++ {
		if !isBareChar(name[i]) {
			return true
		}
	}
	return false
}

// isBareChar 裸字段允许的字符：ASCII 字母、数字、_ 和 -
func isBareChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_' || c == '-'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
