// Package lookup 实现事件字段路径：解析、规范化输出和序列化。
//
// Lookup 是 Segment 的有序序列，零值表示根路径。Lookup 按值传递，
// 任何副本都不会观察到其他副本上的 Push/Pop。
package lookup

import (
	"encoding/binary"
	"hash/maphash"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Lookup 表示解析后的完整路径
type Lookup struct {
	segments []Segment
}

// New 由片段直接构造路径
func New(segments ...Segment) Lookup {
	if len(segments) == 0 {
		return Lookup{}
	}
	return Lookup{segments: slices.Clone(segments)}
}

// Root 返回根路径
func Root() Lookup { return Lookup{} }

// Segments 返回只读视图，调用方不得修改
func (l Lookup) Segments() []Segment {
	n := len(l.segments)
	return l.segments[:n:n]
}

func (l Lookup) Len() int { return len(l.segments) }

func (l Lookup) IsRoot() bool { return len(l.segments) == 0 }

// IsZero 供 yaml omitempty 使用
func (l Lookup) IsZero() bool { return l.IsRoot() }

func (l Lookup) At(i int) Segment { return l.segments[i] }

// Last 返回最后一个片段；根路径返回 false
func (l Lookup) Last() (Segment, bool) {
	if len(l.segments) == 0 {
		return Segment{}, false
	}
	return l.segments[len(l.segments)-1], true
}

// Push 追加片段。容量被截断到长度，append 总会重新分配，
// 因此共享底层数组的其他副本不受影响。
func (l *Lookup) Push(seg Segment) {
	n := len(l.segments)
	l.segments = append(l.segments[:n:n], seg)
}

func (l *Lookup) PushField(name string) { l.Push(FieldSegment(name)) }

func (l *Lookup) PushIndex(i int) { l.Push(IndexSegment(i)) }

// Pop 移除并返回最后一个片段；根路径上什么也不做
func (l *Lookup) Pop() (Segment, bool) {
	n := len(l.segments)
	if n == 0 {
		return Segment{}, false
	}
	seg := l.segments[n-1]
	l.segments = l.segments[: n-1 : n-1]
	return seg, true
}

// Field 返回追加字段后的新路径
func (l Lookup) Field(name string) Lookup {
	l.PushField(name)
	return l
}

// Index 返回追加索引后的新路径
func (l Lookup) Index(i int) Lookup {
	l.PushIndex(i)
	return l
}

// Parent 返回去掉最后一个片段的路径
func (l Lookup) Parent() (Lookup, bool) {
	_, ok := l.Pop()
	return l, ok
}

// Merge 拼接两个路径，不做额外规范化
func Merge(prefix, suffix Lookup) Lookup {
	if len(suffix.segments) == 0 {
		return prefix
	}
	if len(prefix.segments) == 0 {
		return suffix
	}
	segments := make([]Segment, 0, len(prefix.segments)+len(suffix.segments))
	segments = append(segments, prefix.segments...)
	segments = append(segments, suffix.segments...)
	return Lookup{segments: segments}
}

func (l Lookup) Concat(suffix Lookup) Lookup { return Merge(l, suffix) }

// StartsWith 报告 prefix 的片段序列是否是 l 的前缀
func (l Lookup) StartsWith(prefix Lookup) bool {
	if len(prefix.segments) > len(l.segments) {
		return false
	}
	return slices.EqualFunc(l.segments[:len(prefix.segments)], prefix.segments, Segment.Equal)
}

func (l Lookup) Equal(other Lookup) bool {
	return slices.EqualFunc(l.segments, other.segments, Segment.Equal)
}

// Compare 逐片段比较，前缀排在前面
func (l Lookup) Compare(other Lookup) int {
	return slices.CompareFunc(l.segments, other.segments, Segment.Compare)
}

// Hash 只依赖逻辑片段序列，与 Equal 一致
func (l Lookup) Hash(seed maphash.Seed) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	var buf [binary.MaxVarintLen64]byte
	for _, seg := range l.segments {
		h.WriteByte(byte(seg.kind))
		if seg.kind == SegmentIndex {
			h.Write(binary.AppendVarint(buf[:0], int64(seg.index)))
			continue
		}
		h.Write(binary.AppendUvarint(buf[:0], uint64(len(seg.name))))
		h.WriteString(seg.name)
	}
	return h.Sum64()
}

// Borrowed 报告是否仍有片段引用解析输入
func (l Lookup) Borrowed() bool {
	for _, seg := range l.segments {
		if seg.borrowed {
			return true
		}
	}
	return false
}

// Detach 返回不再引用解析输入的路径，需要长期保存时使用
func (l Lookup) Detach() Lookup {
	if !l.Borrowed() {
		return l
	}
	segments := make([]Segment, len(l.segments))
	for i, seg := range l.segments {
		segments[i] = seg.Detach()
	}
	return Lookup{segments: segments}
}

// String 返回规范文本：字段仅在需要时加引号
func (l Lookup) String() string {
	if len(l.segments) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(l.textLen())
	l.writeTo(&b)
	return b.String()
}

// AppendText 把规范文本追加到 dst
func (l Lookup) AppendText(dst []byte) ([]byte, error) {
	w := appender{buf: slices.Grow(dst, l.textLen())}
	l.writeTo(&w)
	return w.buf, nil
}

type textWriter interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
}

func (l Lookup) writeTo(w textWriter) {
	var num [24]byte
	for i, seg := range l.segments {
		if seg.kind == SegmentIndex {
			w.WriteByte('[')
			w.Write(strconv.AppendInt(num[:0], int64(seg.index), 10))
			w.WriteByte(']')
			continue
		}
		if i > 0 {
			w.WriteByte('.')
		}
		if NeedsQuoting(seg.name) {
			writeQuoted(w, seg.name)
		} else {
			w.WriteString(seg.name)
		}
	}
}

func (l Lookup) textLen() int {
	n := 0
	for _, seg := range l.segments {
		if seg.kind == SegmentIndex {
			n += 8
		} else {
			n += len(seg.name) + 3
		}
	}
	return n
}

func writeQuoted(w textWriter, name string) {
	w.WriteByte('"')
	for {
		i := strings.IndexAny(name, `"\`)
		if i < 0 {
			break
		}
		w.WriteString(name[:i])
		w.WriteByte('\\')
		w.WriteByte(name[i])
		name = name[i+1:]
	}
	w.WriteString(name)
	w.WriteByte('"')
}

// appender 让 writeTo 直接写入 []byte
type appender struct {
	buf []byte
}

func (a *appender) Write(p []byte) (int, error) {
	a.buf = append(a.buf, p...)
	return len(p), nil
}

func (a *appender) WriteByte(c byte) error {
	a.buf = append(a.buf, c)
	return nil
}

func (a *appender) WriteString(s string) (int, error) {
	a.buf = append(a.buf, s...)
	return len(s), nil
}
