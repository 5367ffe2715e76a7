package lookup

import (
	"strconv"
	"strings"
	"unsafe"
)

// Parse 解析路径字符串
// 支持语法：
//   - foo.bar.baz
//   - foo[0]、foo[-1]（负数从末尾计数）
//   - "foo.bar".baz（引号内 . [ ] 均为字面量，仅识别 \" 和 \\ 两种转义）
//   - [0].message（允许以索引开头）
//
// 空串解析为根路径。不需要反转义的字段直接引用 text 的子串，不额外分配。
func Parse(text string) (Lookup, error) {
	p := parser{input: text}
	segments, err := p.parse()
	if err != nil {
		return Lookup{}, err
	}
	return Lookup{segments: segments}, nil
}

// ParseBytes 与 Parse 相同，但不复制 b：返回值中的字段名直接引用 b 的内存。
// 在 b 被修改或复用之前，调用方必须先调用 Lookup.Detach。
func ParseBytes(b []byte) (Lookup, error) {
	if len(b) == 0 {
		return Lookup{}, nil
	}
	p := parser{input: unsafe.String(unsafe.SliceData(b), len(b)), volatile: true}
	segments, err := p.parse()
	if err != nil {
		return Lookup{}, err
	}
	return Lookup{segments: segments}, nil
}

// MustParse 解析失败时 panic，只用于常量路径
func MustParse(text string) Lookup {
	l, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return l
}

// parser 单遍扫描，只向前看一个字符
type parser struct {
	input string
	pos   int
	// input 指向调用方可能复用的字节缓冲，报错时需要复制
	volatile bool
}

func (p *parser) parse() ([]Segment, error) {
	if len(p.input) == 0 {
		return nil, nil
	}

	segments := make([]Segment, 0, p.estimate())

	// 第一个片段不需要分隔符
	var (
		seg Segment
		err error
	)
	if p.peek() == '[' {
		seg, err = p.parseIndex()
	} else {
		seg, err = p.parseField()
	}
	if err != nil {
		return nil, err
	}
	segments = append(segments, seg)

	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '.':
			p.pos++
			seg, err = p.parseField()
		case '[':
			seg, err = p.parseIndex()
		default:
			return nil, p.fail(TrailingInput, p.pos)
		}
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

// estimate 预估片段数，保证 segments 只分配一次
func (p *parser) estimate() int {
	n := 1
	for i := 0; i < len(p.input); i++ {
		if c := p.input[i]; c == '.' || c == '[' {
			n++
		}
	}
	return n
}

// parseField 解析裸字段或引号字段
func (p *parser) parseField() (Segment, error) {
	if p.pos >= len(p.input) {
		return Segment{}, p.fail(EmptySegment, p.pos)
	}

	ch := p.input[p.pos]
	switch {
	case ch == '.' || ch == '[':
		return Segment{}, p.fail(EmptySegment, p.pos)
	case ch == '"':
		return p.parseQuoted()
	case isDigit(ch) || !isBareChar(ch):
		return Segment{}, p.fail(UnexpectedCharacter, p.pos)
	}

	start := p.pos
	for p.pos < len(p.input) && isBareChar(p.input[p.pos]) {
		p.pos++
	}
	return Segment{
		kind:     SegmentField,
		name:     p.input[start:p.pos],
		borrowed: true,
	}, nil
}

// parseQuoted 解析 "..."；没有转义时直接截取子串
func (p *parser) parseQuoted() (Segment, error) {
	open := p.pos
	p.pos++
	start := p.pos

	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '"':
			name := p.input[start:p.pos]
			p.pos++
			return Segment{kind: SegmentField, name: name, quoted: true, borrowed: true}, nil
		case '\\':
			return p.parseEscaped(open, start)
		}
		p.pos++
	}

	return Segment{}, p.fail(UnterminatedQuote, open)
}

// parseEscaped 从第一个反斜杠开始，反转义到独立分配的字符串中
func (p *parser) parseEscaped(open, start int) (Segment, error) {
	var b strings.Builder
	b.Grow(p.pos - start + 16)
	b.WriteString(p.input[start:p.pos])

	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		switch ch {
		case '"':
			p.pos++
			return Segment{kind: SegmentField, name: b.String(), quoted: true}, nil
		case '\\':
			if p.pos+1 >= len(p.input) {
				return Segment{}, p.fail(UnterminatedQuote, open)
			}
			escaped := p.input[p.pos+1]
			if escaped != '"' && escaped != '\\' {
				return Segment{}, p.fail(UnexpectedCharacter, p.pos+1)
			}
			b.WriteByte(escaped)
			p.pos += 2
		default:
			b.WriteByte(ch)
			p.pos++
		}
	}

	return Segment{}, p.fail(UnterminatedQuote, open)
}

// parseIndex 解析 [n] 或 [-n]
func (p *parser) parseIndex() (Segment, error) {
	open := p.pos
	start := open + 1

	end := strings.IndexByte(p.input[start:], ']')
	if end < 0 {
		return Segment{}, p.fail(UnterminatedBracket, open)
	}
	end += start
	body := p.input[start:end]

	digits := 0
	if len(body) > 0 && body[0] == '-' {
		digits = 1
	}
	if digits == len(body) {
		return Segment{}, p.fail(InvalidIndex, end)
	}
	for i := digits; i < len(body); i++ {
		if !isDigit(body[i]) {
			return Segment{}, p.fail(InvalidIndex, start+i)
		}
	}

	// 到这里只剩溢出一种失败
	idx, err := strconv.Atoi(body)
	if err != nil {
		return Segment{}, p.fail(InvalidIndex, start)
	}

	p.pos = end + 1
	return Segment{kind: SegmentIndex, index: idx}, nil
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) fail(kind ErrorKind, offset int) error {
	input := p.input
	if p.volatile {
		input = strings.Clone(input)
	}
	return &ParseError{Kind: kind, Offset: offset, Input: input}
}
