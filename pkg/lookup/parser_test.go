package lookup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{name: "empty is root", input: "", want: nil},
		{name: "single field", input: "foo", want: []Segment{FieldSegment("foo")}},
		{
			name:  "fields and index",
			input: "foo.bar[0]",
			want:  []Segment{FieldSegment("foo"), FieldSegment("bar"), IndexSegment(0)},
		},
		{
			name:  "quoted separator",
			input: `"foo.bar".baz`,
			want:  []Segment{FieldSegment("foo.bar"), FieldSegment("baz")},
		},
		{name: "negative index", input: "foo[-1]", want: []Segment{FieldSegment("foo"), IndexSegment(-1)}},
		{
			name:  "consecutive indices",
			input: "matrix[1][22]",
			want:  []Segment{FieldSegment("matrix"), IndexSegment(1), IndexSegment(22)},
		},
		{name: "leading index", input: "[2].msg", want: []Segment{IndexSegment(2), FieldSegment("msg")}},
		{name: "hyphen and underscore", input: "x-request_id", want: []Segment{FieldSegment("x-request_id")}},
		{name: "leading hyphen", input: "-1", want: []Segment{FieldSegment("-1")}},
		{name: "quoted brackets", input: `"a[0]"`, want: []Segment{FieldSegment("a[0]")}},
		{name: "quoted whitespace", input: `" "`, want: []Segment{FieldSegment(" ")}},
		{name: "quoted empty", input: `foo.""`, want: []Segment{FieldSegment("foo"), FieldSegment("")}},
		{name: "quoted leading digit", input: `"0abc"`, want: []Segment{FieldSegment("0abc")}},
		{name: "escaped quote", input: `"a\"b"`, want: []Segment{FieldSegment(`a"b`)}},
		{name: "escaped backslash", input: `"a\\b"`, want: []Segment{FieldSegment(`a\b`)}},
		{name: "negative zero", input: "a[-0]", want: []Segment{FieldSegment("a"), IndexSegment(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(New(tt.want...)), "Parse(%q) = %v", tt.input, got)
			assert.Equal(t, len(tt.want), got.Len())
		})
	}
}

func TestParseQuotedFlag(t *testing.T) {
	l := MustParse(`"foo.bar".baz."plain"`)
	segs := l.Segments()
	require.Len(t, segs, 3)

	assert.True(t, segs[0].Quoted())
	assert.Equal(t, "foo.bar", segs[0].Name())
	assert.False(t, segs[1].Quoted())
	assert.True(t, segs[2].Quoted(), "source quoting is recorded even when not required")
	assert.Equal(t, `"foo.bar".baz.plain`, l.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   ErrorKind
		offset int
	}{
		{name: "double separator", input: "foo..bar", kind: EmptySegment, offset: 4},
		{name: "leading separator", input: ".foo", kind: EmptySegment, offset: 0},
		{name: "trailing separator", input: "foo.", kind: EmptySegment, offset: 4},
		{name: "separator before bracket", input: "foo.[0]", kind: EmptySegment, offset: 4},
		{name: "non numeric index", input: "foo[abc]", kind: InvalidIndex, offset: 4},
		{name: "empty index", input: "foo[]", kind: InvalidIndex, offset: 4},
		{name: "sign only", input: "foo[-]", kind: InvalidIndex, offset: 5},
		{name: "double sign", input: "foo[--1]", kind: InvalidIndex, offset: 5},
		{name: "plus sign", input: "foo[+1]", kind: InvalidIndex, offset: 4},
		{name: "space in index", input: "foo[ 1]", kind: InvalidIndex, offset: 4},
		{name: "index overflow", input: "foo[99999999999999999999999]", kind: InvalidIndex, offset: 4},
		{name: "unterminated bracket", input: "foo[", kind: UnterminatedBracket, offset: 3},
		{name: "unterminated bracket digits", input: "foo[12", kind: UnterminatedBracket, offset: 3},
		{name: "unterminated quote", input: `foo."bar`, kind: UnterminatedQuote, offset: 4},
		{name: "unterminated after escape", input: `"bar\"`, kind: UnterminatedQuote, offset: 0},
		{name: "dangling backslash", input: `"bar\`, kind: UnterminatedQuote, offset: 0},
		{name: "unknown escape", input: `"a\nb"`, kind: UnexpectedCharacter, offset: 3},
		{name: "leading digit", input: "foo.1abc", kind: UnexpectedCharacter, offset: 4},
		{name: "leading whitespace", input: " foo", kind: UnexpectedCharacter, offset: 0},
		{name: "symbol field", input: "foo.$x", kind: UnexpectedCharacter, offset: 4},
		{name: "stray closing bracket", input: "foo]", kind: TrailingInput, offset: 3},
		{name: "inner whitespace", input: "foo bar", kind: TrailingInput, offset: 3},
		{name: "text after quote", input: `"a"b`, kind: TrailingInput, offset: 3},
		{name: "text after index", input: "a[0]b", kind: TrailingInput, offset: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, got.IsRoot(), "no partial result on error")

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.kind, perr.Kind, perr.Error())
			assert.Equal(t, tt.offset, perr.Offset, perr.Error())
			assert.Equal(t, tt.input, perr.Input)

			assert.ErrorIs(t, err, ErrParse)
			assert.ErrorIs(t, err, tt.kind.sentinel())
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse("foo..bar")
	require.Error(t, err)
	assert.Equal(t, `lookup: empty segment at offset 4 in "foo..bar"`, err.Error())
	assert.NotErrorIs(t, err, ErrInvalidIndex)
}

func TestParseBorrowsPlainFields(t *testing.T) {
	l := MustParse(`foo."bar.baz"."esc\"aped"[1]`)
	segs := l.Segments()
	require.Len(t, segs, 4)

	assert.True(t, segs[0].Borrowed())
	assert.True(t, segs[1].Borrowed(), "quoted without escapes is still a substring")
	assert.False(t, segs[2].Borrowed(), "unescaping forces a copy")
	assert.False(t, segs[3].Borrowed())
	assert.True(t, l.Borrowed())
}

func TestParseAllocations(t *testing.T) {
	plain := testing.AllocsPerRun(100, func() {
		_, _ = Parse("kubernetes.pod_labels[0].name")
	})
	assert.LessOrEqual(t, plain, 1.0, "only the segment slice may be allocated")

	escaped := testing.AllocsPerRun(100, func() {
		_, _ = Parse(`kubernetes."a\"b"`)
	})
	assert.Greater(t, escaped, plain)
}

func TestParseBytes(t *testing.T) {
	buf := []byte("service.name[0]")
	l, err := ParseBytes(buf)
	require.NoError(t, err)
	assert.True(t, l.Borrowed())

	detached := l.Detach()
	assert.False(t, detached.Borrowed())

	// 复用缓冲后，Detach 过的路径不受影响
	copy(buf, "XXXXXXXXXXXXXXX")
	assert.Equal(t, "service.name[0]", detached.String())

	empty, err := ParseBytes(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsRoot())
}

func TestParseBytesErrorOwnsInput(t *testing.T) {
	buf := []byte("foo..bar")
	_, err := ParseBytes(buf)
	require.Error(t, err)

	copy(buf, "XXXXXXXX")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "foo..bar", perr.Input)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("foo[") })
	assert.NotPanics(t, func() { MustParse("foo[0]") })
}
