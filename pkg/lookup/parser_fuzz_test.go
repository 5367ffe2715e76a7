package lookup

import (
	"encoding/json"
	"hash/maphash"
	"math"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

// FuzzParse 对任意输入：解析不 panic；接受的输入其规范文本能解析回相等的值，
// 再次输出不变；序列化后能反序列化回相等的值；借用和持有的结果等价。
func FuzzParse(f *testing.F) {
	for _, fx := range loadFixtures(f) {
		f.Add(fx.text)
	}
	for _, seed := range []string{
		"", ".", "..", "foo..bar", "foo[", "foo[abc]", "foo[-]", "foo[]", `"foo`,
		`"a\q"`, "foo]", "foo bar", " foo", "[0].foo", "foo[007]",
		"foo[99999999999999999999]", `"\xff".x`, `"` + "\x00" + `"`, "测试.字段",
	} {
		f.Add(seed)
	}

	seed := maphash.MakeSeed()
	f.Fuzz(func(t *testing.T, input string) {
		l, err := Parse(input)
		if err != nil {
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			require.ErrorIs(t, err, ErrParse)
			require.GreaterOrEqual(t, perr.Offset, 0)
			require.LessOrEqual(t, perr.Offset, len(input))
			return
		}

		text := l.String()
		again, err := Parse(text)
		require.NoError(t, err, "canonical %q of %q", text, input)
		require.True(t, again.Equal(l), "canonical %q of %q", text, input)
		require.Equal(t, text, again.String())

		borrowed, err := ParseBytes([]byte(input))
		require.NoError(t, err)
		owned := borrowed.Detach()
		require.True(t, owned.Equal(l))
		require.Equal(t, l.Hash(seed), owned.Hash(seed))
		require.Equal(t, text, owned.String())

		checkSerialization(t, l)
	})
}

// FuzzCanonical 覆盖用构造函数拼出来的 Lookup，名字可以含任意字节
func FuzzCanonical(f *testing.F) {
	f.Add("foo", "bar", 0)
	f.Add("foo.bar", `a"b\c`, -1)
	f.Add("", "1abc", math.MaxInt)
	f.Add(" ", "\xff", math.MinInt)

	f.Fuzz(func(t *testing.T, first, second string, index int) {
		l := New(FieldSegment(first), IndexSegment(index), FieldSegment(second))

		text := l.String()
		parsed, err := Parse(text)
		require.NoError(t, err, "canonical %q", text)
		require.True(t, parsed.Equal(l), "canonical %q", text)
		require.Equal(t, text, parsed.String())

		checkSerialization(t, l)
	})
}

func checkSerialization(t *testing.T, l Lookup) {
	t.Helper()

	text, err := l.MarshalText()
	require.NoError(t, err)
	var fromText Lookup
	require.NoError(t, fromText.UnmarshalText(text))
	require.True(t, fromText.Equal(l))

	data, err := json.Marshal(l)
	if !utf8.Valid(text) {
		require.ErrorIs(t, err, ErrInvalidUTF8)
		return
	}
	require.NoError(t, err)
	var fromJSON Lookup
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.True(t, fromJSON.Equal(l), "json %s", data)
}
