package lookup

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestJSONRoundTrip(t *testing.T) {
	for _, text := range []string{"", "foo", "foo.bar[0]", `"foo.bar".baz`, `"a\"b"[-1]`, `"<tag>&"`} {
		l := MustParse(text)

		data, err := json.Marshal(l)
		require.NoError(t, err)

		var want string
		require.NoError(t, json.Unmarshal(data, &want))
		assert.Equal(t, l.String(), want, "wire form is the canonical string")

		var got Lookup
		require.NoError(t, json.Unmarshal(data, &got))
		assert.True(t, got.Equal(l), "round trip of %q", text)
	}
}

func TestJSONRejectsInvalidUTF8(t *testing.T) {
	l := New(FieldSegment("a\xffb"))
	_, err := json.Marshal(l)
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	parsed, err := ParseBytes([]byte("ok.\"\xfe\""))
	require.NoError(t, err)
	_, err = json.Marshal(struct{ Path Lookup }{parsed})
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	// 文本形式保留原始字节
	text, err := l.MarshalText()
	require.NoError(t, err)
	var back Lookup
	require.NoError(t, back.UnmarshalText(text))
	assert.True(t, back.Equal(l))
}

func TestJSONInStruct(t *testing.T) {
	type config struct {
		Source Lookup   `json:"source"`
		Drop   []Lookup `json:"drop"`
	}

	in := config{
		Source: MustParse("message.body"),
		Drop:   []Lookup{MustParse("tmp"), MustParse(`"x.y"[2]`)},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"message.body","drop":["tmp","\"x.y\"[2]"]}`, string(data))

	var out config
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Source.Equal(in.Source))
	require.Len(t, out.Drop, 2)
	assert.True(t, out.Drop[1].Equal(in.Drop[1]))
}

func TestJSONDecodeErrors(t *testing.T) {
	var l Lookup
	err := json.Unmarshal([]byte(`"foo..bar"`), &l)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, EmptySegment, perr.Kind)
	assert.Equal(t, 4, perr.Offset)
	assert.ErrorIs(t, err, ErrParse)

	err = json.Unmarshal([]byte(`["foo","bar"]`), &l)
	require.Error(t, err, "structured arrays are not a wire form")

	l = MustParse("kept")
	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	assert.Equal(t, "kept", l.String())
}

func TestTextRoundTrip(t *testing.T) {
	l := MustParse(`foo."bar baz"[3]`)
	text, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, `foo."bar baz"[3]`, string(text))

	var got Lookup
	require.NoError(t, got.UnmarshalText(text))
	assert.True(t, got.Equal(l))

	// 解码结果不能引用调用方缓冲
	copy(text, "XXXXXXXXXXXXXXXX")
	assert.Equal(t, `foo."bar baz"[3]`, got.String())

	assert.ErrorIs(t, got.UnmarshalText([]byte("foo[")), ErrUnterminatedBracket)
}

func TestYAMLRoundTrip(t *testing.T) {
	type rule struct {
		Path Lookup `yaml:"path"`
		To   Lookup `yaml:"to,omitempty"`
	}

	in := rule{Path: MustParse(`"foo.bar".baz[0]`)}
	data, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "to:", "root lookup is omitted")

	var out rule
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.True(t, out.Path.Equal(in.Path))
	assert.True(t, out.To.IsRoot())
}

func TestYAMLDecodeErrors(t *testing.T) {
	var out struct {
		Path Lookup `yaml:"path"`
	}

	err := yaml.Unmarshal([]byte("path: foo[abc]\n"), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	assert.Contains(t, err.Error(), "line 1")

	err = yaml.Unmarshal([]byte("path: [a, b]\n"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected scalar path, got sequence")

	require.NoError(t, yaml.Unmarshal([]byte("path: ''\n"), &out))
	assert.True(t, out.Path.IsRoot())
}
