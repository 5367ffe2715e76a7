package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// GrammarVersion 标识路径文本语法的版本。
// 序列化形式就是规范文本，语法变化即线格式变化，必须递增此版本。
const GrammarVersion = 1

// ErrInvalidUTF8 字段名含有非法 UTF-8，JSON 字符串无法无损表示
var ErrInvalidUTF8 = errors.New("lookup: path is not valid UTF-8")

// MarshalText 输出规范文本；encoding/json 也用它处理 map 键
func (l Lookup) MarshalText() ([]byte, error) {
	return l.AppendText(nil)
}

// UnmarshalText 复制 text 后解析，结果不引用调用方的缓冲
func (l *Lookup) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalJSON 序列化为 JSON 字符串，而不是片段数组。
// encoding/json 会把非法 UTF-8 替换成 U+FFFD，这里直接报错
func (l Lookup) MarshalJSON() ([]byte, error) {
	text := l.String()
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUTF8, text)
	}
	return json.Marshal(text)
}

// UnmarshalJSON 只接受 JSON 字符串；null 保持原值不变
func (l *Lookup) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("lookup: decode json: %w", err)
	}
	parsed, err := Parse(text)
	if err != nil {
		return fmt.Errorf("lookup: decode json: %w", err)
	}
	*l = parsed
	return nil
}

// MarshalYAML 序列化为 YAML 标量字符串
func (l Lookup) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// UnmarshalYAML 只接受标量节点；解析错误附带行号
func (l *Lookup) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("lookup: line %d: expected scalar path, got %s", node.Line, kindName(node.Kind))
	}
	if node.Tag == "!!null" {
		return nil
	}
	parsed, err := Parse(node.Value)
	if err != nil {
		return fmt.Errorf("lookup: line %d: %w", node.Line, err)
	}
	*l = parsed
	return nil
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind %d", kind)
	}
}
