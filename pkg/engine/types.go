package engine

import (
	"github.com/dlclark/regexp2"

	"github.com/glesirok/eventlookup/pkg/lookup"
)

// ActionType 定义操作类型
type ActionType string

const (
	ActionSet          ActionType = "set"
	ActionReplace      ActionType = "replace"
	ActionDelete       ActionType = "delete"
	ActionRename       ActionType = "rename"
	ActionRegexReplace ActionType = "regex_replace"
)

// Rule 表示一条修改规则。Path/To 在加载配置时就完成解析
type Rule struct {
	Action  ActionType    `yaml:"action"`
	Path    lookup.Lookup `yaml:"path"`
	To      lookup.Lookup `yaml:"to,omitempty"`    // 用于 rename
	Value   interface{}   `yaml:"value,omitempty"` // regex_replace 时为替换串
	Pattern string        `yaml:"pattern,omitempty"`

	re *regexp2.Regexp
}
