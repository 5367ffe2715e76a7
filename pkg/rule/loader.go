package rule

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/glesirok/eventlookup/pkg/engine"
)

// Config 表示规则配置文件
type Config struct {
	Rules []*engine.Rule `yaml:"rules"`
}

// LoadFromFile 从文件加载规则
func LoadFromFile(filePath string) ([]*engine.Rule, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Load(data)
}

// Load 解析规则配置。路径在这里解析，非法路径在处理任何事件之前就被拒绝
func Load(data []byte) ([]*engine.Rule, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// 校验规则
	for i, rule := range config.Rules {
		if rule == nil {
			return nil, fmt.Errorf("rule %d: empty rule", i)
		}
		if err := Validate(rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return config.Rules, nil
}

// Validate 校验规则的合法性，并预编译正则
func Validate(rule *engine.Rule) error {
	if rule.Path.IsRoot() {
		return fmt.Errorf("path is required")
	}

	switch rule.Action {
	case engine.ActionSet, engine.ActionReplace:
		if rule.Value == nil {
			return fmt.Errorf("value is required for action %s", rule.Action)
		}

	case engine.ActionRename:
		if rule.To.IsRoot() {
			return fmt.Errorf("to is required for rename")
		}
		if rule.To.StartsWith(rule.Path) {
			return fmt.Errorf("cannot rename %s into itself (%s)", rule.Path, rule.To)
		}

	case engine.ActionRegexReplace:
		if rule.Pattern == "" {
			return fmt.Errorf("pattern is required for regex_replace")
		}
		if rule.Value == nil {
			return fmt.Errorf("value (replacement) is required for regex_replace")
		}
		if _, ok := rule.Value.(string); !ok {
			return fmt.Errorf("value must be string for regex_replace")
		}
		if err := rule.Compile(); err != nil {
			return err
		}

	case engine.ActionDelete:
		// delete 不需要 value

	default:
		return fmt.Errorf("unknown action: %s", rule.Action)
	}

	return nil
}
