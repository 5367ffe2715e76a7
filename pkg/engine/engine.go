package engine

import (
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"

	"github.com/glesirok/eventlookup/pkg/event"
)

// ErrNotFound 规则要求存在的字段不存在
var ErrNotFound = errors.New("field not found")

// Engine 执行事件修改操作
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Apply 应用规则到事件
func (e *Engine) Apply(ev *event.Event, rule *Rule) error {
	switch rule.Action {
	case ActionSet:
		return e.set(ev, rule)
	case ActionReplace:
		return e.replace(ev, rule)
	case ActionDelete:
		return e.delete(ev, rule)
	case ActionRename:
		return e.rename(ev, rule)
	case ActionRegexReplace:
		return e.regexReplace(ev, rule)
	default:
		return fmt.Errorf("unknown action: %s", rule.Action)
	}
}

// set 写入规则值的副本，缺失的中间节点自动创建
func (e *Engine) set(ev *event.Event, rule *Rule) error {
	if _, err := ev.Set(rule.Path, event.CloneValue(rule.Value)); err != nil {
		return err
	}
	return nil
}

// replace 只替换已存在的字段
func (e *Engine) replace(ev *event.Event, rule *Rule) error {
	if !ev.Contains(rule.Path) {
		return fmt.Errorf("replace %s: %w", rule.Path, ErrNotFound)
	}
	return e.set(ev, rule)
}

// delete 删除字段，字段不存在不报错
func (e *Engine) delete(ev *event.Event, rule *Rule) error {
	ev.Remove(rule.Path)
	return nil
}

// rename 移动字段；写入失败时放回原处
func (e *Engine) rename(ev *event.Event, rule *Rule) error {
	value, ok := ev.Remove(rule.Path)
	if !ok {
		return fmt.Errorf("rename %s: %w", rule.Path, ErrNotFound)
	}
	if _, err := ev.Set(rule.To, value); err != nil {
		if _, restoreErr := ev.Set(rule.Path, value); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return err
	}
	return nil
}

// regexReplace 正则替换字符串值；数组中的字符串逐个替换，其他类型跳过
func (e *Engine) regexReplace(ev *event.Event, rule *Rule) error {
	value, ok := ev.Get(rule.Path)
	if !ok {
		return fmt.Errorf("regex_replace %s: %w", rule.Path, ErrNotFound)
	}

	re, err := rule.regexp()
	if err != nil {
		return err
	}

	replacement, ok := rule.Value.(string)
	if !ok {
		return fmt.Errorf("replacement must be string")
	}

	switch v := value.(type) {
	case string:
		replaced, err := re.Replace(v, replacement, -1, -1)
		if err != nil {
			return fmt.Errorf("regex_replace %s: %w", rule.Path, err)
		}
		_, err = ev.Set(rule.Path, replaced)
		return err
	case []any:
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			replaced, err := re.Replace(s, replacement, -1, -1)
			if err != nil {
				return fmt.Errorf("regex_replace %s: %w", rule.Path.Index(i), err)
			}
			v[i] = replaced
		}
	}
	return nil
}

// regexp 返回预编译的正则；未经 Validate 的规则在这里编译
func (r *Rule) regexp() (*regexp2.Regexp, error) {
	if r.re != nil {
		return r.re, nil
	}
	re, err := regexp2.Compile(r.Pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile regex: %w", err)
	}
	r.re = re
	return re, nil
}

// Compile 预编译 regex_replace 的正则
func (r *Rule) Compile() error {
	if r.Action != ActionRegexReplace {
		return nil
	}
	_, err := r.regexp()
	return err
}
