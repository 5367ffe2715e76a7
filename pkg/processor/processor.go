package processor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glesirok/eventlookup/pkg/engine"
	"github.com/glesirok/eventlookup/pkg/event"
	"github.com/glesirok/eventlookup/pkg/internalevent"
	"github.com/glesirok/eventlookup/pkg/rule"
)

const componentType = "rule_engine"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Processor 批量处理事件文件
type Processor struct {
	rules   []*engine.Rule
	engine  *engine.Engine
	emitter *internalevent.Emitter
	logger  *slog.Logger
	out     io.Writer
}

// Option 配置 Processor
type Option func(*Processor)

// WithEmitter 设置内部事件上报
func WithEmitter(emitter *internalevent.Emitter) Option {
	return func(p *Processor) { p.emitter = emitter }
}

// WithLogger 设置进度日志
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithOutput 设置 dry-run 的输出位置
func WithOutput(w io.Writer) Option {
	return func(p *Processor) { p.out = w }
}

// NewProcessor 从规则文件创建处理器
func NewProcessor(ruleFile string, opts ...Option) (*Processor, error) {
	rules, err := rule.LoadFromFile(ruleFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return New(rules, opts...), nil
}

// New 使用已校验的规则创建处理器
func New(rules []*engine.Rule, opts ...Option) *Processor {
	p := &Processor{
		rules:  rules,
		engine: engine.NewEngine(),
		logger: slog.New(slog.DiscardHandler),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.emitter == nil {
		p.emitter = internalevent.NewEmitter(p.logger, nil)
	}
	return p
}

// ApplyRules 按顺序对事件应用所有规则。
// 字段不存在只上报不中断，其他错误上报后返回
func (p *Processor) ApplyRules(ev *event.Event) error {
	for i, r := range p.rules {
		err := p.engine.Apply(ev, r)
		if err == nil {
			continue
		}
		if errors.Is(err, engine.ErrNotFound) {
			p.emitter.Emit(internalevent.FieldNotFound{
				Path:          r.Path,
				Action:        string(r.Action),
				ComponentType: componentType,
			})
			continue
		}
		p.emitter.Emit(internalevent.RuleApplyFailed{
			Rule:          i,
			Action:        string(r.Action),
			Path:          r.Path,
			Err:           err,
			ComponentType: componentType,
		})
		return fmt.Errorf("apply rule %d: %w", i, err)
	}
	return nil
}

// Process 解码、处理并重新编码一个输入。
// 规则执行后不合法的指标事件被丢弃并上报，返回的计数是解码出的事件数
func (p *Processor) Process(data []byte, format Format) ([]byte, int, error) {
	events, err := Decode(data, format)
	if err != nil {
		return nil, 0, err
	}

	kept := make([]*event.Event, 0, len(events))
	for i, ev := range events {
		if err := p.ApplyRules(ev); err != nil {
			return nil, 0, fmt.Errorf("event %d: %w", i, err)
		}
		if !p.validMetric(ev) {
			continue
		}
		kept = append(kept, ev)
	}

	output, err := Encode(kept, format)
	if err != nil {
		return nil, 0, err
	}
	return output, len(events), nil
}

// validMetric 非指标事件总是合法
func (p *Processor) validMetric(ev *event.Event) bool {
	value, kind, ok := ev.Metric()
	if !ok {
		return true
	}
	if err := value.Validate(kind); err != nil {
		p.emitter.Emit(internalevent.InvalidMetricReceived{
			Value:         value,
			Kind:          kind,
			Err:           err,
			ComponentKind: internalevent.ComponentTransform,
			ComponentType: componentType,
		})
		return false
	}
	return true
}

// ProcessFile 处理单个事件文件
func (p *Processor) ProcessFile(inputPath, outputPath string, dryRun bool) error {
	format, err := FormatFromPath(inputPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	// 去掉 UTF-8 BOM，写回时恢复
	hasBOM := bytes.HasPrefix(data, utf8BOM)
	if hasBOM {
		data = data[len(utf8BOM):]
	}

	output, count, err := p.Process(data, format)
	if err != nil {
		return err
	}
	p.emitter.Emit(internalevent.EventsProcessed{
		File:          inputPath,
		Count:         count,
		Bytes:         len(data),
		ComponentType: componentType,
	})

	if hasBOM {
		output = append(append([]byte{}, utf8BOM...), output...)
	}

	if dryRun {
		fmt.Fprintf(p.out, "=== Dry-run: %s ===\n", inputPath)
		fmt.Fprintln(p.out, string(output))
		return nil
	}

	if err := os.WriteFile(outputPath, output, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// ProcessDirectory 递归处理目录下所有支持的事件文件
func (p *Processor) ProcessDirectory(inputDir, outputDir string, dryRun, backup bool) error {
	if !dryRun && outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	return filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := FormatFromPath(path); err != nil {
			return nil
		}

		outputPath := path // 原地修改
		if outputDir != "" {
			relPath, err := filepath.Rel(inputDir, path)
			if err != nil {
				return err
			}
			outputPath = filepath.Join(outputDir, relPath)
			if !dryRun {
				if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
		}

		if backup && !dryRun && outputDir == "" {
			if err := BackupFile(path); err != nil {
				return err
			}
		}

		p.logger.Info("Processing file.", "path", path)
		if err := p.ProcessFile(path, outputPath, dryRun); err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}
		return nil
	})
}

// BackupFile 把 path 复制为 path.bak
func BackupFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file for backup: %w", err)
	}
	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	return nil
}
