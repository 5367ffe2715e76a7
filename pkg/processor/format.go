package processor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glesirok/eventlookup/pkg/event"
)

// Format 事件文件格式
type Format int

const (
	FormatJSONLines Format = iota // 每行一个 JSON 对象
	FormatYAML                    // 多文档 YAML，每个文档一个事件
)

// maxLineSize 单行 JSON 事件的上限
const maxLineSize = 16 << 20

func (f Format) String() string {
	switch f {
	case FormatJSONLines:
		return "ndjson"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatFromPath 根据扩展名判断格式
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".ndjson", ".jsonl":
		return FormatJSONLines, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported file type: %s", path)
	}
}

// Decode 解码输入中的所有事件
func Decode(data []byte, format Format) ([]*event.Event, error) {
	switch format {
	case FormatJSONLines:
		return decodeJSONLines(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("unknown format: %d", format)
	}
}

// ReadEvents 读取并解码一个事件文件，忽略 UTF-8 BOM
func ReadEvents(path string) ([]*event.Event, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Decode(bytes.TrimPrefix(data, utf8BOM), format)
}

// Encode 按输入格式编码事件
func Encode(events []*event.Event, format Format) ([]byte, error) {
	switch format {
	case FormatJSONLines:
		return encodeJSONLines(events)
	case FormatYAML:
		return encodeYAML(events)
	default:
		return nil, fmt.Errorf("unknown format: %d", format)
	}
}

func decodeJSONLines(data []byte) ([]*event.Event, error) {
	var events []*event.Event

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		ev, err := event.FromJSON(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan json lines: %w", err)
	}
	return events, nil
}

func encodeJSONLines(events []*event.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, ev := range events {
		if err := enc.Encode(ev.Fields()); err != nil {
			return nil, fmt.Errorf("encode event %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

func decodeYAML(data []byte) ([]*event.Event, error) {
	var events []*event.Event

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		ev, err := event.FromYAMLNode(&node)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(events), err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// encodeYAML 保持 2 空格缩进
func encodeYAML(events []*event.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for i, ev := range events {
		if err := enc.Encode(ev.Fields()); err != nil {
			return nil, fmt.Errorf("encode event %d: %w", i, err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return buf.Bytes(), nil
}
