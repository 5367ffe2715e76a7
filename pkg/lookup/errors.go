package lookup

import (
	"errors"
	"fmt"
)

// ErrorKind 解析失败的原因
type ErrorKind uint8

const (
	UnterminatedQuote   ErrorKind = iota + 1 // 引号未闭合
	UnterminatedBracket                      // [ 未闭合
	InvalidIndex                             // 索引不是合法的有符号十进制整数
	EmptySegment                             // 出现空字段名：..、.[、前导或结尾的 .
	UnexpectedCharacter                      // 该位置不能开始一个字段，或非法转义
	TrailingInput                            // 完整片段之后的多余字符
)

// 供 errors.Is 使用的哨兵错误
var (
	ErrParse = errors.New("lookup parse error")

	ErrUnterminatedQuote   = errors.New("unterminated quote")
	ErrUnterminatedBracket = errors.New("unterminated bracket")
	ErrInvalidIndex        = errors.New("invalid index")
	ErrEmptySegment        = errors.New("empty segment")
	ErrUnexpectedCharacter = errors.New("unexpected character")
	ErrTrailingInput       = errors.New("trailing input")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case UnterminatedQuote:
		return ErrUnterminatedQuote
	case UnterminatedBracket:
		return ErrUnterminatedBracket
	case InvalidIndex:
		return ErrInvalidIndex
	case EmptySegment:
		return ErrEmptySegment
	case UnexpectedCharacter:
		return ErrUnexpectedCharacter
	case TrailingInput:
		return ErrTrailingInput
	default:
		return nil
	}
}

func (k ErrorKind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// ParseError 描述一次解析失败。Offset 是输入中的字节偏移。
// 解析不产生部分结果：出错时整条路径被拒绝。
type ParseError struct {
	Kind   ErrorKind
	Offset int
	Input  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lookup: %s at offset %d in %q", e.Kind, e.Offset, e.Input)
}

// Is 同时匹配 ErrParse 和对应种类的哨兵错误
func (e *ParseError) Is(target error) bool {
	if target == ErrParse {
		return true
	}
	return target != nil && target == e.Kind.sentinel()
}
