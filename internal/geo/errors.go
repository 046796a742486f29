package geo

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound：存储中不存在对应记录
	ErrNotFound = errors.New("not found")
	// ErrMalformedRecord：行结构或数值字段不合法，仅影响当前行
	ErrMalformedRecord = errors.New("malformed record")
	// ErrRejectedRecord：过滤链否决，静默跳过
	ErrRejectedRecord = errors.New("rejected record")
	// ErrUnknownCountry / ErrUnknownParent：外部代码无法解析为本地记录
	ErrUnknownCountry = errors.New("unknown country")
	ErrUnknownParent  = errors.New("unknown parent")
	// ErrNoCountries：国家表为空，后续所有行政区/城市解析必然失败，整次运行应立即终止
	ErrNoCountries = errors.New("no countries imported")
)

// Malformedf：构造包装 ErrMalformedRecord 的错误
func Malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}

// MalformedField：构造标注字段名的 ErrMalformedRecord；Source/Line 由管道在分类时补齐
func MalformedField(field, format string, args ...any) error {
	return &RecordError{Field: field, Err: Malformedf(format, args...)}
}

// RecordError：携带数据源、行号与字段名的行级错误
type RecordError struct {
	Source string
	Line   int
	Field  string
	Err    error
}

func (e *RecordError) Error() string {
	if e.Source == "" {
		if e.Field == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s:%d: %s: %v", e.Source, e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
