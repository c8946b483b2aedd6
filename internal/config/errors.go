package config

import "errors"

// ErrInvalidConfig 是所有字段级校验失败的共同根因，调用方可用 errors.Is 判断。
var ErrInvalidConfig = errors.New("invalid config")

// FieldError 记录出错的字段路径（如 Origin.URL）与原因，CLI 直接打印给运维。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// Unwrap 使 FieldError 匹配 ErrInvalidConfig。
func (e FieldError) Unwrap() error {
	return ErrInvalidConfig
}

func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}

func originField(field string) string {
	return "Origin." + field
}
