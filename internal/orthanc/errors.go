package orthanc

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound 表示 Orthanc 对指定资源返回了 4xx。
	ErrNotFound = errors.New("orthanc resource not found")
	// ErrUnreachable 表示连接失败、超时、5xx 或响应无法解析。
	ErrUnreachable = errors.New("orthanc unreachable")
)

// StatusError 记录 Orthanc 返回的非 2xx 状态码。
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: orthanc responded %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap 让 4xx 匹配 ErrNotFound，其余状态匹配 ErrUnreachable。
func (e *StatusError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ErrNotFound
	}
	return ErrUnreachable
}

// RequestError 包装传输层失败（DNS、连接拒绝、超时、读取中断、JSON 解码失败）。
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() []error {
	return []error{ErrUnreachable, e.Err}
}

func classifyStatus(method, url string, status int) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return &StatusError{Method: method, URL: url, StatusCode: status}
}
