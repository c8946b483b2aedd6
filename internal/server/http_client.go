package server

import (
	"net"
	"net/http"
	"net/textproto"
	"time"

	"github.com/any-hub/orthanc-gateway/internal/config"
)

const (
	fallbackClientTimeout = 60 * time.Second
	fallbackDialTimeout   = 5 * time.Second
	minIdleConnsPerHost   = 4
)

// NewUpstreamClient 返回共享 http.Client，用于所有 Orthanc 请求。
// 单次调用的超时由 orthanc.Client 通过 context 控制，这里的 Timeout 只是兜底上限。
func NewUpstreamClient(cfg *config.Config) *http.Client {
	timeout := fallbackClientTimeout
	if cfg != nil && cfg.Origin.PayloadTimeout.DurationValue() > 0 {
		timeout = cfg.Origin.PayloadTimeout.DurationValue()
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: newOriginTransport(cfg),
	}
}

// newOriginTransport 只面向单一 Orthanc 地址：空闲连接数跟随 worker 池大小，
// 建连超时不超过最短的健康探测超时。
func newOriginTransport(cfg *config.Config) *http.Transport {
	idlePerHost := minIdleConnsPerHost
	dialTimeout := fallbackDialTimeout
	if cfg != nil {
		if size := cfg.Global.WorkerPoolSize; size > idlePerHost {
			idlePerHost = size
		}
		if health := cfg.Origin.HealthTimeout.DurationValue(); health > 0 {
			dialTimeout = health
		}
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          idlePerHost,
		MaxIdleConnsPerHost:   idlePerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   dialTimeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// hopByHopHeaders 定义 RFC 7230 中禁止代理转发的头部（已规范化大小写）。
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Trailers":            {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Proxy-Connection":    {}, // 非标准字段，但部分代理仍使用
}

// IsHopByHopHeader reports whether the header must be dropped when relaying
// an Orthanc response. Matching is case-insensitive.
func IsHopByHopHeader(key string) bool {
	_, ok := hopByHopHeaders[textproto.CanonicalMIMEHeaderKey(key)]
	return ok
}
