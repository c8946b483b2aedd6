package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/orthanc-gateway/internal/logging"
	"github.com/any-hub/orthanc-gateway/internal/metrics"
	"github.com/any-hub/orthanc-gateway/internal/orthanc"
	"github.com/any-hub/orthanc-gateway/internal/server"
)

// ForwardOrigin 是 Forwarder 依赖的透传能力，*orthanc.Client 实现该接口。
type ForwardOrigin interface {
	Forward(ctx context.Context, req orthanc.ForwardRequest) (*orthanc.ForwardResponse, error)
}

// Forwarder 将 /api/orthanc/* 请求以网关自身凭证原样转发给 Orthanc。
type Forwarder struct {
	origin  ForwardOrigin
	logger  *logrus.Logger
	metrics *metrics.Collector
}

// NewForwarder 创建 Forwarder。
func NewForwarder(origin ForwardOrigin, logger *logrus.Logger, collector *metrics.Collector) *Forwarder {
	return &Forwarder{
		origin:  origin,
		logger:  logger,
		metrics: collector,
	}
}

// Handle 转发请求并回写 Orthanc 的状态码、正文与非 hop-by-hop 头部。
func (f *Forwarder) Handle(c fiber.Ctx) error {
	started := time.Now()
	requestID := server.RequestID(c)
	endpoint := c.Params("*")

	resp, err := f.origin.Forward(requestContext(c), orthanc.ForwardRequest{
		Method:      c.Method(),
		Path:        endpoint,
		RawQuery:    string(c.Request().URI().QueryString()),
		Body:        append([]byte(nil), c.Body()...),
		ContentType: c.Get(fiber.HeaderContentType),
	})
	if err != nil {
		f.logResult(endpoint, requestID, c.Method(), fiber.StatusInternalServerError, started, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	copyResponseHeaders(c, resp.Header)
	c.Status(resp.StatusCode)
	f.logResult(endpoint, requestID, c.Method(), resp.StatusCode, started, nil)
	return c.Send(resp.Body)
}

func (f *Forwarder) logResult(endpoint, requestID, method string, status int, started time.Time, err error) {
	f.metrics.ObserveRequest(RouteOrthancForward, status)
	if f.logger == nil {
		return
	}

	fields := logging.RequestFields(RouteOrthancForward, endpoint, requestID, false)
	fields["action"] = "proxy"
	fields["method"] = method
	fields["upstream_status"] = status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if err != nil {
		fields["error"] = err.Error()
		f.logger.WithFields(fields).Error("proxy_failed")
		return
	}
	f.logger.WithFields(fields).Info("proxy_complete")
}

// copyResponseHeaders 回写上游头部；多值头部逐条追加，hop-by-hop 字段被丢弃。
func copyResponseHeaders(c fiber.Ctx, headers http.Header) {
	for key, values := range headers {
		if server.IsHopByHopHeader(key) {
			continue
		}
		for _, value := range values {
			c.Response().Header.Add(key, value)
		}
	}
}
