// Package auth implements the gateway's access gate: a single shared secret
// presented in the X-API-Key header and compared byte for byte.
package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/orthanc-gateway/internal/server"
)

// HeaderAPIKey 是调用方携带共享密钥的请求头。
const HeaderAPIKey = "X-API-Key"

// Shape 决定 401 响应体的形态；聚合路由嵌套 success 字段，其余路由只返回 error。
type Shape int

const (
	// ShapeFlat 输出 {"error":"Unauthorized"}。
	ShapeFlat Shape = iota
	// ShapeSuccess 输出 {"success":false,"error":"Unauthorized"}。
	ShapeSuccess
)

// Gate 校验共享密钥。
type Gate struct {
	secret []byte
	logger *logrus.Logger
}

// NewGate 创建 Gate；secret 为空时所有请求都会被拒绝。
func NewGate(secret string, logger *logrus.Logger) *Gate {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gate{secret: []byte(secret), logger: logger}
}

// Verify 判断 credential 是否与共享密钥逐字节相等。
func (g *Gate) Verify(credential string) bool {
	if len(g.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(credential), g.secret) == 1
}

// Middleware 返回 Fiber 中间件；校验失败时直接写出 401，后续 handler 不会被执行。
func (g *Gate) Middleware(shape Shape) fiber.Handler {
	return func(c fiber.Ctx) error {
		if g.Verify(c.Get(HeaderAPIKey)) {
			return c.Next()
		}

		fields := logrus.Fields{
			"action":      "auth",
			"remote_addr": c.IP(),
			"path":        c.Path(),
		}
		if reqID := server.RequestID(c); reqID != "" {
			fields["request_id"] = reqID
		}
		g.logger.WithFields(fields).Warn("unauthorized access")

		body := fiber.Map{"error": "Unauthorized"}
		if shape == ShapeSuccess {
			body["success"] = false
		}
		return c.Status(fiber.StatusUnauthorized).JSON(body)
	}
}
