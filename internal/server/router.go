package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// defaultBodyLimit 覆盖 Fiber 的 4MB 默认值，透传路由需要接收完整的 DICOM 上传。
const defaultBodyLimit = 512 * 1024 * 1024

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger         *logrus.Logger
	WorkerPoolSize int
	BodyLimit      int
}

const contextKeyRequestID = "_gateway_request_id"

// HeaderRequestID is echoed on every response.
const HeaderRequestID = "X-Request-ID"

// NewApp builds a Fiber application with recovery, request ids, the bounded
// worker pool and JSON error rendering. Callers register routes afterwards.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.WorkerPoolSize <= 0 {
		return nil, errors.New("worker pool size must be positive")
	}
	bodyLimit := opts.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		BodyLimit:     bodyLimit,
		ErrorHandler:  jsonErrorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())
	app.Use(NewWorkerPool(opts.WorkerPoolSize, opts.Logger).Middleware())

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID 并写回响应头。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set(HeaderRequestID, reqID)
		return c.Next()
	}
}

func jsonErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		if status >= fiber.StatusInternalServerError {
			logger.WithFields(logrus.Fields{
				"action":     "request",
				"path":       c.Path(),
				"request_id": RequestID(c),
			}).Error(err.Error())
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
