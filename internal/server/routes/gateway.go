// Package routes 汇总网关对外暴露的全部路由：业务接口、健康检查与 /-/ 诊断接口。
package routes

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/any-hub/orthanc-gateway/internal/auth"
	"github.com/any-hub/orthanc-gateway/internal/metrics"
	"github.com/any-hub/orthanc-gateway/internal/proxy"
)

// Dependencies 聚合注册路由所需的组件。
type Dependencies struct {
	Gate      *auth.Gate
	Handler   *proxy.Handler
	Forwarder *proxy.Forwarder
	Metrics   *metrics.Collector
	Settings  Settings
}

var forwardMethods = []string{
	fiber.MethodGet,
	fiber.MethodPost,
	fiber.MethodPut,
	fiber.MethodDelete,
}

// RegisterGatewayRoutes 挂载全部路由。/health 不做鉴权，其余接口均经 Access Gate。
func RegisterGatewayRoutes(app *fiber.App, deps Dependencies) error {
	if app == nil {
		return errors.New("fiber app is required")
	}
	if deps.Gate == nil || deps.Handler == nil || deps.Forwarder == nil {
		return errors.New("gate, handler and forwarder are required")
	}

	flat := deps.Gate.Middleware(auth.ShapeFlat)
	success := deps.Gate.Middleware(auth.ShapeSuccess)

	app.Get("/health", deps.Handler.Health)
	app.Get("/gateway/studies/:studyId/instances", success, deps.Handler.StudyInstances)
	app.Add([]string{fiber.MethodGet, fiber.MethodHead}, "/api/instances/:instanceId/file", flat, deps.Handler.InstanceFile)
	app.Add(forwardMethods, "/api/orthanc/*", flat, deps.Forwarder.Handle)

	if deps.Metrics != nil {
		app.Get("/-/metrics", flat, adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	RegisterDiagnosticRoutes(app, flat, deps.Settings)
	return nil
}
