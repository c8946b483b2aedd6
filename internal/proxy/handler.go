package proxy

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/any-hub/orthanc-gateway/internal/cache"
	"github.com/any-hub/orthanc-gateway/internal/gateway"
	"github.com/any-hub/orthanc-gateway/internal/logging"
	"github.com/any-hub/orthanc-gateway/internal/metrics"
)

// Route names, used in logs and metrics.
const (
	RouteHealth         = "health"
	RouteStudyInstances = "study_instances"
	RouteInstanceFile   = "instance_file"
	RouteOrthancForward = "orthanc_forward"
)

const (
	dicomContentType   = "application/dicom"
	headerCacheHit     = "X-Gateway-Cache-Hit"
	instanceFileSuffix = ".dcm"
)

// Origin 是 Handler 依赖的 Orthanc 能力，*orthanc.Client 实现该接口。
type Origin interface {
	gateway.DescriptorFetcher
	System(ctx context.Context) (string, error)
	InstanceFile(ctx context.Context, id string) ([]byte, error)
}

// Handler 负责 orchestrate “缓存命中 → 回源写缓存” 的实例文件流程、study 聚合与健康检查。
type Handler struct {
	origin  Origin
	store   cache.Store
	logger  *logrus.Logger
	metrics *metrics.Collector
	fetches singleflight.Group
}

// NewHandler constructs a handler with shared origin client/store/logger.
func NewHandler(origin Origin, store cache.Store, logger *logrus.Logger, collector *metrics.Collector) *Handler {
	return &Handler{
		origin:  origin,
		store:   store,
		logger:  logger,
		metrics: collector,
	}
}

// Health 探测 Orthanc 并返回运行状态；无论 Orthanc 是否可达都返回 200。
func (h *Handler) Health(c fiber.Ctx) error {
	orthancStatus, err := h.origin.System(requestContext(c))
	if err != nil {
		orthancStatus = "error: " + err.Error()
	}
	h.metrics.ObserveRequest(RouteHealth, fiber.StatusOK)
	return c.JSON(fiber.Map{
		"status":    "running",
		"timestamp": time.Now().Format(time.RFC3339),
		"orthanc":   orthancStatus,
		"cache_dir": h.store.Root(),
	})
}

func (h *Handler) logResult(
	route string,
	resourceID string,
	requestID string,
	status int,
	cacheHit bool,
	started time.Time,
	err error,
) {
	h.metrics.ObserveRequest(route, status)

	fields := logging.RequestFields(route, resourceID, requestID, cacheHit)
	fields["action"] = "gateway"
	fields["status"] = status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if err != nil {
		fields["error"] = err.Error()
		if status >= fiber.StatusInternalServerError {
			h.logger.WithFields(fields).Error("gateway_failed")
			return
		}
		h.logger.WithFields(fields).Warn("gateway_not_found")
		return
	}
	h.logger.WithFields(fields).Info("gateway_complete")
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
