package proxy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/orthanc-gateway/internal/logging"
	"github.com/any-hub/orthanc-gateway/internal/orthanc"
	"github.com/any-hub/orthanc-gateway/internal/server"
)

// InstanceFile 以缓存优先的方式返回实例 DICOM 文件，HEAD 请求只返回长度。
func (h *Handler) InstanceFile(c fiber.Ctx) error {
	started := time.Now()
	instanceID := c.Params("instanceId")
	requestID := server.RequestID(c)
	head := c.Method() == fiber.MethodHead

	if entry, err := h.store.Stat(instanceID); err == nil {
		h.metrics.RecordCacheLookup(true)
		if head {
			h.logResult(RouteInstanceFile, instanceID, requestID, fiber.StatusOK, true, started, nil)
			return h.writeInstanceHead(c, instanceID, entry.SizeBytes, true)
		}
		data, readErr := h.store.Read(instanceID)
		if readErr == nil {
			h.logResult(RouteInstanceFile, instanceID, requestID, fiber.StatusOK, true, started, nil)
			return h.writeInstance(c, instanceID, data, true)
		}
		h.logger.WithError(readErr).
			WithFields(logging.RequestFields(RouteInstanceFile, instanceID, requestID, true)).
			Warn("cache_read_failed")
	} else {
		h.metrics.RecordCacheLookup(false)
	}

	data, err := h.fetchInstance(requestContext(c), instanceID, requestID)
	if err != nil {
		status := fiber.StatusInternalServerError
		message := err.Error()
		if errors.Is(err, orthanc.ErrNotFound) {
			status = fiber.StatusNotFound
			message = "Instance not found"
		}
		h.logResult(RouteInstanceFile, instanceID, requestID, status, false, started, err)
		return c.Status(status).JSON(fiber.Map{"error": message})
	}

	h.logResult(RouteInstanceFile, instanceID, requestID, fiber.StatusOK, false, started, nil)
	if head {
		return h.writeInstanceHead(c, instanceID, int64(len(data)), false)
	}
	return h.writeInstance(c, instanceID, data, false)
}

// fetchInstance 回源下载并写入缓存；同一 id 的并发未命中只触发一次下载。
// 缓存写入失败只记录日志，已下载的字节仍会返回给调用方。
func (h *Handler) fetchInstance(ctx context.Context, instanceID, requestID string) ([]byte, error) {
	value, err, _ := h.fetches.Do(instanceID, func() (interface{}, error) {
		data, err := h.origin.InstanceFile(ctx, instanceID)
		if err != nil {
			return nil, err
		}

		fields := logging.RequestFields(RouteInstanceFile, instanceID, requestID, false)
		if _, writeErr := h.store.Write(instanceID, data); writeErr != nil {
			h.logger.WithError(writeErr).WithFields(fields).Warn("cache_write_failed")
		} else {
			fields["bytes"] = len(data)
			h.logger.WithFields(fields).Info("instance_cached")
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

func setInstanceHeaders(c fiber.Ctx, instanceID string, cacheHit bool) {
	c.Set(fiber.HeaderContentType, dicomContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s%s"`, instanceID, instanceFileSuffix))
	c.Set(headerCacheHit, strconv.FormatBool(cacheHit))
}

func (h *Handler) writeInstanceHead(c fiber.Ctx, instanceID string, size int64, cacheHit bool) error {
	setInstanceHeaders(c, instanceID, cacheHit)
	c.Status(fiber.StatusOK)
	c.Response().ResetBody()
	c.Response().Header.SetContentLength(int(size))
	return nil
}

func (h *Handler) writeInstance(c fiber.Ctx, instanceID string, data []byte, cacheHit bool) error {
	setInstanceHeaders(c, instanceID, cacheHit)
	c.Status(fiber.StatusOK)
	return c.Send(data)
}

