package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// WorkerPool 限制同时执行的请求数。每个请求从进入到响应完成独占一个槽位，
// 超出的请求排队等待，直到有槽位释放或请求 context 结束。
type WorkerPool struct {
	size   int64
	sem    *semaphore.Weighted
	logger *logrus.Logger
}

// NewWorkerPool 创建固定大小的 worker 池；size <= 0 时按 1 处理。
func NewWorkerPool(size int, logger *logrus.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:   int64(size),
		sem:    semaphore.NewWeighted(int64(size)),
		logger: logger,
	}
}

// Size 返回池容量。
func (p *WorkerPool) Size() int {
	return int(p.size)
}

// Middleware 在执行后续 handler 前获取槽位。
func (p *WorkerPool) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := p.sem.Acquire(c.Context(), 1); err != nil {
			if p.logger != nil {
				p.logger.WithFields(logrus.Fields{
					"action":     "worker_pool",
					"request_id": RequestID(c),
				}).Warn(err.Error())
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "worker_pool_unavailable"})
		}
		defer p.sem.Release(1)
		return c.Next()
	}
}
