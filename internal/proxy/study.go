package proxy

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/orthanc-gateway/internal/gateway"
	"github.com/any-hub/orthanc-gateway/internal/logging"
	"github.com/any-hub/orthanc-gateway/internal/orthanc"
	"github.com/any-hub/orthanc-gateway/internal/server"
)

// StudyInstances 聚合 study 下所有 series 的实例元数据。
func (h *Handler) StudyInstances(c fiber.Ctx) error {
	started := time.Now()
	studyID := c.Params("studyId")
	requestID := server.RequestID(c)

	result, err := gateway.StudyInstances(requestContext(c), h.origin, studyID)
	if err != nil {
		status := fiber.StatusInternalServerError
		message := err.Error()
		if errors.Is(err, orthanc.ErrNotFound) {
			status = fiber.StatusNotFound
			message = "Study not found"
		}
		h.logResult(RouteStudyInstances, studyID, requestID, status, false, started, err)
		return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
	}

	h.metrics.RecordSkipped("series", result.SkippedSeries)
	h.metrics.RecordSkipped("instance", result.SkippedInstances)
	if result.SkippedSeries > 0 || result.SkippedInstances > 0 {
		fields := logging.RequestFields(RouteStudyInstances, studyID, requestID, false)
		fields["skipped_series"] = result.SkippedSeries
		fields["skipped_instances"] = result.SkippedInstances
		h.logger.WithFields(fields).Warn("study_partial_result")
	}

	fields := logging.RequestFields(RouteStudyInstances, studyID, requestID, false)
	fields["instances"] = len(result.Instances)
	h.logger.WithFields(fields).Info("study_instances_fetched")

	h.logResult(RouteStudyInstances, studyID, requestID, fiber.StatusOK, false, started, nil)
	return c.JSON(fiber.Map{"success": true, "instances": result.Instances})
}

