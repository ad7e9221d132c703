package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"dassyor/internal/mq"
	"dassyor/internal/service/idea"
	"dassyor/internal/util"
	"dassyor/pkg/metrics"
)

const handlerName = "search_requested"

// Deduper guards against redeliveries of an already-processed message.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, messageID string) (bool, error)
	Release(ctx context.Context, handler, messageID string) error
}

// SearchRequestedHandler consumes idea.search.requested events and drives
// the validation pipeline.
type SearchRequestedHandler struct {
	pipeline *idea.Service
	dedup    Deduper
	logger   *zap.Logger
}

func NewSearchRequestedHandler(pipeline *idea.Service, dedup Deduper, logger *zap.Logger) *SearchRequestedHandler {
	return &SearchRequestedHandler{pipeline: pipeline, dedup: dedup, logger: logger}
}

// Handle processes one delivery. A malformed payload is a permanent
// failure; a payload seen before is acknowledged without reprocessing.
func (h *SearchRequestedHandler) Handle(ctx context.Context, messageID string, data json.RawMessage) error {
	var payload mq.SearchRequestedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return util.Permanent(fmt.Errorf("unmarshal search request: %w", err))
	}
	if payload.TaskID == "" || payload.Email == "" || payload.Query == "" {
		return util.Permanent(fmt.Errorf("missing fields in search request %q", messageID))
	}

	fresh, err := h.dedup.AcquireOnce(ctx, handlerName, messageID)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if !fresh {
		h.logger.Info("duplicate delivery skipped",
			zap.String("message_id", messageID),
			zap.String("task_id", payload.TaskID))
		return nil
	}

	if err := h.pipeline.Process(ctx, payload); err != nil {
		// Let a retry attempt reprocess the message.
		if relErr := h.dedup.Release(ctx, handlerName, messageID); relErr != nil {
			h.logger.Error("dedup release failed", zap.Error(relErr))
		}
		metrics.IncrementSearchTask("error")
		return err
	}

	metrics.IncrementSearchTask("success")
	return nil
}

// OnDeadLetter settles the task as FAILURE once the message is parked.
func (h *SearchRequestedHandler) OnDeadLetter(ctx context.Context, messageID string, data json.RawMessage, cause error) {
	var payload mq.SearchRequestedPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.TaskID == "" {
		h.logger.Error("dead letter with unreadable payload",
			zap.String("message_id", messageID),
			zap.Error(err))
		return
	}

	h.logger.Warn("search task exhausted retries",
		zap.String("task_id", payload.TaskID),
		zap.Error(cause))
	h.pipeline.MarkFailed(ctx, payload.TaskID)
	metrics.IncrementSearchTask("failure")
}
