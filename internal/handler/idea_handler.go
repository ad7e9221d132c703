package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"dassyor/internal/model"
	"dassyor/internal/mq"
	"dassyor/internal/repository"
	"dassyor/pkg/outbox"
)

// IdeaHandler accepts idea-validation requests and hands them to the
// worker through the outbox.
type IdeaHandler struct {
	tasks  *repository.SearchTaskRepository
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewIdeaHandler(tasks *repository.SearchTaskRepository, outboxRepo *outbox.Repository, logger *zap.Logger) *IdeaHandler {
	return &IdeaHandler{tasks: tasks, outbox: outboxRepo, logger: logger}
}

// Submit stores a pending task and its dispatch event in one transaction.
// The reply is 202: processing happens asynchronously in the worker.
func (h *IdeaHandler) Submit(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	task := &model.SearchTask{
		TaskID:           uuid.NewString(),
		Email:            req.Email,
		Query:            req.Query,
		ProblemStatement: req.ProblemStatement,
		TargetAudience:   req.TargetAudience,
		Status:           model.SearchTaskPending,
	}

	ctx := c.Request.Context()
	tx, err := h.tasks.Pool().Begin(ctx)
	if err != nil {
		h.logger.Error("begin submit tx", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.Failure("could not accept request"))
		return
	}
	defer tx.Rollback(ctx)

	if err := h.tasks.CreateInTx(ctx, tx, task); err != nil {
		h.logger.Error("insert search task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.Failure("could not accept request"))
		return
	}

	payload := mq.SearchRequestedPayload{
		TaskID:           task.TaskID,
		Email:            task.Email,
		Query:            task.Query,
		ProblemStatement: task.ProblemStatement,
		TargetAudience:   task.TargetAudience,
	}
	err = outbox.InsertEventInTx(ctx, tx, h.outbox, "search_task", &task.TaskID, mq.RoutingKeySearchRequested, payload)
	if err != nil {
		h.logger.Error("insert outbox event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.Failure("could not accept request"))
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("commit submit tx", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.Failure("could not accept request"))
		return
	}

	c.JSON(http.StatusAccepted, model.Success("request accepted", gin.H{
		"taskId": task.TaskID,
		"status": task.Status,
	}))
}

// GetTask returns one task with its matched posts.
func (h *IdeaHandler) GetTask(c *gin.Context) {
	taskID := c.Param("id")

	task, err := h.tasks.GetByTaskID(c.Request.Context(), taskID)
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusNotFound, model.Failure("task not found"))
		return
	}
	if err != nil {
		h.logger.Error("load search task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.Failure("could not load task"))
		return
	}

	posts, err := h.tasks.ListPosts(c.Request.Context(), taskID)
	if err != nil {
		h.logger.Error("load relevant posts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.Failure("could not load task"))
		return
	}

	c.JSON(http.StatusOK, model.Success("task", gin.H{
		"task":          task,
		"relevantPosts": posts,
	}))
}

// ListTasks returns recent tasks, newest first, optionally filtered by
// requester email and status.
func (h *IdeaHandler) ListTasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	tasks, err := h.tasks.List(c.Request.Context(), c.Query("email"), c.Query("status"), limit)
	if err != nil {
		h.logger.Error("list search tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.Failure("could not list tasks"))
		return
	}

	c.JSON(http.StatusOK, model.Success("tasks", tasks))
}
