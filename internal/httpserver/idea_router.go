package httpserver

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dassyor/internal/handler"
)

// NewIdeaRouter wires the public idea-validation API. Submission is open;
// task inspection sits behind a shared password.
func NewIdeaRouter(
	ideaHandler *handler.IdeaHandler,
	tasksPassword string,
	db *pgxpool.Pool,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(MetricsMiddleware())

	registerHealth(r, db)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/search", ideaHandler.Submit)

	tasks := v1.Group("/tasks")
	tasks.Use(RequireSharedPassword(tasksPassword))
	{
		tasks.GET("", ideaHandler.ListTasks)
		tasks.GET("/:id", ideaHandler.GetTask)
	}

	return &Router{Engine: r}
}
