package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dassyor/internal/handler"
	"dassyor/internal/model"
	"dassyor/internal/util"
)

type Router struct {
	Engine *gin.Engine
}

// NewRouter wires the platform API: auth, projects, collaborators,
// invitations and the phase workflow.
func NewRouter(
	authHandler *handler.AuthHandler,
	projectHandler *handler.ProjectHandler,
	phaseHandler *handler.PhaseHandler,
	tokens *util.TokenManager,
	db *pgxpool.Pool,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(MetricsMiddleware())

	registerHealth(r, db)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/confirm-email", authHandler.ConfirmEmail)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/google", authHandler.GoogleLogin)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	protected := v1.Group("/")
	protected.Use(AuthRequired(tokens))
	{
		protected.GET("/profile", authHandler.GetProfile)
		protected.PUT("/profile", authHandler.UpdateProfile)

		projects := protected.Group("/projects")
		{
			projects.POST("", projectHandler.Create)
			projects.GET("", projectHandler.List)
			projects.GET("/:projectId", projectHandler.Get)
			projects.PUT("/:projectId", projectHandler.Update)
			projects.DELETE("/:projectId", projectHandler.Delete)

			projects.POST("/:projectId/collaborators", projectHandler.AddCollaborator)
			projects.DELETE("/:projectId/collaborators/:userId", projectHandler.RemoveCollaborator)
			projects.POST("/:projectId/invite", projectHandler.Invite)
		}

		protected.POST("/invitations/accept", projectHandler.AcceptInvitation)
		protected.POST("/invitations/reject", projectHandler.RejectInvitation)

		phases := protected.Group("/phases")
		{
			phases.POST("/seed", RequireRole(model.RoleAdmin), phaseHandler.Seed)
			phases.GET("", phaseHandler.ListCatalog)
			phases.GET("/projects/:projectId", phaseHandler.GetProjectPhases)
			phases.GET("/projects/:projectId/current", phaseHandler.GetCurrent)
			phases.POST("/projects/:projectId/phases/:phaseId/start", phaseHandler.Start)
			phases.POST("/projects/:projectId/phases/:phaseId/complete", phaseHandler.Complete)
			phases.PUT("/projects/:projectId/phases/:phaseId/data", phaseHandler.UpdateData)
			phases.POST("/projects/:projectId/next", phaseHandler.MoveNext)
		}
	}

	return &Router{Engine: r}
}

func registerHealth(r *gin.Engine, db *pgxpool.Pool) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
