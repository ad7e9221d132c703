package main

import (
	"go.uber.org/zap"

	"dassyor/config"
	"dassyor/internal/db"
	"dassyor/internal/handler"
	"dassyor/internal/httpserver"
	"dassyor/internal/mailer"
	"dassyor/internal/repository"
	"dassyor/internal/service/auth"
	"dassyor/internal/service/phase"
	"dassyor/internal/service/project"
	"dassyor/internal/util"
	"dassyor/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	tokens, err := util.NewTokenManager(cfg.JWT)
	if err != nil {
		log.Fatal("JWT initialization failed", zap.Error(err))
	}

	mail := mailer.NewSMTPMailer(cfg.SMTP, log)

	// Repositories
	userRepo := repository.NewUserRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	collaboratorRepo := repository.NewCollaboratorRepository(dbConn)
	invitationRepo := repository.NewInvitationRepository(dbConn)
	phaseRepo := repository.NewPhaseRepository(dbConn)
	projectPhaseRepo := repository.NewProjectPhaseRepository(dbConn)

	// Services
	phaseService := phase.NewService(phaseRepo, projectPhaseRepo, log)
	projectService := project.NewService(
		projectRepo, collaboratorRepo, invitationRepo, userRepo,
		phaseService, mail, cfg.App.Name, cfg.App.ClientAppURL, log,
	)
	authService := auth.NewService(
		userRepo, tokens, mail, cfg.Google,
		cfg.App.Name, cfg.App.ClientAppURL, log,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	projectHandler := handler.NewProjectHandler(projectService)
	phaseHandler := handler.NewPhaseHandler(phaseService, projectService)

	router := httpserver.NewRouter(authHandler, projectHandler, phaseHandler, tokens, dbConn)

	log.Info("Starting platform API", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
