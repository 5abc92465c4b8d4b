package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "taskhub/docs"
	"taskhub/internal/authz"
	"taskhub/internal/config"
	"taskhub/internal/database"
	"taskhub/internal/handlers"
	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/pdf"
	"taskhub/internal/repositories"
	"taskhub/internal/routes"
	"taskhub/internal/services"
)

const Version = "1.0.0"

// App owns the database handle and every long-lived service.
type App struct {
	cfg *config.Config
	db  *sql.DB
	bg  *services.Background

	Users         services.UserService
	Tasks         services.TaskService
	Notifications services.NotificationService

	router *gin.Engine
}

// Operator is the actor used by maintenance commands run outside HTTP.
var Operator = models.Actor{Email: "operator@localhost", DisplayName: "operator", Role: authz.RoleAdmin}

// New opens the database, applies the schema and wires services and routes.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === DB ===
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Services ===
	bg := services.NewBackground(15 * time.Second)
	authService := services.NewAuthService(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.ResetExpiresIn)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.AppURL,
		cfg.JWT.ResetExpiresIn,
	)

	var relay services.Relayer
	tg, err := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		// the relay is optional; notifications are still stored
		log.Printf("[tg][err] %v", err)
	} else if tg != nil {
		relay = tg
	}

	notificationService := services.NewNotificationService(notificationRepo, relay)
	userService := services.NewUserService(userRepo, authService, emailService, bg)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emailService, authService, bg)
	taskService := services.NewTaskService(taskRepo, userRepo, notificationService)
	oauthService := services.NewOAuthService(
		cfg.GitHub.ClientID,
		cfg.GitHub.ClientSecret,
		cfg.GitHub.RedirectURL,
		authService,
		userService,
	)
	gate := services.NewCredentialGate(authService, userRepo)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		admin, created, err := userService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Printf("[app][admin][err] %v", err)
		} else if created {
			log.Printf("[app][admin] created %s id=%d", admin.Email, admin.ID)
		}
	}

	// === Handlers ===
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(userService, resetService, oauthService),
		User:         handlers.NewUserHandler(userService),
		Task:         handlers.NewTaskHandler(taskService, pdf.NewDocumentGenerator(cfg.Reports.FontPath)),
		Notification: handlers.NewNotificationHandler(notificationService),
		Health:       handlers.NewHealthHandler(db, Version),
	}

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, gate, h)

	return &App{
		cfg:           cfg,
		db:            db,
		bg:            bg,
		Users:         userService,
		Tasks:         taskService,
		Notifications: notificationService,
		router:        router,
	}, nil
}

func (a *App) Router() http.Handler { return a.router }

// Serve listens until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[app] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Close waits for detached work and releases the database.
func (a *App) Close() {
	a.Notifications.Close()
	a.bg.Close()
	if err := a.db.Close(); err != nil {
		log.Printf("[app][db][err] close: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
