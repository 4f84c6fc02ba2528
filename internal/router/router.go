package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notepomo/internal/handler"
	"notepomo/internal/middleware"
	"notepomo/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	noteHandler *handler.NoteHandler,
	pomodoroHandler *handler.PomodoroHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	notes := api.Group("/notes")
	notes.Use(middleware.Auth(authService))
	notes.GET("", noteHandler.List)
	notes.POST("", noteHandler.Create)
	notes.PUT("/:id", noteHandler.Update)
	notes.PUT("/:id/status", noteHandler.UpdateStatus)
	notes.DELETE("/:id", noteHandler.Delete)

	pomodoro := api.Group("/pomodoro")
	pomodoro.Use(middleware.Auth(authService))
	pomodoro.GET("/active", pomodoroHandler.Active)
	pomodoro.POST("/start", pomodoroHandler.Start)
	pomodoro.POST("/pause", pomodoroHandler.Pause)
	pomodoro.POST("/resume", pomodoroHandler.Resume)
	pomodoro.POST("/complete", pomodoroHandler.Complete)
	pomodoro.POST("/cancel", pomodoroHandler.Cancel)

	return engine
}
