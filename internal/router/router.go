// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/kmrl/metrodocs/internal/config"
	"github.com/kmrl/metrodocs/internal/handlers"
	"github.com/kmrl/metrodocs/internal/middleware"
	"github.com/kmrl/metrodocs/internal/services"
	"github.com/kmrl/metrodocs/internal/utils"
)

const (
	appAccounts  = "accounts"
	appDocuments = "documents"

	flashSessionName = "docmanager"
)

func newEngine(app string) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(app))
	r.Use(middleware.Metrics(app))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"app":    app,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// InitializeAuth builds the account app: signup, login, session, email and
// the assistant proxy.
func InitializeAuth(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	userStore := services.NewUserStore(db)
	authService := services.NewAuthService(userStore)
	notificationService := services.NewNotificationService(cfg.Mail)
	assistantService := services.NewAssistantService(cfg.Assistant)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, utils.NewSessionManager(cfg.Session))
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	assistantHandler := handlers.NewAssistantHandler(assistantService)

	r := newEngine(appAccounts)
	r.Use(middleware.CORS())

	api := r.Group("/api")
	{
		auth := api.Group("")
		auth.Use(middleware.RateLimit(cfg.RateLimit.Enabled, cfg.RateLimit.AuthPerMin, cfg.RateLimit.AuthBurst))
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
		}

		api.POST("/logout", authHandler.Logout)
		api.GET("/session", authHandler.Session)
		api.POST("/send-email", notificationHandler.SendEmail)
		api.POST("/chat", assistantHandler.Chat)
	}

	return r
}

// InitializeDocuments builds the document manager over the given storage.
func InitializeDocuments(db *gorm.DB, cfg *config.Config, storage services.DocumentStorage) *gin.Engine {
	documentService := services.NewDocumentService(db, storage)
	documentHandler := handlers.NewDocumentHandler(documentService, cfg.Documents.MaxUploadBytes)

	r := newEngine(appDocuments)
	r.MaxMultipartMemory = 8 << 20

	store := cookie.NewStore([]byte(cfg.Documents.FlashSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(flashSessionName, store))

	r.GET("/", documentHandler.List)
	r.GET("/upload", documentHandler.UploadForm)
	r.POST("/upload",
		middleware.RateLimit(cfg.RateLimit.Enabled, cfg.RateLimit.UploadPerMin, cfg.RateLimit.UploadBurst),
		documentHandler.Upload,
	)
	r.GET("/download/:id", documentHandler.Download)
	r.GET("/delete/:id", documentHandler.Delete)

	return r
}
