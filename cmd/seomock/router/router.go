package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"seo-assistant/cmd/internal/auth"
	_ "seo-assistant/cmd/seomock/docs"
	"seo-assistant/cmd/seomock/handlers"
	"seo-assistant/cmd/seomock/middleware"
	"seo-assistant/cmd/seomock/services"
)

// New builds the gin engine serving the SEO assistant REST contract.
func New(svc *services.SessionService, jwt *auth.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	r.GET("/health", handlers.HealthHandler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/", middleware.BearerAuth(jwt))
	{
		api.GET("/sessions", handlers.ListSessionsHandler(svc))
		api.POST("/sessions/async", handlers.CreateSessionAsyncHandler(svc))
		api.GET("/sessions/:id/messages", handlers.ListMessagesHandler(svc))
		api.POST("/sessions/:id/messages/async", handlers.AddMessageAsyncHandler(svc))
		api.PATCH("/sessions/:id", handlers.UpdateSessionHandler(svc))
		api.DELETE("/sessions/:id", handlers.DeleteSessionHandler(svc))
		api.GET("/jobs/:id/status", handlers.JobStatusHandler(svc))
	}

	return r
}

// WithCORS wraps h so browsers on allowedOrigins can call the API with a bearer token.
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id", "X-Span-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Span-Id"},
		AllowCredentials: true,
	}).Handler(h)
}
