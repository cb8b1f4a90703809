package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"planning-poker/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
// Con jwtSvc habilitado todas las rutas salvo /healthz exigen token.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	sessionH *SessionHandler,
	estimateH *EstimateHandler,
	adminH *AdminHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("")
	if jwtSvc.Enabled() {
		api.Use(JWTAuthMiddleware(jwtSvc))
	}

	sessions := api.Group("/sessions")
	sessions.POST("", sessionH.CreateSession)
	sessions.GET("", sessionH.ListSessions)
	sessions.GET("/:id", sessionH.GetSession)
	sessions.PUT("/:id", sessionH.UpdateSession)
	sessions.PATCH("/:id/status", sessionH.UpdateStatus)
	sessions.PUT("/:id/estimators", sessionH.SetEstimators)
	sessions.POST("/:id/participants", sessionH.AddParticipant)
	sessions.DELETE("/:id/participants/:user_id", sessionH.RemoveParticipant)
	sessions.POST("/:id/issues", sessionH.AddIssue)
	sessions.GET("/:id/issues", sessionH.ListIssues)

	api.GET("/issues/:id", sessionH.GetIssue)
	api.DELETE("/issues/:id", sessionH.DeleteIssue)
	api.GET("/issues/:id/verdict", estimateH.Verdict)

	estimates := api.Group("/estimates")
	estimates.POST("", estimateH.SubmitEstimate)
	estimates.GET("", estimateH.ListEstimates)
	estimates.GET("/summary/:issue_id", estimateH.Summary)
	estimates.GET("/history", estimateH.History)

	admin := api.Group("/admin")
	admin.GET("/stats", adminH.Stats)
	admin.GET("/conflicts", adminH.Conflicts)
	admin.GET("/users-stats", adminH.UserStats)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
