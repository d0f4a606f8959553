package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"promogen-go/internal/config"
	"promogen-go/internal/credential"
	"promogen-go/internal/gateway"
	mw "promogen-go/internal/middleware"
	"promogen-go/internal/usage"
)

// Dependencies encapsulates the runtime services required to build the
// HTTP engine.
type Dependencies struct {
	Router       *gateway.Router
	Usage        *usage.Tracker
	Store        credential.AdminStore // nil disables the credential admin view
	GetRateLimit func() config.RateLimitConfig
}

// BuildEngine constructs the gin engine serving the generation API, the
// admin surface, and operational endpoints.
func BuildEngine(cfg *config.Config, deps Dependencies) *gin.Engine {
	if !cfg.Logging.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(mw.RequestID(), mw.RequestLogger(), mw.Recovery(), mw.CORS())

	root := engine.Group(cfg.Server.BasePath)

	root.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	root.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handler{router: deps.Router}
	api := root.Group("/v1")
	api.Use(mw.RateLimit(deps.GetRateLimit))
	{
		api.POST("/generate/text", h.generateText)
		api.POST("/generate/image", h.generateImage)
		api.POST("/generate/video", h.generateVideo)
		api.POST("/generate/speech", h.generateSpeech)
		api.POST("/chat/stream", h.streamChat)
	}

	admin := &adminHandler{usage: deps.Usage, store: deps.Store}
	adm := root.Group("/admin", managementAuth(cfg.Server.ManagementKey))
	{
		adm.GET("/usage", admin.usageSnapshot)
		adm.POST("/usage/reset", admin.usageReset)
		adm.GET("/credentials", admin.listCredentials)
	}

	return engine
}
