package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/corridor/hallpass-backend/internal/config"
	"github.com/corridor/hallpass-backend/internal/handler"
	"github.com/corridor/hallpass-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Pass      *handler.PassHandler
	Kiosk     *handler.KioskHandler
	Directory *handler.DirectoryHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── Kiosk read path ───────────────────────────────────────────────
	kioskAPI := router.Group("/api/v1/kiosk")
	{
		kioskAPI.GET("/passes", handlers.Kiosk.ListActive)
	}

	ws := router.Group("/ws/v1")
	{
		ws.GET("/kiosk/stream", handlers.WS.KioskStream)
	}

	// ─── Pass lifecycle actions ────────────────────────────────────────
	passAPI := router.Group("/api/v1")
	{
		passAPI.POST("/passes", handlers.Pass.RequestPass)
		passAPI.GET("/passes", handlers.Pass.ListPasses)
		passAPI.POST("/passes/:id/approve", handlers.Pass.ApprovePass)
		passAPI.POST("/passes/:id/deny", handlers.Pass.DenyPass)
		passAPI.POST("/passes/:id/cancel", handlers.Pass.CancelPass)
		passAPI.POST("/passes/:id/override", handlers.Pass.OverridePass)
		passAPI.POST("/passes/:id/archive", handlers.Pass.ArchivePass)
		passAPI.GET("/passes/:id/overrides", handlers.Pass.GetOverrides)
		passAPI.GET("/students/:id/passes", handlers.Pass.StudentHistory)
		passAPI.GET("/students/:id/periods", handlers.Directory.StudentPeriods)
		passAPI.GET("/destinations", handlers.Directory.ListDestinations)
		passAPI.GET("/teachers", handlers.Directory.ListTeachers)
	}

	return router
}
