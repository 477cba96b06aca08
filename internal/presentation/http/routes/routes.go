// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/postpal/postpal-go/internal/application/container"
	"github.com/postpal/postpal-go/internal/presentation/http/handlers"
	"github.com/postpal/postpal-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	leadMagnetHandlers := handlers.NewLeadMagnetHandlers(container.CaptureService, container.DownloadService, container.ResolveService, container.Logger, container.PerfTracker)
	flowHandlers := handlers.NewFlowHandlers(container.FlowService, container.Logger, container.PerfTracker)
	analyticsHandlers := handlers.NewAnalyticsHandlers(container.Analytics, container.Logger, container.PerfTracker)
	authHandlers := handlers.NewAuthHandlers(container.Auth, container.Logger, container.PerfTracker)
	statusHandlers := handlers.NewStatusHandlers(container.EventLogDB, container.PerfTracker)

	api := r.Group("/api/v1")
	{
		// Lead-magnet endpoints serve personalized state; caches must not
		// hold their responses.
		leadMagnet := api.Group("/lead-magnet")
		leadMagnet.Use(middleware.NoStoreMiddleware())
		{
			leadMagnet.POST("/capture", leadMagnetHandlers.PostCapture)
			leadMagnet.POST("/download", leadMagnetHandlers.PostDownload)
			leadMagnet.GET("/resolve-known", leadMagnetHandlers.GetResolveKnown)
			leadMagnet.GET("/asset", leadMagnetHandlers.GetAsset)
		}

		flow := api.Group("/flow")
		flow.Use(middleware.NoStoreMiddleware())
		flow.Use(middleware.SessionMiddleware())
		{
			flow.POST("/view", flowHandlers.PostView)
			flow.POST("/submit", flowHandlers.PostSubmit)
			flow.POST("/event", flowHandlers.PostEvent)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.POST("/logout", authHandlers.PostLogout)
		}

		analytics := api.Group("/analytics")
		analytics.Use(authHandlers.AuthMiddleware())
		{
			analytics.GET("/leads", analyticsHandlers.GetLeadMetrics)
		}

		api.GET("/status", statusHandlers.GetStatus)
	}

	return r
}
