package api

import (
	"garage_config/internal/api/handler"
	"garage_config/internal/api/middleware"
	"garage_config/internal/service"

	"github.com/gin-gonic/gin"
)

type Services struct {
	Garages *service.GarageService
	Deploys *service.DeployService
	Uploads *service.UploadService
	GitHub  *service.GitHubService
}

func SetupRouter(frontendURL string, svc Services, authMw *middleware.AuthMiddleware,
	wsHandler *handler.WebSocketHandler, healthHandler *handler.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", frontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", healthHandler.Health)
	r.GET("/ws", wsHandler.HandleWebSocket)
	r.Static("/uploads", svc.Uploads.Dir())

	apiGroup := r.Group("/api")
	apiGroup.Use(authMw.Authenticate())
	{
		garageH := handler.NewGarageHandler(svc.Garages)
		elementH := handler.NewElementHandler(svc.Garages)
		deployH := handler.NewDeploymentHandler(svc.Deploys)

		garageRoutes := apiGroup.Group("/garages")
		{
			garageRoutes.GET("", garageH.GetAllGarages)
			garageRoutes.POST("", garageH.CreateGarage)
			garageRoutes.POST("/import", garageH.ImportGarage)
			garageRoutes.GET("/:id", garageH.GetGarageByID)
			garageRoutes.PUT("/:id", garageH.UpdateGarage)
			garageRoutes.DELETE("/:id", garageH.DeleteGarage)
			garageRoutes.GET("/:id/export", garageH.ExportGarage)
			garageRoutes.PUT("/:id/levels", garageH.ResizeLevels)
			garageRoutes.POST("/:id/deploy", deployH.DeployGarage)

			elementRoutes := garageRoutes.Group("/:id/levels/:level/elements")
			{
				elementRoutes.POST("", elementH.AddElement)
				elementRoutes.PATCH("/:type/:elementId", elementH.UpdateElement)
				elementRoutes.DELETE("/:type/:elementId", elementH.DeleteElement)
				elementRoutes.PUT("/:elementId/position", elementH.MoveElement)
			}
		}

		apiGroup.GET("/deployments", deployH.GetDeployments)

		uploadH := handler.NewUploadHandler(svc.Uploads, svc.GitHub)
		apiGroup.POST("/upload", uploadH.Upload)
		apiGroup.POST("/github/push", uploadH.PushToGitHub)
	}
	return r
}
