// Package router wires the HTTP routes and middleware chain.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the route handlers the router mounts.
type Handlers struct {
	Product *handler.ProductHandler
	Sync    *handler.SyncHandler
	System  *handler.SystemHandler
}

// New builds the gin engine with the full middleware chain and routes.
func New(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		gin.Recovery(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.CORSWithConfig(corsConfig(cfg)),
	)

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	v1 := engine.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", h.Product.ListProducts)
			products.GET("/:id", h.Product.GetProduct)
			products.POST("", h.Product.CreateProduct)
			products.PUT("/:id", h.Product.UpdateProduct)
			products.DELETE("/:id", h.Product.DeleteProduct)
		}

		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/product-updated", h.Sync.ProductUpdated)
			webhooks.POST("/product-deleted", h.Sync.ProductDeleted)
		}

		sync := v1.Group("/sync")
		{
			sync.POST("/products", h.Sync.ResyncAll)
			sync.POST("/products/:id", h.Sync.ResyncProduct)
		}
	}

	return engine
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	return corsCfg
}
