package router

import (
	"fmt"
	"strings"

	"github.com/somar/dispatch/internal/cache"
	"github.com/somar/dispatch/internal/config"
	dispatchhandlers "github.com/somar/dispatch/internal/http/handlers/dispatch"
	riderhandlers "github.com/somar/dispatch/internal/http/handlers/rider"
	"github.com/somar/dispatch/internal/logger"
	"github.com/somar/dispatch/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires middleware and routes.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	dispatchHandler := dispatchhandlers.New(c)
	riderHandler := riderhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "somar"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// Receipt files.
	r.Static("/uploads", "./uploads")

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/rider/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), riderHandler.Login)
			auth.POST("/dispatch/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), dispatchHandler.Login)
		}

		rider := apiV1.Group("/rider")
		rider.Use(RiderJWTAuthMiddleware(cfg.JWT.SecretKey, c.RiderRepo))
		{
			rider.GET("/me", riderHandler.Me)
			rider.GET("/stats", riderHandler.Stats)
			rider.GET("/balance", riderHandler.Balance)
			rider.GET("/movements", riderHandler.Movements)
			rider.GET("/orders/available", riderHandler.AvailableOrders)
			rider.GET("/orders/active", riderHandler.ActiveOrders)
			rider.POST("/orders/:id/accept", riderHandler.AcceptOrder)
			rider.POST("/orders/:id/at-merchant", riderHandler.AtMerchant)
			rider.POST("/orders/:id/pickup", riderHandler.Pickup)
			rider.POST("/orders/:id/depart", riderHandler.Depart)
			rider.POST("/orders/:id/arrive", riderHandler.Arrive)
			rider.POST("/orders/:id/deliver", riderHandler.Deliver)
		}

		dispatch := apiV1.Group("/dispatch")
		dispatch.Use(DispatcherJWTAuthMiddleware(cfg.JWT.SecretKey, c.DispatcherRepo))
		{
			dispatch.GET("/config", dispatchHandler.GetConfig)
			dispatch.PUT("/config", dispatchHandler.UpdateSetting)
			dispatch.GET("/riders", dispatchHandler.ListRiders)
			dispatch.GET("/riders/:id/movements", dispatchHandler.ListRiderMovements)
			dispatch.POST("/riders/:id/settle", dispatchHandler.SettleRider)
			dispatch.GET("/orders", dispatchHandler.ListOrders)
			dispatch.POST("/orders", dispatchHandler.CreateOrder)
			dispatch.POST("/orders/preview", dispatchHandler.PreviewSplit)
			dispatch.GET("/orders/:id", dispatchHandler.GetOrder)
			dispatch.POST("/orders/:id/assign", dispatchHandler.AssignOrder)
			dispatch.POST("/orders/:id/cancel", dispatchHandler.CancelOrder)
			dispatch.POST("/orders/:id/transfer/validate", dispatchHandler.ValidateTransfer)
			dispatch.GET("/orders/:id/transfer/logs", dispatchHandler.ListTransferLogs)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
