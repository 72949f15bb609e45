package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/api/handlers"
	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/database"
	"github.com/tradeforge/smcbot/internal/marketdata"
	"github.com/tradeforge/smcbot/internal/services"
)

// Dependencies bundles everything the route handlers need. Database,
// Redis and the trade store may be nil when disabled in config.
type Dependencies struct {
	Config   *config.Config
	Logger   *logrus.Logger
	DB       *database.PostgresDB
	Redis    *database.RedisClient
	Provider marketdata.Provider
	Store    *services.TradeStore
}

// SetupRoutes registers all HTTP endpoints on the router.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	health := handlers.NewHealthHandler(deps.DB, deps.Redis)
	router.GET("/health", health.Check)

	backtest := handlers.NewBacktestHandler(deps.Config, deps.Logger, deps.Provider, deps.Store)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/backtest", backtest.Run)
		v1.GET("/trades", backtest.RecentTrades)
		v1.GET("/config/strategy", backtest.StrategyConfig)
	}
}
