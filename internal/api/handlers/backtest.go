package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/marketdata"
	"github.com/tradeforge/smcbot/internal/models"
	"github.com/tradeforge/smcbot/internal/services"
)

type BacktestHandler struct {
	cfg      *config.Config
	logger   *logrus.Logger
	provider marketdata.Provider
	store    *services.TradeStore
}

// BacktestRequest selects what to replay. Zero values fall back to the
// configured strategy defaults.
type BacktestRequest struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Limit     int    `json:"limit"`
}

func NewBacktestHandler(cfg *config.Config, logger *logrus.Logger, provider marketdata.Provider, store *services.TradeStore) *BacktestHandler {
	return &BacktestHandler{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		store:    store,
	}
}

// Run fetches candle history, replays the strategy over it and returns
// the full result. The run is persisted when a trade store is wired.
func (h *BacktestHandler) Run(c *gin.Context) {
	if h.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data provider not configured"})
		return
	}

	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	cfg := *h.cfg
	if req.Symbol != "" {
		cfg.Strategy.Symbol = req.Symbol
	}
	if req.Timeframe != "" {
		cfg.Strategy.BaseTimeframe = req.Timeframe
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5000
	}

	ctx := c.Request.Context()

	candles, err := h.provider.GetCandles(ctx, cfg.Strategy.Symbol, cfg.Strategy.BaseTimeframe, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch candles: " + err.Error()})
		return
	}

	higherTF := make(map[string][]models.Candle)
	if cfg.Strategy.MTF.Enabled {
		for _, tf := range cfg.Strategy.MTF.Timeframes {
			htf, err := h.provider.GetCandles(ctx, cfg.Strategy.Symbol, tf, limit)
			if err != nil {
				h.logger.WithError(err).WithField("timeframe", tf).Warn("failed to fetch higher timeframe candles")
				continue
			}
			higherTF[tf] = htf
		}
	}

	backtester := services.NewBacktester(&cfg, h.logger)
	result, err := backtester.Run(ctx, services.BacktestInput{
		Candles:  candles,
		HigherTF: higherTF,
	})
	if err != nil {
		if errors.Is(err, services.ErrNoCandles) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "backtest failed: " + err.Error()})
		return
	}

	if h.store != nil {
		if runID, err := h.store.SaveResult(ctx, result); err != nil {
			h.logger.WithError(err).Warn("failed to persist backtest result")
		} else {
			c.Header("X-Run-ID", runID)
		}
	}

	c.JSON(http.StatusOK, result)
}

// RecentTrades lists the most recently persisted trades.
func (h *BacktestHandler) RecentTrades(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade store not configured"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	trades, err := h.store.RecentTrades(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trades: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

// StrategyConfig exposes the active detection parameters.
func (h *BacktestHandler) StrategyConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg.Strategy)
}
