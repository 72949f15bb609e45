package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Telegram    TelegramConfig   `mapstructure:"telegram"`
	MarketData  MarketDataConfig `mapstructure:"market_data"`
	Strategy    StrategyConfig   `mapstructure:"strategy"`
	Risk        RiskConfig       `mapstructure:"risk"`
	Backtest    BacktestConfig   `mapstructure:"backtest"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type MarketDataConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	Timeout    string `mapstructure:"timeout"`
	CacheTTL   string `mapstructure:"cache_ttl"`
}

// StrategyConfig carries every tunable of the detection pipeline.
// Threshold ladders live in the services package as ordered tables;
// only the genuinely adjustable knobs are exposed here.
type StrategyConfig struct {
	Symbol        string  `mapstructure:"symbol"`
	BaseTimeframe string  `mapstructure:"base_timeframe"`
	Point         float64 `mapstructure:"point"`

	SwingLookback    int     `mapstructure:"swing_lookback"`
	OBLookback       int     `mapstructure:"ob_lookback"`
	MinConfluencePct float64 `mapstructure:"min_confluence_pct"`
	RequireConfluence bool   `mapstructure:"require_confluence"`
	MinQualityScore  int     `mapstructure:"min_quality_score"`

	MTF     MTFConfig     `mapstructure:"mtf"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Filters FilterConfig  `mapstructure:"filters"`

	RiskPerTrade      float64 `mapstructure:"risk_per_trade"`
	MinRiskMultiplier float64 `mapstructure:"min_risk_multiplier"`
	MaxRiskMultiplier float64 `mapstructure:"max_risk_multiplier"`
	MinRRRatio        float64 `mapstructure:"min_rr_ratio"`
	MaxRRRatio        float64 `mapstructure:"max_rr_ratio"`

	FillWindowBars       int `mapstructure:"fill_window_bars"`
	ResolutionWindowBars int `mapstructure:"resolution_window_bars"`
}

type MTFConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	Timeframes        []string `mapstructure:"timeframes"`
	RequireAllAligned bool     `mapstructure:"require_all_aligned"`
	MinAlignmentPct   float64  `mapstructure:"min_alignment_pct"`
	ScoreBonus        bool     `mapstructure:"score_bonus"`
}

type BreakerConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Lookback     int     `mapstructure:"lookback"`
	ScoreBonus   bool    `mapstructure:"score_bonus"`
	TolerancePct float64 `mapstructure:"tolerance_pct"`
}

type FilterConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ATRPeriod      int     `mapstructure:"atr_period"`
	MinATRPips     float64 `mapstructure:"min_atr_pips"`
	MaxATRPips     float64 `mapstructure:"max_atr_pips"`
	MinVolumeRatio float64 `mapstructure:"min_volume_ratio"`
	VolumePeriod   int     `mapstructure:"volume_period"`
}

type RiskConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxDailyLossPct  float64 `mapstructure:"max_daily_loss_pct"`
	MaxWeeklyLossPct float64 `mapstructure:"max_weekly_loss_pct"`
	MaxDailyTrades   int     `mapstructure:"max_daily_trades"`
}

type BacktestConfig struct {
	InitialBalance float64 `mapstructure:"initial_balance"`
	LookbackDays   int     `mapstructure:"lookback_days"`
	WarmupBars     int     `mapstructure:"warmup_bars"`
	SessionFilter  bool    `mapstructure:"session_filter"`
	// Session windows in UTC, "HH:MM" pairs.
	LondonOpen  string `mapstructure:"london_open"`
	LondonClose string `mapstructure:"london_close"`
	NewYorkOpen string `mapstructure:"new_york_open"`
	NewYorkClose string `mapstructure:"new_york_close"`
	ResultsFile string `mapstructure:"results_file"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN: %w", err)
	}
	if err := viper.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_CHAT_ID: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults plus env cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Environment = strings.ToLower(cfg.Environment)

	if violations := cfg.Validate(); len(violations) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(violations, "; "))
	}

	return &cfg, nil
}

// Validate collects every out-of-range parameter instead of stopping at
// the first, so operators see the full list at startup.
func (c *Config) Validate() []string {
	var violations []string

	s := c.Strategy
	if s.SwingLookback < 3 || s.SwingLookback > 20 {
		violations = append(violations, "strategy.swing_lookback must be between 3 and 20")
	}
	if s.OBLookback < 1 || s.OBLookback > 30 {
		violations = append(violations, "strategy.ob_lookback must be between 1 and 30")
	}
	if s.MinConfluencePct < 0 || s.MinConfluencePct > 100 {
		violations = append(violations, "strategy.min_confluence_pct must be between 0 and 100")
	}
	if s.MinQualityScore < 0 || s.MinQualityScore > 100 {
		violations = append(violations, "strategy.min_quality_score must be between 0 and 100")
	}
	if s.RiskPerTrade <= 0 || s.RiskPerTrade > 0.05 {
		violations = append(violations, "strategy.risk_per_trade must be between 0 and 0.05")
	}
	if s.MinRiskMultiplier <= 0 || s.MaxRiskMultiplier < s.MinRiskMultiplier {
		violations = append(violations, "strategy risk multiplier bounds must satisfy 0 < min <= max")
	}
	if s.MinRRRatio < 1 || s.MaxRRRatio < s.MinRRRatio {
		violations = append(violations, "strategy RR bounds must satisfy 1 <= min <= max")
	}
	if s.FillWindowBars <= 0 {
		violations = append(violations, "strategy.fill_window_bars must be positive")
	}
	if s.ResolutionWindowBars <= 0 {
		violations = append(violations, "strategy.resolution_window_bars must be positive")
	}
	if s.Point <= 0 {
		violations = append(violations, "strategy.point must be positive")
	}
	if s.MTF.MinAlignmentPct < 0 || s.MTF.MinAlignmentPct > 100 {
		violations = append(violations, "strategy.mtf.min_alignment_pct must be between 0 and 100")
	}
	if s.Breaker.Enabled && s.Breaker.Lookback <= 0 {
		violations = append(violations, "strategy.breaker.lookback must be positive when breaker blocks are enabled")
	}

	r := c.Risk
	if r.Enabled {
		if r.MaxDailyLossPct <= 0 || r.MaxDailyLossPct > 0.1 {
			violations = append(violations, "risk.max_daily_loss_pct must be between 0 and 0.1")
		}
		if r.MaxWeeklyLossPct <= 0 || r.MaxWeeklyLossPct > 0.2 {
			violations = append(violations, "risk.max_weekly_loss_pct must be between 0 and 0.2")
		}
		if r.MaxDailyLossPct >= r.MaxWeeklyLossPct {
			violations = append(violations, "risk.max_weekly_loss_pct must be greater than risk.max_daily_loss_pct")
		}
		if r.MaxDailyTrades <= 0 {
			violations = append(violations, "risk.max_daily_trades must be positive")
		}
	}

	if c.Backtest.InitialBalance <= 0 {
		violations = append(violations, "backtest.initial_balance must be positive")
	}
	if c.Backtest.WarmupBars < 5 {
		violations = append(violations, "backtest.warmup_bars must be at least 5")
	}

	return violations
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "smcbot")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.enabled", false)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.enabled", false)

	viper.SetDefault("telegram.enabled", false)
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", 0)

	viper.SetDefault("market_data.service_url", "http://localhost:3001")
	viper.SetDefault("market_data.timeout", "30s")
	viper.SetDefault("market_data.cache_ttl", "5m")

	viper.SetDefault("strategy.symbol", "EURUSD")
	viper.SetDefault("strategy.base_timeframe", "M1")
	viper.SetDefault("strategy.point", 0.0001)
	viper.SetDefault("strategy.swing_lookback", 20)
	viper.SetDefault("strategy.ob_lookback", 30)
	viper.SetDefault("strategy.min_confluence_pct", 40.0)
	viper.SetDefault("strategy.require_confluence", true)
	viper.SetDefault("strategy.min_quality_score", 70)
	viper.SetDefault("strategy.risk_per_trade", 0.005)
	viper.SetDefault("strategy.min_risk_multiplier", 0.5)
	viper.SetDefault("strategy.max_risk_multiplier", 1.5)
	viper.SetDefault("strategy.min_rr_ratio", 2.0)
	viper.SetDefault("strategy.max_rr_ratio", 3.0)
	viper.SetDefault("strategy.fill_window_bars", 60)
	viper.SetDefault("strategy.resolution_window_bars", 200)

	viper.SetDefault("strategy.mtf.enabled", true)
	viper.SetDefault("strategy.mtf.timeframes", []string{"M5", "M15"})
	viper.SetDefault("strategy.mtf.require_all_aligned", false)
	viper.SetDefault("strategy.mtf.min_alignment_pct", 50.0)
	viper.SetDefault("strategy.mtf.score_bonus", true)

	viper.SetDefault("strategy.breaker.enabled", true)
	viper.SetDefault("strategy.breaker.lookback", 100)
	viper.SetDefault("strategy.breaker.score_bonus", true)
	viper.SetDefault("strategy.breaker.tolerance_pct", 0.2)

	viper.SetDefault("strategy.filters.enabled", false)
	viper.SetDefault("strategy.filters.atr_period", 14)
	viper.SetDefault("strategy.filters.min_atr_pips", 3.0)
	viper.SetDefault("strategy.filters.max_atr_pips", 20.0)
	viper.SetDefault("strategy.filters.min_volume_ratio", 0.6)
	viper.SetDefault("strategy.filters.volume_period", 20)

	viper.SetDefault("risk.enabled", false)
	viper.SetDefault("risk.max_daily_loss_pct", 0.03)
	viper.SetDefault("risk.max_weekly_loss_pct", 0.05)
	viper.SetDefault("risk.max_daily_trades", 20)

	viper.SetDefault("backtest.initial_balance", 10000.0)
	viper.SetDefault("backtest.lookback_days", 30)
	viper.SetDefault("backtest.warmup_bars", 50)
	viper.SetDefault("backtest.session_filter", false)
	viper.SetDefault("backtest.london_open", "08:00")
	viper.SetDefault("backtest.london_close", "16:00")
	viper.SetDefault("backtest.new_york_open", "13:30")
	viper.SetDefault("backtest.new_york_close", "20:00")
	viper.SetDefault("backtest.results_file", "backtest_results.json")
}
