package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Environment: "test",
		Strategy: StrategyConfig{
			Symbol:               "EURUSD",
			BaseTimeframe:        "M1",
			Point:                0.0001,
			SwingLookback:        20,
			OBLookback:           30,
			MinConfluencePct:     40,
			MinQualityScore:      70,
			RiskPerTrade:         0.005,
			MinRiskMultiplier:    0.5,
			MaxRiskMultiplier:    1.5,
			MinRRRatio:           2,
			MaxRRRatio:           3,
			FillWindowBars:       60,
			ResolutionWindowBars: 200,
			MTF:                  MTFConfig{MinAlignmentPct: 50},
			Breaker:              BreakerConfig{Enabled: true, Lookback: 100},
		},
		Risk: RiskConfig{
			Enabled:          true,
			MaxDailyLossPct:  0.03,
			MaxWeeklyLossPct: 0.05,
			MaxDailyTrades:   20,
		},
		Backtest: BacktestConfig{
			InitialBalance: 10000,
			WarmupBars:     50,
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Strategy.SwingLookback = 2
	cfg.Strategy.RiskPerTrade = 0.2
	cfg.Backtest.InitialBalance = -1

	violations := cfg.Validate()
	assert.Len(t, violations, 3)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "swing lookback too small",
			mutate: func(c *Config) { c.Strategy.SwingLookback = 2 },
			want:   "swing_lookback",
		},
		{
			name:   "swing lookback too large",
			mutate: func(c *Config) { c.Strategy.SwingLookback = 25 },
			want:   "swing_lookback",
		},
		{
			name:   "ob lookback out of range",
			mutate: func(c *Config) { c.Strategy.OBLookback = 31 },
			want:   "ob_lookback",
		},
		{
			name:   "risk per trade above cap",
			mutate: func(c *Config) { c.Strategy.RiskPerTrade = 0.06 },
			want:   "risk_per_trade",
		},
		{
			name:   "inverted RR bounds",
			mutate: func(c *Config) { c.Strategy.MinRRRatio = 3; c.Strategy.MaxRRRatio = 2 },
			want:   "RR bounds",
		},
		{
			name:   "inverted risk multipliers",
			mutate: func(c *Config) { c.Strategy.MinRiskMultiplier = 2; c.Strategy.MaxRiskMultiplier = 1 },
			want:   "risk multiplier",
		},
		{
			name:   "zero point size",
			mutate: func(c *Config) { c.Strategy.Point = 0 },
			want:   "point",
		},
		{
			name:   "breaker enabled without lookback",
			mutate: func(c *Config) { c.Strategy.Breaker.Lookback = 0 },
			want:   "breaker",
		},
		{
			name:   "daily loss above weekly",
			mutate: func(c *Config) { c.Risk.MaxDailyLossPct = 0.05; c.Risk.MaxWeeklyLossPct = 0.05 },
			want:   "max_weekly_loss_pct",
		},
		{
			name:   "warmup too small",
			mutate: func(c *Config) { c.Backtest.WarmupBars = 3 },
			want:   "warmup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			violations := cfg.Validate()
			assert.NotEmpty(t, violations)
			found := false
			for _, v := range violations {
				if strings.Contains(v, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "expected a violation mentioning %q, got %v", tt.want, violations)
		})
	}
}

func TestValidateRiskDisabledSkipsRiskChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Risk.Enabled = false
	cfg.Risk.MaxDailyLossPct = -1
	assert.Empty(t, cfg.Validate())
}
