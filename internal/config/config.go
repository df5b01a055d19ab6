package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"OptionSentinel/internal/chain"
	"OptionSentinel/internal/strategy"
)

// Data providers.
const (
	ProviderYahoo    = "yahoo"
	ProviderVsTrader = "vstrader"
	ProviderMock     = "mock"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string        `yaml:"provider"`
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"data_source"`
	Instruments []Instrument `yaml:"instruments"`
	Engine      struct {
		MomentumLookback       int           `yaml:"momentum_lookback"`
		RSIPeriods             int           `yaml:"rsi_periods"`
		BollingerPeriods       int           `yaml:"bollinger_periods"`
		VolatilityLookbackDays int           `yaml:"volatility_lookback_days"`
		RiskFreeRate           *float64      `yaml:"risk_free_rate"` // nil until defaults apply; an explicit 0 is kept
		Timeout                time.Duration `yaml:"timeout"`
		Parallel               int           `yaml:"parallel"`
	} `yaml:"engine"`
	Schedule struct {
		EvaluateCron string `yaml:"evaluate_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		Listen       string   `yaml:"listen"` // empty disables the HTTP API
		AllowOrigins []string `yaml:"allow_origins"`
		Production   bool     `yaml:"production"`
	} `yaml:"api"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Instrument is the listing convention of one underlying.
type Instrument struct {
	Symbol           string                `yaml:"symbol"`
	VolatilitySymbol string                `yaml:"volatility_symbol"` // implied volatility index, e.g. VIX
	StrikeTiers      []strategy.StrikeTier `yaml:"strike_tiers"`
	SpreadWidth      string                `yaml:"spread_width"`
	CondorOffset     string                `yaml:"condor_offset"`
	CondorWing       string                `yaml:"condor_wing"`
	Expiry           struct {
		Weekday string `yaml:"weekday"`
		MinDays *int   `yaml:"min_days"` // nil until defaults apply; 0 allows same-day expiries
	} `yaml:"expiry"`
	Listing struct {
		Weeks int     `yaml:"weeks"`
		Range float64 `yaml:"range"`
	} `yaml:"listing"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.overrideSymbols(strings.Split(v, ","))
	}
	if v := os.Getenv("CRON_EVALUATE"); v != "" {
		c.Schedule.EvaluateCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.Schedule.RunOnStart = v == "true"
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.RiskFreeRate = &rate
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("API_LISTEN"); v != "" {
		c.API.Listen = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// overrideSymbols keeps configured instruments named in symbols, in the given
// order, and adds bare entries for the rest.
func (c *Config) overrideSymbols(symbols []string) {
	known := make(map[string]Instrument, len(c.Instruments))
	for _, in := range c.Instruments {
		known[strings.ToUpper(in.Symbol)] = in
	}
	var out []Instrument
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		in, ok := known[s]
		if !ok {
			in = Instrument{Symbol: s}
		}
		out = append(out, in)
	}
	c.Instruments = out
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = ProviderVsTrader
		} else {
			c.DataSource.Provider = ProviderYahoo
		}
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.CacheTTL == 0 {
		c.DataSource.CacheTTL = time.Minute
	}
	if len(c.Instruments) == 0 {
		c.Instruments = []Instrument{{Symbol: "SPX", VolatilitySymbol: "VIX"}}
	}
	for i := range c.Instruments {
		in := &c.Instruments[i]
		in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
		in.VolatilitySymbol = strings.ToUpper(strings.TrimSpace(in.VolatilitySymbol))
		if in.SpreadWidth == "" {
			in.SpreadWidth = "step * 2"
		}
		if in.CondorOffset == "" {
			in.CondorOffset = "step * 2"
		}
		if in.CondorWing == "" {
			in.CondorWing = "step * 2"
		}
		if in.Expiry.Weekday == "" {
			in.Expiry.Weekday = "thursday"
		}
		if in.Expiry.MinDays == nil {
			in.Expiry.MinDays = intPtr(2)
		}
	}

	d := strategy.DefaultConfig()
	if c.Engine.MomentumLookback == 0 {
		c.Engine.MomentumLookback = d.MomentumLookback
	}
	if c.Engine.RSIPeriods == 0 {
		c.Engine.RSIPeriods = d.RSIPeriods
	}
	if c.Engine.BollingerPeriods == 0 {
		c.Engine.BollingerPeriods = d.BollingerPeriods
	}
	if c.Engine.VolatilityLookbackDays == 0 {
		c.Engine.VolatilityLookbackDays = d.VolatilityLookbackDays
	}
	if c.Engine.RiskFreeRate == nil {
		c.Engine.RiskFreeRate = floatPtr(0.04)
	}
	if c.Engine.Timeout == 0 {
		c.Engine.Timeout = time.Minute
	}
	if c.Engine.Parallel == 0 {
		c.Engine.Parallel = 4
	}

	if c.Schedule.EvaluateCron == "" {
		c.Schedule.EvaluateCron = "0 0 15 * * 1-5"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "option-sentinel:strategies"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/option_sentinel.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks that all required fields are set and every rule compiles.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderVsTrader:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider %q", ProviderVsTrader)
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.CacheTTL < 0 {
		return fmt.Errorf("data_source.cache_ttl must not be negative")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for _, in := range c.Instruments {
		if in.Symbol == "" {
			return fmt.Errorf("instrument symbol is required")
		}
		if seen[in.Symbol] {
			return fmt.Errorf("instrument %s is configured twice", in.Symbol)
		}
		seen[in.Symbol] = true
		if _, err := in.Policy(); err != nil {
			return fmt.Errorf("instrument %s: %w", in.Symbol, err)
		}
		if in.Listing.Range < 0 || in.Listing.Weeks < 0 {
			return fmt.Errorf("instrument %s: listing weeks and range must not be negative", in.Symbol)
		}
	}
	if c.Engine.MomentumLookback < 1 || c.Engine.RSIPeriods < 1 || c.Engine.BollingerPeriods < 2 {
		return fmt.Errorf("engine windows must be positive and bollinger_periods at least 2")
	}
	if c.Engine.VolatilityLookbackDays < 1 {
		return fmt.Errorf("engine.volatility_lookback_days must be positive")
	}
	if c.Engine.Parallel < 1 {
		return fmt.Errorf("engine.parallel must be positive")
	}
	if _, err := cronParser.Parse(c.Schedule.EvaluateCron); err != nil {
		return fmt.Errorf("schedule.evaluate_cron: %w", err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Symbols lists the configured underlyings in order.
func (c *Config) Symbols() []string {
	out := make([]string, 0, len(c.Instruments))
	for _, in := range c.Instruments {
		out = append(out, in.Symbol)
	}
	return out
}

// ImpliedIndex maps underlyings to their implied volatility index.
func (c *Config) ImpliedIndex() map[string]string {
	out := make(map[string]string)
	for _, in := range c.Instruments {
		if in.VolatilitySymbol != "" {
			out[in.Symbol] = in.VolatilitySymbol
		}
	}
	return out
}

// StrategyConfig builds the engine configuration.
func (c *Config) StrategyConfig() (strategy.Config, error) {
	sc := strategy.Config{
		MomentumLookback:       c.Engine.MomentumLookback,
		RSIPeriods:             c.Engine.RSIPeriods,
		BollingerPeriods:       c.Engine.BollingerPeriods,
		VolatilityLookbackDays: c.Engine.VolatilityLookbackDays,
		Instruments:            make(map[string]strategy.InstrumentPolicy, len(c.Instruments)),
	}
	for _, in := range c.Instruments {
		p, err := in.Policy()
		if err != nil {
			return strategy.Config{}, fmt.Errorf("instrument %s: %w", in.Symbol, err)
		}
		sc.Instruments[in.Symbol] = p
	}
	return sc, nil
}

// Listings builds the per-symbol contract listings of the model chain.
func (c *Config) Listings() map[string]chain.Listing {
	out := make(map[string]chain.Listing, len(c.Instruments))
	for _, in := range c.Instruments {
		wd, _ := parseWeekday(in.Expiry.Weekday)
		out[in.Symbol] = chain.Listing{
			Strikes: in.ladder(),
			Weekday: wd,
			Weeks:   in.Listing.Weeks,
			Range:   in.Listing.Range,
		}
	}
	return out
}

func (in Instrument) ladder() strategy.StrikeLadder {
	if len(in.StrikeTiers) == 0 {
		return strategy.DefaultStrikeLadder
	}
	return strategy.NewStrikeLadder(in.StrikeTiers...)
}

// Policy compiles the instrument's strike and width rules.
func (in Instrument) Policy() (strategy.InstrumentPolicy, error) {
	ladder := in.ladder()
	if err := ladder.Validate(); err != nil {
		return strategy.InstrumentPolicy{}, err
	}
	wd, err := parseWeekday(in.Expiry.Weekday)
	if err != nil {
		return strategy.InstrumentPolicy{}, err
	}
	minDays := 2
	if in.Expiry.MinDays != nil {
		minDays = *in.Expiry.MinDays
	}
	if minDays < 0 {
		return strategy.InstrumentPolicy{}, fmt.Errorf("expiry.min_days must not be negative")
	}
	p := strategy.InstrumentPolicy{
		Strikes: ladder,
		Expiry:  strategy.WeeklyExpiry{Weekday: wd, MinDays: minDays},
	}
	if p.SpreadWidth, err = strategy.NewWidthRule(in.SpreadWidth); err != nil {
		return strategy.InstrumentPolicy{}, err
	}
	if p.CondorOffset, err = strategy.NewWidthRule(in.CondorOffset); err != nil {
		return strategy.InstrumentPolicy{}, err
	}
	if p.CondorWing, err = strategy.NewWidthRule(in.CondorWing); err != nil {
		return strategy.InstrumentPolicy{}, err
	}
	return p, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// Rate is the configured risk-free rate.
func (c *Config) Rate() float64 {
	if c.Engine.RiskFreeRate == nil {
		return 0.04
	}
	return *c.Engine.RiskFreeRate
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
