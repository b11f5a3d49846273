package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/zappabad/squeeze/internal/sim"
	"github.com/zappabad/squeeze/pkg/logger"
)

var validate = validator.New()

type Config struct {
	Simulation struct {
		InitialPrice        float64       `yaml:"initial_price" default:"15" validate:"gt=0"`
		FloatShares         float64       `yaml:"float_shares" default:"70000000" validate:"gt=0"`
		ShortInterestRatio  float64       `yaml:"short_interest_ratio" default:"1.2" validate:"gte=0"`
		Liquidity           float64       `yaml:"liquidity" default:"100000" validate:"gt=0"`
		ImpactK             float64       `yaml:"impact_k" default:"0.01" validate:"gte=0"`
		TickDuration        time.Duration `yaml:"tick_duration" default:"10ms" validate:"gt=0"`
		TotalTicks          int           `yaml:"total_ticks" default:"1000" validate:"gte=0"`
		RetailBaseRate      float64       `yaml:"retail_base_rate" default:"80" validate:"gte=0"`
		MediaAmplification  float64       `yaml:"media_amplification" default:"4" validate:"gte=0"`
		HedgeCoverThreshold float64       `yaml:"hedge_cover_threshold" default:"0.05" validate:"gte=0"`
		VolatilityThreshold float64       `yaml:"volatility_threshold" default:"0.10" validate:"gte=0"`
		FomoThreshold       float64       `yaml:"fomo_threshold" default:"0.05" validate:"gte=0"`
		PopulationSize      int           `yaml:"population_size" default:"10" validate:"gte=0"`
		Seed                int64         `yaml:"seed" default:"1"`
		ReturnWindow        int           `yaml:"return_window" default:"50" validate:"gt=0"`
		LogEvery            int           `yaml:"log_every" default:"100" validate:"gt=0"`
	} `yaml:"simulation"`
	Hype struct {
		Window    int           `yaml:"window" default:"30" validate:"gte=3"`
		Duration  int           `yaml:"duration" default:"150" validate:"gt=0"`
		Threshold float64       `yaml:"threshold" default:"0.05" validate:"gte=0"`
		Interval  time.Duration `yaml:"interval" default:"2ms" validate:"gt=0"`
	} `yaml:"hype"`
	Gate struct {
		Interval time.Duration `yaml:"interval" default:"2ms" validate:"gt=0"`
	} `yaml:"gate"`
	Actors struct {
		// Interval of zero steps actors once per tick.
		Interval time.Duration `yaml:"interval" validate:"gte=0"`
	} `yaml:"actors"`
	Ledger struct {
		ActivityCapacity int `yaml:"activity_capacity" default:"200" validate:"gt=0"`
	} `yaml:"ledger"`
	Log struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stderr"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Server struct {
		Enabled         bool          `yaml:"enabled"`
		Addr            string        `yaml:"addr" default:":8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"5s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"5s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Dashboard struct {
		Refresh        time.Duration `yaml:"refresh" default:"100ms" validate:"gt=0"`
		TicksPerCandle int           `yaml:"ticks_per_candle" default:"10" validate:"gt=0"`
	} `yaml:"dashboard"`
}

// Default returns the configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. Keys missing from the
// file keep their defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("SQUEEZE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse SQUEEZE_SEED: %w", err)
		}
		c.Simulation.Seed = seed
	}
	if v := os.Getenv("SQUEEZE_TICKS"); v != "" {
		ticks, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse SQUEEZE_TICKS: %w", err)
		}
		c.Simulation.TotalTicks = ticks
	}
	if v := os.Getenv("SQUEEZE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// SimConfig converts the file configuration into a simulation config.
func (c *Config) SimConfig() sim.Config {
	s := c.Simulation
	return sim.Config{
		Params: sim.Params{
			InitialPrice:        s.InitialPrice,
			FloatShares:         s.FloatShares,
			ShortInterestRatio:  s.ShortInterestRatio,
			Liquidity:           s.Liquidity,
			ImpactK:             s.ImpactK,
			TickDuration:        s.TickDuration,
			TotalTicks:          s.TotalTicks,
			RetailBaseRate:      s.RetailBaseRate,
			MediaAmplification:  s.MediaAmplification,
			HedgeCoverThreshold: s.HedgeCoverThreshold,
			VolatilityThreshold: s.VolatilityThreshold,
			FomoThreshold:       s.FomoThreshold,
			PopulationSize:      s.PopulationSize,
		},
		Seed:             s.Seed,
		ReturnWindow:     s.ReturnWindow,
		HypeWindow:       c.Hype.Window,
		HypeDuration:     c.Hype.Duration,
		HypeThreshold:    c.Hype.Threshold,
		ActorInterval:    c.Actors.Interval,
		GateInterval:     c.Gate.Interval,
		HypeInterval:     c.Hype.Interval,
		LogEvery:         s.LogEvery,
		ActivityCapacity: c.Ledger.ActivityCapacity,
	}
}

// LoggerConfig returns the logger section as a logger config.
func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		Output:     c.Log.Output,
		TimeFormat: c.Log.TimeFormat,
	}
}
