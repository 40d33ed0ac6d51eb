// Package config loads run configuration files.
//
// A configuration file is TOML (.toml) or YAML (.yaml, .yml). Unknown
// keys are rejected. Defaults are applied after decoding and the result
// is checked against an embedded CUE schema, so every problem surfaces
// as an INVALID_CONFIG error before any tile work starts:
//
//	output_dir        = "out"
//	water_limit       = 0.01
//	super_sampler_url = "http://localhost:8080"
//	num_tiles         = 24
//	loop_delay        = 0.1 # seconds
//
//	[signal]
//	source = "thermal"
//	fallback_celsius = 35.0
package config

import (
	"time"

	"github.com/slizzai/slizzai/pkg/budget"
	"github.com/slizzai/slizzai/pkg/cache"
	"github.com/slizzai/slizzai/pkg/geometry"
	"github.com/slizzai/slizzai/pkg/pipeline"
	"github.com/slizzai/slizzai/pkg/render"
	"github.com/slizzai/slizzai/pkg/scheduler"
)

// Signal sources.
const (
	SignalConstant = "constant"
	SignalThermal  = "thermal"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
	StoreNone   = "none"
)

// Config is the contents of a configuration file. Durations are seconds.
// Pointer fields distinguish "unset" from an explicit zero.
type Config struct {
	OutputDir       string   `toml:"output_dir" yaml:"output_dir" json:"output_dir"`
	FibModulus      uint64   `toml:"fib_modulus" yaml:"fib_modulus" json:"fib_modulus"`
	NumTiles        *int     `toml:"num_tiles" yaml:"num_tiles" json:"num_tiles"`
	WaterLimit      float64  `toml:"water_limit" yaml:"water_limit" json:"water_limit"`
	SuperSamplerURL string   `toml:"super_sampler_url" yaml:"super_sampler_url" json:"super_sampler_url"`
	LoopDelay       *float64 `toml:"loop_delay" yaml:"loop_delay" json:"loop_delay"`

	Workers       int     `toml:"workers" yaml:"workers" json:"workers"`
	Tolerance     float64 `toml:"tolerance" yaml:"tolerance" json:"tolerance"`
	CallTimeout   float64 `toml:"call_timeout" yaml:"call_timeout" json:"call_timeout"`
	RetryAttempts int     `toml:"retry_attempts" yaml:"retry_attempts" json:"retry_attempts"`
	RetryDelay    float64 `toml:"retry_delay" yaml:"retry_delay" json:"retry_delay"`
	TileSize      int     `toml:"tile_size" yaml:"tile_size" json:"tile_size"`

	Signal   Signal   `toml:"signal" yaml:"signal" json:"signal"`
	Geometry Geometry `toml:"geometry" yaml:"geometry" json:"geometry"`
	Cache    Cache    `toml:"cache" yaml:"cache" json:"cache"`
	Store    Store    `toml:"store" yaml:"store" json:"store"`
}

// Signal configures the budget gate's signal.
type Signal struct {
	Source          string   `toml:"source" yaml:"source" json:"source"`
	FallbackCelsius *float64 `toml:"fallback_celsius" yaml:"fallback_celsius" json:"fallback_celsius"`
	Baseline        *float64 `toml:"baseline" yaml:"baseline" json:"baseline"`
	Rate            *float64 `toml:"rate" yaml:"rate" json:"rate"`
	ThermalRoot     string   `toml:"thermal_root" yaml:"thermal_root" json:"thermal_root,omitempty"`
}

// Geometry configures the built-in geometry source.
type Geometry struct {
	Size int    `toml:"size" yaml:"size" json:"size"`
	Seed uint64 `toml:"seed" yaml:"seed" json:"seed"`
}

// Cache configures the enhancement result cache.
type Cache struct {
	Backend   string  `toml:"backend" yaml:"backend" json:"backend"`
	Dir       string  `toml:"dir" yaml:"dir" json:"dir,omitempty"`
	RedisAddr string  `toml:"redis_addr" yaml:"redis_addr" json:"redis_addr,omitempty"`
	Prefix    string  `toml:"prefix" yaml:"prefix" json:"prefix,omitempty"` // key namespace for shared backends
	TTL       float64 `toml:"ttl" yaml:"ttl" json:"ttl"` // seconds
}

// Store configures where run records are kept.
type Store struct {
	Backend  string `toml:"backend" yaml:"backend" json:"backend"`
	Path     string `toml:"path" yaml:"path" json:"path,omitempty"`
	MongoURI string `toml:"mongo_uri" yaml:"mongo_uri" json:"mongo_uri,omitempty"`
	Database string `toml:"database" yaml:"database" json:"database,omitempty"`
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.FibModulus == 0 {
		c.FibModulus = scheduler.DefaultModulus
	}
	if c.NumTiles == nil {
		n := pipeline.DefaultNumTiles
		c.NumTiles = &n
	}
	if c.LoopDelay == nil {
		d := pipeline.DefaultLoopDelay.Seconds()
		c.LoopDelay = &d
	}
	if c.Workers == 0 {
		c.Workers = pipeline.DefaultWorkers
	}
	if c.Tolerance == 0 {
		c.Tolerance = pipeline.DefaultTolerance
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = pipeline.DefaultCallTimeout.Seconds()
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = pipeline.DefaultRetryAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = pipeline.DefaultRetryDelay.Seconds()
	}
	if c.TileSize == 0 {
		c.TileSize = render.DefaultSize
	}

	if c.Signal.Source == "" {
		c.Signal.Source = SignalThermal
	}
	if c.Signal.FallbackCelsius == nil {
		c.Signal.FallbackCelsius = budget.Float(budget.DefaultFallbackCelsius)
	}
	if c.Signal.Baseline == nil {
		c.Signal.Baseline = budget.Float(budget.DefaultBaseline)
	}
	if c.Signal.Rate == nil {
		c.Signal.Rate = budget.Float(budget.DefaultRate)
	}

	if c.Geometry.Size == 0 {
		c.Geometry.Size = geometry.DefaultSize
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = cache.TTLEnhanced.Seconds()
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreFile
	}
}

// SignalSources returns the gate's primary and fallback sources.
func (c *Config) SignalSources() (source, fallback budget.SignalSource) {
	fallback = budget.ConstantSignalSource{Celsius: *c.Signal.FallbackCelsius}
	if c.Signal.Source == SignalConstant {
		return fallback, nil
	}
	root := c.Signal.ThermalRoot
	if root == "" {
		root = budget.DefaultThermalRoot
	}
	return budget.ThermalZoneSource{Root: root}, fallback
}

// Pipeline converts the configuration into orchestrator options.
// Logger, hooks and the run ID are left for the caller.
func (c *Config) Pipeline() pipeline.Options {
	source, fallback := c.SignalSources()
	return pipeline.Options{
		OutputDir: c.OutputDir,
		NumTiles:  *c.NumTiles,
		Modulus:   c.FibModulus,
		LoopDelay: seconds(*c.LoopDelay),
		Tolerance: c.Tolerance,
		Workers:   c.Workers,
		Retry: pipeline.RetryOptions{
			Attempts: c.RetryAttempts,
			Delay:    seconds(c.RetryDelay),
		},
		CallTimeout: seconds(c.CallTimeout),
		Budget: budget.Options{
			Limit:    c.WaterLimit,
			Baseline: budget.Float(*c.Signal.Baseline),
			Rate:     budget.Float(*c.Signal.Rate),
			Source:   source,
			Fallback: fallback,
		},
	}
}

// CacheTTL returns the configured cache lifetime.
func (c *Config) CacheTTL() time.Duration { return seconds(c.Cache.TTL) }

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
