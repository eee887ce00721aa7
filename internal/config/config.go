// Package config loads the server configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/palemoky/cluegrid/internal/game/room"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CLUEGRID_"

const (
	defaultHost              = "0.0.0.0"
	defaultPort              = 1780
	defaultReadHeaderTimeout = 10 // seconds
	defaultMaxConnections    = 1000
	defaultRedisAddr         = "localhost:6379"
	defaultStorageDriver     = DriverRedis
	defaultRoomTTL           = 120 // minutes
	defaultStoreTimeout      = 2000
	defaultMessagePerSecond  = 10
	defaultMessageBurst      = 20
	defaultConnPerMinute     = 60
	defaultLogLevel          = "info"
)

// Storage drivers
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config is the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	ReadHeaderTimeout int    `yaml:"read_header_timeout"` // seconds
	MaxConnections    int    `yaml:"max_connections"`
}

// Addr returns host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReadHeaderTimeoutDuration returns the header read timeout.
func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return time.Duration(c.ReadHeaderTimeout) * time.Second
}

// StorageConfig selects the room store.
type StorageConfig struct {
	Driver         string `yaml:"driver"`           // redis or memory
	RoomTTLMinutes int    `yaml:"room_ttl_minutes"` // idle room retention (redis)
}

// RoomTTL returns the retention of an idle room.
func (c *StorageConfig) RoomTTL() time.Duration {
	return time.Duration(c.RoomTTLMinutes) * time.Minute
}

// RedisConfig configures the Redis client.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig holds the rules new rooms are created with.
type GameConfig struct {
	MinPlayers     int  `yaml:"min_players"`
	MaxPlayers     int  `yaml:"max_players"`
	GridRows       int  `yaml:"grid_rows"`
	GridCols       int  `yaml:"grid_cols"`
	MaxRounds      int  `yaml:"max_rounds"`
	AllowForfeit   bool `yaml:"allow_forfeit"`
	SkipClueGiver  bool `yaml:"skip_clue_giver"`
	StoreTimeoutMS int  `yaml:"store_timeout_ms"`
}

// Rules converts the section to room rules.
func (c *GameConfig) Rules() room.Rules {
	return room.Rules{
		MinPlayers:       c.MinPlayers,
		MaxPlayers:       c.MaxPlayers,
		GridRows:         c.GridRows,
		GridCols:         c.GridCols,
		DefaultMaxRounds: c.MaxRounds,
		AllowForfeit:     c.AllowForfeit,
		SkipClueGiver:    c.SkipClueGiver,
	}
}

// StoreTimeout bounds one action's lock, load and save.
func (c *GameConfig) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// SecurityConfig guards the transport.
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	BlockedIPs     []string           `yaml:"blocked_ips"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig limits new connections per IP.
type RateLimitConfig struct {
	MaxPerMinute int `yaml:"max_per_minute"`
}

// MessageLimitConfig limits frames per connection.
type MessageLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads path, applies .env and environment overrides, then defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
func Default() *Config {
	var cfg Config
	if err := cfg.finish(); err != nil {
		// an invalid override falls back to the plain defaults
		cfg = Config{}
		cfg.applyDefaults()
	}
	return &cfg
}

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) finish() error {
	if err := c.loadFromEnv(os.LookupEnv); err != nil {
		return err
	}
	c.applyDefaults()
	return c.Validate()
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaultStorageDriver
	}
	if c.Storage.RoomTTLMinutes == 0 {
		c.Storage.RoomTTLMinutes = defaultRoomTTL
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}

	rules := room.DefaultRules()
	if c.Game.MinPlayers == 0 {
		c.Game.MinPlayers = rules.MinPlayers
	}
	if c.Game.MaxPlayers == 0 {
		c.Game.MaxPlayers = rules.MaxPlayers
	}
	if c.Game.GridRows == 0 {
		c.Game.GridRows = rules.GridRows
	}
	if c.Game.GridCols == 0 {
		c.Game.GridCols = rules.GridCols
	}
	if c.Game.MaxRounds == 0 {
		c.Game.MaxRounds = rules.DefaultMaxRounds
	}
	if c.Game.StoreTimeoutMS == 0 {
		c.Game.StoreTimeoutMS = defaultStoreTimeout
	}

	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	if c.Security.RateLimit.MaxPerMinute == 0 {
		c.Security.RateLimit.MaxPerMinute = defaultConnPerMinute
	}
	if c.Security.MessageLimit.PerSecond == 0 {
		c.Security.MessageLimit.PerSecond = defaultMessagePerSecond
	}
	if c.Security.MessageLimit.Burst == 0 {
		c.Security.MessageLimit.Burst = defaultMessageBurst
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

// Validate rejects settings no room could be played with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Storage.Driver)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("server.max_connections must be at least 1, got %d", c.Server.MaxConnections)
	}
	if c.Security.RateLimit.MaxPerMinute < 1 {
		return fmt.Errorf("security.rate_limit.max_per_minute must be at least 1, got %d", c.Security.RateLimit.MaxPerMinute)
	}
	g := c.Game
	if g.MinPlayers < 2 {
		return fmt.Errorf("game.min_players must be at least 2, got %d", g.MinPlayers)
	}
	if g.MaxPlayers < g.MinPlayers || g.MaxPlayers > len(room.ChipColors) {
		return fmt.Errorf("game.max_players must be between %d and %d, got %d", g.MinPlayers, len(room.ChipColors), g.MaxPlayers)
	}
	if g.GridRows < 1 || g.GridCols < 1 {
		return fmt.Errorf("game grid must be at least 1x1, got %dx%d", g.GridRows, g.GridCols)
	}
	if g.MaxRounds < 1 {
		return fmt.Errorf("game.max_rounds must be at least 1, got %d", g.MaxRounds)
	}
	if c.Security.MessageLimit.PerSecond < 0 || c.Security.MessageLimit.Burst < 0 {
		return errors.New("security.message_limit must not be negative")
	}
	return nil
}

// loadFromEnv applies CLUEGRID_* overrides.
func (c *Config) loadFromEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("SERVER_HOST", &c.Server.Host)
	num("SERVER_PORT", &c.Server.Port)
	num("SERVER_MAX_CONNECTIONS", &c.Server.MaxConnections)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	num("STORAGE_ROOM_TTL_MINUTES", &c.Storage.RoomTTLMinutes)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	num("GAME_MIN_PLAYERS", &c.Game.MinPlayers)
	num("GAME_MAX_PLAYERS", &c.Game.MaxPlayers)
	num("GAME_GRID_ROWS", &c.Game.GridRows)
	num("GAME_GRID_COLS", &c.Game.GridCols)
	num("GAME_MAX_ROUNDS", &c.Game.MaxRounds)
	flag("GAME_ALLOW_FORFEIT", &c.Game.AllowForfeit)
	flag("GAME_SKIP_CLUE_GIVER", &c.Game.SkipClueGiver)
	num("GAME_STORE_TIMEOUT_MS", &c.Game.StoreTimeoutMS)
	str("LOG_LEVEL", &c.Log.Level)
	flag("LOG_PRETTY", &c.Log.Pretty)

	if v, ok := lookup(EnvPrefix + "SECURITY_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Security.AllowedOrigins = origins
	}

	return errors.Join(errs...)
}
