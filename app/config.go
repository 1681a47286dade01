package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/ciro-network/ciro/app/telemetry"
)

const (
	// EnvPrefix prefixes every environment override, e.g. POOLD_API_ADDRESS.
	EnvPrefix = "POOLD"

	defaultAPIAddress    = "0.0.0.0:8080"
	defaultHealthAddress = "0.0.0.0:36661"
)

// DefaultNodeHome is the default home directory for poold.
var DefaultNodeHome string

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	DefaultNodeHome = filepath.Join(userHomeDir, ".poold")
}

// Config is the daemon configuration.
type Config struct {
	Home      string
	DBBackend dbm.BackendType
	LogLevel  string
	ChainID   string

	// Authority is the pool administrator principal.
	Authority string

	API    APIConfig
	Health HealthConfig

	Telemetry telemetry.Config
}

// APIConfig configures the public HTTP API.
type APIConfig struct {
	Address        string
	JWTSecret      string
	CORSOrigins    []string
	RateLimitRPS   int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

// HealthConfig configures the health and metrics side server.
type HealthConfig struct {
	Address string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Home:      DefaultNodeHome,
		DBBackend: dbm.GoLevelDBBackend,
		LogLevel:  "info",
		ChainID:   "ciro-local",
		Authority: "ciro_authority",
		API: APIConfig{
			Address:        defaultAPIAddress,
			CORSOrigins:    []string{"http://localhost:3000"},
			RateLimitRPS:   100,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Health: HealthConfig{
			Address: defaultHealthAddress,
		},
		Telemetry: telemetry.Config{
			Enabled:           false,
			OTLPEndpoint:      "localhost:4318",
			SampleRate:        0.1,
			Environment:       "development",
			PrometheusEnabled: true,
		},
	}
}

// NewViper returns a viper instance with defaults registered and POOLD_
// environment overrides enabled.
func NewViper() *viper.Viper {
	def := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("home", def.Home)
	v.SetDefault("db-backend", string(def.DBBackend))
	v.SetDefault("log-level", def.LogLevel)
	v.SetDefault("chain-id", def.ChainID)
	v.SetDefault("authority", def.Authority)

	v.SetDefault("api.address", def.API.Address)
	v.SetDefault("api.jwt-secret", def.API.JWTSecret)
	v.SetDefault("api.cors-origins", def.API.CORSOrigins)
	v.SetDefault("api.rate-limit-rps", def.API.RateLimitRPS)
	v.SetDefault("api.read-timeout", def.API.ReadTimeout)
	v.SetDefault("api.write-timeout", def.API.WriteTimeout)
	v.SetDefault("api.request-timeout", def.API.RequestTimeout)

	v.SetDefault("health.address", def.Health.Address)

	v.SetDefault("telemetry.enabled", def.Telemetry.Enabled)
	v.SetDefault("telemetry.otlp-endpoint", def.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.sample-rate", def.Telemetry.SampleRate)
	v.SetDefault("telemetry.environment", def.Telemetry.Environment)
	v.SetDefault("telemetry.prometheus-enabled", def.Telemetry.PrometheusEnabled)

	return v
}

// LoadConfig reads <home>/config/app.toml when present and applies env
// overrides on top of the defaults.
func LoadConfig(v *viper.Viper) (Config, error) {
	home := cast.ToString(v.Get("home"))
	if home == "" {
		home = DefaultNodeHome
	}

	configPath := filepath.Join(home, "config", "app.toml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
	}

	cfg := Config{
		Home:      home,
		DBBackend: dbm.BackendType(cast.ToString(v.Get("db-backend"))),
		LogLevel:  cast.ToString(v.Get("log-level")),
		ChainID:   cast.ToString(v.Get("chain-id")),
		Authority: cast.ToString(v.Get("authority")),
		API: APIConfig{
			Address:        cast.ToString(v.Get("api.address")),
			JWTSecret:      cast.ToString(v.Get("api.jwt-secret")),
			CORSOrigins:    splitList(v.Get("api.cors-origins")),
			RateLimitRPS:   cast.ToInt(v.Get("api.rate-limit-rps")),
			ReadTimeout:    cast.ToDuration(v.Get("api.read-timeout")),
			WriteTimeout:   cast.ToDuration(v.Get("api.write-timeout")),
			RequestTimeout: cast.ToDuration(v.Get("api.request-timeout")),
		},
		Health: HealthConfig{
			Address: cast.ToString(v.Get("health.address")),
		},
		Telemetry: telemetry.Config{
			Enabled:           cast.ToBool(v.Get("telemetry.enabled")),
			OTLPEndpoint:      cast.ToString(v.Get("telemetry.otlp-endpoint")),
			SampleRate:        cast.ToFloat64(v.Get("telemetry.sample-rate")),
			Environment:       cast.ToString(v.Get("telemetry.environment")),
			PrometheusEnabled: cast.ToBool(v.Get("telemetry.prometheus-enabled")),
		},
	}
	cfg.Telemetry.NodeID = cfg.ChainID

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitList accepts either a list or a comma separated string, the latter
// being what an environment variable yields.
func splitList(raw interface{}) []string {
	if s, ok := raw.(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return cast.ToStringSlice(raw)
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	switch c.DBBackend {
	case dbm.GoLevelDBBackend, dbm.MemDBBackend:
	default:
		return fmt.Errorf("unsupported db backend %q", c.DBBackend)
	}
	if strings.TrimSpace(c.Authority) == "" {
		return fmt.Errorf("authority must be set")
	}
	if c.API.Address == "" {
		return fmt.Errorf("api address must be set")
	}
	if c.API.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry sample rate must be between 0 and 1")
	}
	return nil
}

// DataDir is where the state database lives.
func (c Config) DataDir() string {
	return filepath.Join(c.Home, "data")
}
