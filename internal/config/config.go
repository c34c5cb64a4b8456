package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Relationship RelationshipConfig
	Log          LogConfig
	Client       ClientConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, sqlite
	URL             string `mapstructure:"url"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RelationshipConfig struct {
	// RerequestCooldown blocks a new request for an ordered pair whose
	// previous relationship was terminated less than this long ago.
	// Zero disables the check.
	RerequestCooldown time.Duration `mapstructure:"rerequest_cooldown"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type ClientConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Cache        string        `mapstructure:"cache"` // memory, redis
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	Redis        RedisConfig
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// New returns a viper instance with defaults and environment bindings set.
// Callers may bind flags onto it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "host=localhost user=postgres password=postgres dbname=mentorship port=5432 sslmode=disable")
	v.SetDefault("database.file_path", "./data/mentorship.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", "168h")
	v.SetDefault("relationship.rerequest_cooldown", "0s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("client.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("client.poll_interval", "3s")
	v.SetDefault("client.timeout", "10s")
	v.SetDefault("client.cache", "memory")
	v.SetDefault("client.cache_ttl", "30s")
	v.SetDefault("client.redis.address", "localhost:6379")
	v.SetDefault("client.redis.password", "")
	v.SetDefault("client.redis.db", 0)

	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.ttl", "JWT_TTL")
	v.BindEnv("relationship.rerequest_cooldown", "REREQUEST_COOLDOWN")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.pretty", "LOG_PRETTY")
	v.BindEnv("client.base_url", "API_BASE_URL")
	v.BindEnv("client.poll_interval", "POLL_INTERVAL")
	v.BindEnv("client.cache", "CLIENT_CACHE")
	v.BindEnv("client.redis.address", "REDIS_ADDRESS")
	v.BindEnv("client.redis.password", "REDIS_PASSWORD")
	v.BindEnv("client.redis.db", "REDIS_DB")

	return v
}

// Load reads the optional config file and decodes everything into Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings the server cannot run without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret (JWT_SECRET) must be set")
	}
	if c.Relationship.RerequestCooldown < 0 {
		return fmt.Errorf("relationship.rerequest_cooldown must not be negative")
	}
	return nil
}
