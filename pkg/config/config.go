package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Remote  RemoteConfig
	Session SessionConfig
	Redis   RedisConfig
	Stub    StubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTFLOW_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"CARTFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RemoteConfig struct {
	BaseURL        string        `envconfig:"CARTFLOW_REMOTE_BASE_URL" required:"true"`
	APIKey         string        `envconfig:"CARTFLOW_REMOTE_API_KEY"`
	RequestTimeout time.Duration `envconfig:"CARTFLOW_REMOTE_REQUEST_TIMEOUT" default:"10s"`
}

type SessionConfig struct {
	Namespace string `envconfig:"CARTFLOW_SESSION_NAMESPACE" default:"cartflow"`
	Backend   string `envconfig:"CARTFLOW_SESSION_BACKEND" default:"sqlite"`
	SQLite    string `envconfig:"CARTFLOW_SESSION_SQLITE_PATH" default:"cartflow.db"`
}

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
	SessionBackendSQLite = "sqlite"
)

func (s SessionConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case SessionBackendMemory, SessionBackendRedis, SessionBackendSQLite:
		return nil
	}
	return fmt.Errorf("unknown session backend %q", s.Backend)
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTFLOW_REDIS_URL"`
	Address      string        `envconfig:"CARTFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"CARTFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StubConfig struct {
	Port    string        `envconfig:"CARTFLOW_STUB_PORT" default:"8090"`
	CartTTL time.Duration `envconfig:"CARTFLOW_STUB_CART_TTL" default:"30m"`
}
