package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Env             string `mapstructure:"env"`
	Port            int    `mapstructure:"port"`
	ShutdownSeconds int    `mapstructure:"shutdown_seconds"`
	ClientURL       string `mapstructure:"client_url"`
}

type MongoConfig struct {
	URI                     string `mapstructure:"uri"`
	Database                string `mapstructure:"database"`
	TasksCollection         string `mapstructure:"tasks_collection"`
	NotificationsCollection string `mapstructure:"notifications_collection"`
	UsersCollection         string `mapstructure:"users_collection"`
}

type RedisConfig struct {
	Addr              string `mapstructure:"addr"`
	Pass              string `mapstructure:"password"`
	DB                int    `mapstructure:"db"`
	Prefix            string `mapstructure:"prefix"`
	RateLimit         int    `mapstructure:"rate_limit"`
	RateWindowSeconds int    `mapstructure:"rate_window_seconds"`
}

type KafkaConfig struct {
	Brokers               []string `mapstructure:"brokers"`
	TopicTaskEvents       string   `mapstructure:"topic_task_events"`
	BreakerMaxFailures    uint32   `mapstructure:"breaker_max_failures"`
	BreakerTimeoutSeconds int      `mapstructure:"breaker_timeout_seconds"`
}

type WSConfig struct {
	PingIntervalSeconds  int     `mapstructure:"ping_interval_seconds"`
	PongWaitSeconds      int     `mapstructure:"pong_wait_seconds"`
	WriteDeadlineSeconds int     `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64   `mapstructure:"max_message_size_bytes"`
	SendBuffer           int     `mapstructure:"send_buffer"`
	RateLimitPerSec      float64 `mapstructure:"rate_limit_per_sec"`
	RequireToken         bool    `mapstructure:"require_token"`
}

type JWTConfig struct {
	Algorithm     string `mapstructure:"algorithm"`
	HSSecret      string `mapstructure:"hs_secret"`
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	App   AppConfig   `mapstructure:"app"`
	Mongo MongoConfig `mapstructure:"mongodb"`
	Redis RedisConfig `mapstructure:"redis"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	WS    WSConfig    `mapstructure:"ws"`
	JWT   JWTConfig   `mapstructure:"jwt"`
	Log   LogConfig   `mapstructure:"log"`

	// derived
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteDeadline  time.Duration
	RateWindow     time.Duration
	BreakerTimeout time.Duration
	ShutdownGrace  time.Duration
}

func (c *Config) Development() bool { return c.App.Env == "development" }

// RatePerMinute converts redis.rate_limit per redis.rate_window_seconds into
// a per-minute rate for the in-process limiter.
func (c *Config) RatePerMinute() int {
	if c.RateWindow <= 0 {
		return c.Redis.RateLimit
	}
	n := int(int64(c.Redis.RateLimit) * int64(time.Minute) / int64(c.RateWindow))
	if n < 1 && c.Redis.RateLimit > 0 {
		n = 1
	}
	return n
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 5000)
	v.SetDefault("app.shutdown_seconds", 10)
	v.SetDefault("app.client_url", "http://localhost:5173")

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "taskflow")
	v.SetDefault("mongodb.tasks_collection", "tasks")
	v.SetDefault("mongodb.notifications_collection", "notifications")
	v.SetDefault("mongodb.users_collection", "users")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "taskflow")
	v.SetDefault("redis.rate_limit", 120)
	v.SetDefault("redis.rate_window_seconds", 60)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_task_events", "task.events")
	v.SetDefault("kafka.breaker_max_failures", 5)
	v.SetDefault("kafka.breaker_timeout_seconds", 30)

	v.SetDefault("ws.ping_interval_seconds", 25)
	v.SetDefault("ws.pong_wait_seconds", 60)
	v.SetDefault("ws.write_deadline_seconds", 10)
	v.SetDefault("ws.max_message_size_bytes", 65536)
	v.SetDefault("ws.send_buffer", 256)
	v.SetDefault("ws.rate_limit_per_sec", 20)
	v.SetDefault("ws.require_token", false)

	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.hs_secret", "")
	v.SetDefault("jwt.public_key_path", "")

	v.SetDefault("log.level", "info")
}

// Load reads .env, then the optional YAML file at path, then environment
// overrides such as APP_PORT or MONGODB_URI.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.derive()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) derive() {
	if c.WS.PongWaitSeconds <= c.WS.PingIntervalSeconds {
		c.WS.PongWaitSeconds = c.WS.PingIntervalSeconds * 2
	}
	c.PingInterval = time.Duration(c.WS.PingIntervalSeconds) * time.Second
	c.PongWait = time.Duration(c.WS.PongWaitSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.WS.WriteDeadlineSeconds) * time.Second
	c.RateWindow = time.Duration(c.Redis.RateWindowSeconds) * time.Second
	c.BreakerTimeout = time.Duration(c.Kafka.BreakerTimeoutSeconds) * time.Second
	c.ShutdownGrace = time.Duration(c.App.ShutdownSeconds) * time.Second
}

func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port out of range: %d", c.App.Port)
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		return errors.New("mongodb.uri and mongodb.database are required")
	}
	switch strings.ToUpper(c.JWT.Algorithm) {
	case "HS256":
		if c.JWT.HSSecret == "" {
			return errors.New("jwt.hs_secret is required for HS256")
		}
	case "RS256":
		if c.JWT.PublicKeyPath == "" {
			return errors.New("jwt.public_key_path is required for RS256")
		}
	default:
		return fmt.Errorf("unsupported jwt.algorithm %q", c.JWT.Algorithm)
	}
	if c.WS.PingIntervalSeconds <= 0 {
		return fmt.Errorf("ws.ping_interval_seconds must be positive")
	}
	if c.WS.SendBuffer <= 0 {
		return fmt.Errorf("ws.send_buffer must be positive")
	}
	return nil
}
