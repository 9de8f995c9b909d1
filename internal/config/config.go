package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
		// InternalToken is the shared secret sibling services present on
		// /internal routes. Empty means the internal surface is closed.
		InternalToken string `yaml:"internal_token"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	WebSocket struct {
		ReadBufferSize   int `yaml:"read_buffer_size"`
		WriteBufferSize  int `yaml:"write_buffer_size"`
		SendQueueSize    int `yaml:"send_queue_size"`
		TypingTTLSeconds int `yaml:"typing_ttl_seconds"`
	} `yaml:"websocket"`

	Notifications struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"notifications"`
}

// TypingTTL returns the server-side typing auto-expiry window.
func (c *Config) TypingTTL() time.Duration {
	if c.WebSocket.TypingTTLSeconds <= 0 {
		return 6 * time.Second
	}
	return time.Duration(c.WebSocket.TypingTTLSeconds) * time.Second
}

var AppConfig *Config

func GetConfig() *Config {
	return AppConfig
}

// LoadConfig reads config.yaml unless DATABASE_URL is set, in which case the
// whole configuration comes from environment variables (test/CI mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60
	cfg.Server.InternalToken = os.Getenv("INTERNAL_TOKEN")

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = addr
		cfg.Redis.Prefix = "mentorhub"
	}

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.WebSocket.ReadBufferSize == 0 {
		cfg.WebSocket.ReadBufferSize = 1024
	}
	if cfg.WebSocket.WriteBufferSize == 0 {
		cfg.WebSocket.WriteBufferSize = 1024
	}
	if cfg.WebSocket.SendQueueSize == 0 {
		cfg.WebSocket.SendQueueSize = 256
	}
	if cfg.WebSocket.TypingTTLSeconds == 0 {
		cfg.WebSocket.TypingTTLSeconds = 6
	}
	if cfg.Notifications.RetentionDays == 0 {
		cfg.Notifications.RetentionDays = 90
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "mentorhub"
	}
}
