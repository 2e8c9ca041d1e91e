package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type ServerConfig struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`
}

type DatabaseConfig struct {
	DSN string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type APIConfig struct {
	DataMaskingEnabled bool `yaml:"data_masking_enabled"`
}

// CodesConfig drives the verification code lifecycle.
type CodesConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	MaxAttempts int           `yaml:"max_attempts"`
	Length      int           `yaml:"length"`
	SendLimit   int           `yaml:"send_limit"`
	SendWindow  time.Duration `yaml:"send_window"`
	// Delivery is "direct" (SMS/e-mail from this service) or "events" (Kafka).
	Delivery string `yaml:"delivery"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

type MobizonConfig struct {
	APIKey   string `yaml:"api_key"`
	SenderID string `yaml:"sender_id"`
	DryRun   bool   `yaml:"dry_run"`
}

type KafkaConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	TopicPrefix string   `yaml:"topic_prefix"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	API      APIConfig      `yaml:"api"`
	Codes    CodesConfig    `yaml:"codes"`
	Email    EmailConfig    `yaml:"email"`
	Mobizon  MobizonConfig  `yaml:"mobizon"`
	Kafka    KafkaConfig    `yaml:"kafka"`
}

// Load reads the YAML config (CONFIG_PATH or config/config.yaml), then applies
// .env and process environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if path == "" {
		path = defaultConfigPath
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("MOBIZON_API_KEY"); v != "" {
		c.Mobizon.APIKey = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Email.SMTPPassword = v
	}
	if v := os.Getenv("API_DATA_MASKING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.API.DataMaskingEnabled = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Codes.TTL <= 0 {
		c.Codes.TTL = 10 * time.Minute
	}
	if c.Codes.MaxAttempts <= 0 {
		c.Codes.MaxAttempts = 3
	}
	if c.Codes.Length <= 0 {
		c.Codes.Length = 6
	}
	if c.Codes.SendLimit <= 0 {
		c.Codes.SendLimit = 5
	}
	if c.Codes.SendWindow <= 0 {
		c.Codes.SendWindow = 10 * time.Minute
	}
	if c.Codes.Delivery == "" {
		c.Codes.Delivery = DeliveryDirect
	}
	if c.Kafka.TopicPrefix == "" {
		c.Kafka.TopicPrefix = "kyc"
	}
}

const (
	DeliveryDirect = "direct"
	DeliveryEvents = "events"
)

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.url is required")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Codes.Length > 12 {
		return fmt.Errorf("codes.length must be at most 12, got %d", c.Codes.Length)
	}
	switch c.Codes.Delivery {
	case DeliveryDirect:
	case DeliveryEvents:
		if !c.Kafka.Enabled || len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("codes.delivery=events requires kafka.enabled and kafka.brokers")
		}
	default:
		return fmt.Errorf("unknown codes.delivery %q", c.Codes.Delivery)
	}
	return nil
}
