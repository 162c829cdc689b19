package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AWS      AWSConfig      `yaml:"aws"`
	Auth     AuthConfig     `yaml:"auth"`
	AI       AIConfig       `yaml:"ai"`
	APNs     APNsConfig     `yaml:"apns"`
	Program  ProgramConfig  `yaml:"program"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// RedisConfig holds redis configuration. URL wins over Addr when set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	URL      string `yaml:"url"`
}

// AWSConfig holds S3 configuration for food images
type AWSConfig struct {
	Region        string `yaml:"region"`
	S3Bucket      string `yaml:"s3_bucket"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Endpoint      string `yaml:"endpoint"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// AuthConfig holds the secret shared with the auth provider
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// AIConfig holds the food recognition model settings
type AIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// APNsConfig holds token-based APNs credentials
type APNsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// ProgramConfig holds the reading program limits
type ProgramConfig struct {
	LengthDays       int `yaml:"length_days"`
	ShareMaxChars    int `yaml:"share_max_chars"`
	FeedLimit        int `yaml:"feed_limit"`
	ChatHistoryLimit int `yaml:"chat_history_limit"`
	AnalyzePerHour   int `yaml:"analyze_per_hour"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file. ${VAR} references are expanded
// from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.0-flash-exp"
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.Program.LengthDays == 0 {
		c.Program.LengthDays = 21
	}
	if c.Program.ShareMaxChars == 0 {
		c.Program.ShareMaxChars = 500
	}
	if c.Program.FeedLimit == 0 {
		c.Program.FeedLimit = 20
	}
	if c.Program.ChatHistoryLimit == 0 {
		c.Program.ChatHistoryLimit = 100
	}
	if c.Program.AnalyzePerHour == 0 {
		c.Program.AnalyzePerHour = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate reports every missing or inconsistent setting
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.DBName == "" {
		errs = append(errs, errors.New("database.dbname is required"))
	}
	if c.Redis.Addr == "" && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis.addr or redis.url is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.APNs.Enabled && (c.APNs.KeyFile == "" || c.APNs.KeyID == "" || c.APNs.TeamID == "" || c.APNs.Topic == "") {
		errs = append(errs, errors.New("apns.key_file, key_id, team_id and topic are required when apns is enabled"))
	}
	if c.Program.LengthDays < 1 {
		errs = append(errs, errors.New("program.length_days must be positive"))
	}
	return errors.Join(errs...)
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	if c.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", c.MaxConns)
	}
	return dsn
}
