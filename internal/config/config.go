package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Host       string `mapstructure:"DB_HOST"`
	User       string `mapstructure:"DB_USER"`
	Password   string `mapstructure:"DB_PASSWORD"`
	Name       string `mapstructure:"DB_NAME"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBLogLevel string `mapstructure:"DB_LOG_LEVEL"`

	ServerPort string `mapstructure:"SERVER_PORT"`
	PublicURL  string `mapstructure:"PUBLIC_URL"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	RedisURL string `mapstructure:"REDIS_URL"`

	JWTKey string        `mapstructure:"JWT_KEY"`
	JWTTTL time.Duration `mapstructure:"JWT_TTL"`

	StorageDriver     string `mapstructure:"STORAGE_DRIVER"`
	StorageDir        string `mapstructure:"STORAGE_DIR"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3BucketName      string `mapstructure:"S3_BUCKET_NAME"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`

	MailDriver   string `mapstructure:"MAIL_DRIVER"`
	BrevoAPIKey  string `mapstructure:"BREVO_API_KEY"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	MailFromName string `mapstructure:"MAIL_FROM_NAME"`

	MediaWidth     int    `mapstructure:"MEDIA_WIDTH"`
	MediaHeight    int    `mapstructure:"MEDIA_HEIGHT"`
	MediaFormat    string `mapstructure:"MEDIA_FORMAT"`
	MediaMaxPixels int    `mapstructure:"MEDIA_MAX_PIXELS"`
	MaxUploadBytes int64  `mapstructure:"MAX_UPLOAD_BYTES"`
	MaxAttachments int    `mapstructure:"MAX_ATTACHMENTS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
	AllowedOrigins string  `mapstructure:"ALLOWED_ORIGINS"`

	AttachmentSweepSchedule string        `mapstructure:"ATTACHMENT_SWEEP_SCHEDULE"`
	AttachmentGrace         time.Duration `mapstructure:"ATTACHMENT_GRACE"`
}

var defaults = map[string]any{
	"DB_HOST":                   "localhost",
	"DB_PORT":                   "5432",
	"DB_USER":                   "",
	"DB_PASSWORD":               "",
	"DB_NAME":                   "",
	"DB_SSLMODE":                "disable",
	"DB_LOG_LEVEL":              "warn",
	"SERVER_PORT":               "8080",
	"PUBLIC_URL":                "http://localhost:8080",
	"LOG_LEVEL":                 "info",
	"REDIS_URL":                 "redis://localhost:6379/0",
	"JWT_KEY":                   "",
	"JWT_TTL":                   "24h",
	"STORAGE_DRIVER":            "local",
	"STORAGE_DIR":               "uploads",
	"S3_ENDPOINT":               "",
	"S3_REGION":                 "us-east-1",
	"S3_BUCKET_NAME":            "",
	"S3_ACCESS_KEY_ID":          "",
	"S3_SECRET_ACCESS_KEY":      "",
	"MAIL_DRIVER":               "log",
	"BREVO_API_KEY":             "",
	"MAIL_FROM":                 "no-reply@chato.local",
	"MAIL_FROM_NAME":            "Chato",
	"MEDIA_WIDTH":               1024,
	"MEDIA_HEIGHT":              1024,
	"MEDIA_FORMAT":              "png",
	"MEDIA_MAX_PIXELS":          40_000_000,
	"MAX_UPLOAD_BYTES":          10 << 20,
	"MAX_ATTACHMENTS":           5,
	"RATE_LIMIT_RPS":            20.0,
	"RATE_LIMIT_BURST":          40,
	"ALLOWED_ORIGINS":           "*",
	"ATTACHMENT_SWEEP_SCHEDULE": "*/10 * * * *",
	"ATTACHMENT_GRACE":          "1h",
}

// Load читает .env (если он есть) и переменные окружения.
// Переменные окружения имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var pathErr *fs.PathError
			if !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}

	if c.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.JWTKey == "" {
		return fmt.Errorf("JWT_KEY is required")
	}

	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3BucketName == "" {
			return fmt.Errorf("S3_BUCKET_NAME is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.MailDriver {
	case "log":
	case "brevo":
		if c.BrevoAPIKey == "" {
			return fmt.Errorf("BREVO_API_KEY is required for brevo mail driver")
		}
	default:
		return fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver)
	}

	if c.MediaFormat != "png" && c.MediaFormat != "jpeg" {
		return fmt.Errorf("unknown MEDIA_FORMAT %q", c.MediaFormat)
	}

	if c.MediaMaxPixels < 1 {
		return fmt.Errorf("MEDIA_MAX_PIXELS must be positive")
	}

	if c.MaxAttachments < 1 {
		return fmt.Errorf("MAX_ATTACHMENTS must be positive")
	}

	return nil
}

// DSN строка подключения к postgres
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.DBPort, c.DBSSLMode)
}

// Origins разбирает ALLOWED_ORIGINS через запятую
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
