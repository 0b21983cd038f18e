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

type Config struct {
	AppPort string `mapstructure:"APP_PORT"`
	BaseURL string `mapstructure:"BASE_URL"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND"` // disk | s3
	StorageDir     string `mapstructure:"STORAGE_DIR"`
	MetaBackend    string `mapstructure:"META_BACKEND"` // jsonfile | redis
	MetaPath       string `mapstructure:"META_PATH"`

	FileTTL        time.Duration `mapstructure:"FILE_TTL"`
	SweepInterval  time.Duration `mapstructure:"SWEEP_INTERVAL"`
	MaxUploadBytes int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	UploadTimeout  time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
	IdleTimeout    time.Duration `mapstructure:"IDLE_TIMEOUT"`

	// StrictMeta=true: загрузка падает, если метаданные не сохранились.
	// По умолчанию false — доступность важнее строгой консистентности.
	StrictMeta bool `mapstructure:"STRICT_META"`

	// --- Redis (META_BACKEND=redis) ---
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// --- S3 (STORAGE_BACKEND=s3) ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`
}

// String реализует интерфейс Stringer
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  BaseURL: %s\n", c.BaseURL))
	sb.WriteString(fmt.Sprintf("  StorageBackend: %s\n", c.StorageBackend))
	sb.WriteString(fmt.Sprintf("  StorageDir: %s\n", c.StorageDir))
	sb.WriteString(fmt.Sprintf("  MetaBackend: %s\n", c.MetaBackend))
	sb.WriteString(fmt.Sprintf("  MetaPath: %s\n", c.MetaPath))
	sb.WriteString(fmt.Sprintf("  FileTTL: %s\n", c.FileTTL))
	sb.WriteString(fmt.Sprintf("  SweepInterval: %s\n", c.SweepInterval))
	sb.WriteString(fmt.Sprintf("  MaxUploadBytes: %d\n", c.MaxUploadBytes))
	sb.WriteString(fmt.Sprintf("  UploadTimeout: %s\n", c.UploadTimeout))
	sb.WriteString(fmt.Sprintf("  IdleTimeout: %s\n", c.IdleTimeout))
	sb.WriteString(fmt.Sprintf("  StrictMeta: %v\n", c.StrictMeta))

	if c.MetaBackend == "redis" {
		sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
		sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
		// пароль маскируем
		if c.RedisPassword != "" {
			sb.WriteString("  RedisPassword: ********\n")
		}
	}
	if c.StorageBackend == "s3" {
		sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
		sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
		sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
		if c.S3AccessKey != "" {
			sb.WriteString("  S3AccessKey: ********\n")
		}
		if c.S3SecretKey != "" {
			sb.WriteString("  S3SecretKey: ********\n")
		}
		sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
		sb.WriteString(fmt.Sprintf("  S3PathStyle: %v\n", c.S3PathStyle))
	}

	return sb.String()
}

// LoadFromEnv загружает конфигурацию из переменных окружения
func LoadFromEnv() (*Config, error) {
	// .env только для локальной разработки
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	keys := []string{
		"APP_PORT", "BASE_URL",
		"STORAGE_BACKEND", "STORAGE_DIR", "META_BACKEND", "META_PATH",
		"FILE_TTL", "SWEEP_INTERVAL", "MAX_UPLOAD_BYTES", "UPLOAD_TIMEOUT", "IDLE_TIMEOUT",
		"STRICT_META",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_USE_SSL", "S3_PATH_STYLE",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("STORAGE_BACKEND", "disk")
	v.SetDefault("STORAGE_DIR", "data/blobs")
	v.SetDefault("META_BACKEND", "jsonfile")
	v.SetDefault("META_PATH", "data/meta.json")
	v.SetDefault("FILE_TTL", "24h")
	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("MAX_UPLOAD_BYTES", int64(1<<30)) // 1GB
	v.SetDefault("UPLOAD_TIMEOUT", "5m")
	v.SetDefault("IDLE_TIMEOUT", "60s")
	v.SetDefault("STRICT_META", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case "disk", "s3":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	switch c.MetaBackend {
	case "jsonfile", "redis":
	default:
		return fmt.Errorf("unknown META_BACKEND %q", c.MetaBackend)
	}
	if c.FileTTL <= 0 {
		return errors.New("FILE_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.UploadTimeout <= 0 {
		return errors.New("UPLOAD_TIMEOUT must be positive")
	}
	return nil
}
