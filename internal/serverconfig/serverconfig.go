// Package serverconfig loads the upload server settings from an optional
// .env file and the process environment.
package serverconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendGCS   = "gcs"
	BackendLocal = "local"
)

// Config is the validated server configuration.
type Config struct {
	Host          string `mapstructure:"host" validate:"required"`
	Port          int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	SessionSecret string `mapstructure:"session_secret_key" validate:"required,min=16"`
	LogLevel      string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogPath       string `mapstructure:"log_path"`

	StorageBackend string `mapstructure:"storage_backend" validate:"required,oneof=gcs local"`
	Bucket         string `mapstructure:"cloud_storage_bucket" validate:"required_if=StorageBackend gcs"`
	GCSEndpoint    string `mapstructure:"gcs_endpoint" validate:"omitempty,url"`
	StorageDir     string `mapstructure:"storage_dir" validate:"required_if=StorageBackend local"`

	LedgerPath    string `mapstructure:"ledger_path" validate:"required"`
	MaxUploadSize int64  `mapstructure:"max_upload_bytes" validate:"min=1"`
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// New reads configuration. envPath names an explicit .env file; when empty,
// ENV_PATH or ./.env is used if present.
func New(envPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if envPath == "" {
		envPath = os.Getenv("ENV_PATH")
	}
	v.SetConfigType("env")
	if envPath != "" {
		v.SetConfigFile(envPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(".env")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case envPath == "" && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read server config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PATH", "")
	v.SetDefault("STORAGE_BACKEND", BackendGCS)
	v.SetDefault("CLOUD_STORAGE_BUCKET", "")
	v.SetDefault("GCS_ENDPOINT", "")
	v.SetDefault("STORAGE_DIR", "clips")
	v.SetDefault("LEDGER_PATH", "openspeech.db")
	v.SetDefault("MAX_UPLOAD_BYTES", 8<<20)
	v.SetDefault("SESSION_SECRET_KEY", "")
}

// Get decodes and validates the configuration held by v.
func Get(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode server config: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validator.New().Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid server config: %w", err)
	}
	return cfg, nil
}

// Load is New followed by Get.
func Load(envPath string) (Config, error) {
	v, err := New(envPath)
	if err != nil {
		return Config{}, err
	}
	return Get(v)
}
