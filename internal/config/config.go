package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port       string `mapstructure:"PORT"`
	PgHost     string `mapstructure:"PG_HOST"`
	PgPort     string `mapstructure:"PG_PORT"`
	PgUser     string `mapstructure:"PG_USER"`
	PgPassword string `mapstructure:"PG_PASSWORD"`
	PgName     string `mapstructure:"PG_NAME"`

	MistralApiKey string `mapstructure:"MISTRAL_API_KEY"`
	ModelName     string `mapstructure:"MODEL_NAME"`

	S3Bucket   string `mapstructure:"S3_BUCKET"`
	S3Region   string `mapstructure:"S3_REGION"`
	S3Endpoint string `mapstructure:"S3_ENDPOINT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	AllowedOrigin string `mapstructure:"ALLOWED_ORIGIN"`
}

// NewConfig читает конфигурацию из .env файла
func NewConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "5641")
	v.SetDefault("PG_PORT", "5432")
	v.SetDefault("MODEL_NAME", "mistral-small-latest")
	v.SetDefault("S3_BUCKET", "dealdesk-artifacts")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("ALLOWED_ORIGIN", "http://localhost:3000")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
