// Package config loads process configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App    AppConfig
	Backup BackupConfig
}

type AppConfig struct {
	Port     string `envconfig:"LARDER_PORT" default:"8080"`
	DBPath   string `envconfig:"LARDER_DB_PATH" default:"larder.db"`
	LogLevel string `envconfig:"LARDER_LOG_LEVEL" default:"info"`
}

// BackupConfig configures encrypted S3 backups. Backups stay disabled
// unless the bucket, both keys, and a passphrase are all set.
type BackupConfig struct {
	S3Endpoint    string `envconfig:"LARDER_BACKUP_S3_ENDPOINT"`
	S3Bucket      string `envconfig:"LARDER_BACKUP_S3_BUCKET"`
	S3Region      string `envconfig:"LARDER_BACKUP_S3_REGION" default:"us-east-1"`
	S3AccessKey   string `envconfig:"LARDER_BACKUP_S3_ACCESS_KEY"`
	S3SecretKey   string `envconfig:"LARDER_BACKUP_S3_SECRET_KEY"`
	Passphrase    string `envconfig:"LARDER_BACKUP_PASSPHRASE"`
	ScheduleHour  int    `envconfig:"LARDER_BACKUP_SCHEDULE_HOUR" default:"3"`
	RetentionDays int    `envconfig:"LARDER_BACKUP_RETENTION_DAYS" default:"30"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
