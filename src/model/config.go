package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// LogConfig controls the global zerolog logger
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"json"` // json, console
	Output     string `envconfig:"OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"FILE_PATH" default:"logs/cwp.log"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"`
}

// DataLakeConfig holds connection settings for the entity-data API. BaseURL
// is only needed by commands that run workflows.
type DataLakeConfig struct {
	BaseURL        string        `envconfig:"BASE_URL"`
	Token          string        `envconfig:"TOKEN"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"2m"`
	BatchSize      int           `envconfig:"BATCH_SIZE" default:"500"`
	MaxConcurrency int           `envconfig:"MAX_CONCURRENCY" default:"4"`
}

// CacheConfig configures the optional Redis response cache and state store.
// An empty RedisURL disables both.
type CacheConfig struct {
	RedisURL string        `envconfig:"REDIS_URL"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	StateTTL time.Duration `envconfig:"STATE_TTL" default:"24h"`
}

// ExportConfig controls where export files go
type ExportConfig struct {
	Dir  string `envconfig:"DIR" default:"exports"`
	Gzip bool   `envconfig:"GZIP" default:"false"`
}
