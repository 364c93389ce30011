package src

import (
	"cwp_reporting/src/model"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig      model.LogConfig      `envconfig:"LOG"`
	DataLakeConfig model.DataLakeConfig `envconfig:"DATALAKE"`
	model.CacheConfig
	ExportConfig model.ExportConfig `envconfig:"EXPORT"`
	SchemaFile   string             `envconfig:"SCHEMA_FILE" default:"config.yaml"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	return &config, nil
}
