package main

import (
	"fmt"

	"github.com/kbukum/pipehttp/config"
	"github.com/kbukum/pipehttp/httpclient"
	"github.com/kbukum/pipehttp/observability"
)

// AppConfig is the httpcall configuration file layout.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Client        httpclient.Config    `yaml:"client" mapstructure:"client"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills in zero-value fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "httpcall"
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Client.Name == "" {
		c.Client.Name = c.Name
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
}

// Validate checks the sections that can be checked before the client is
// built. The client validates its own section in New.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config.observability: %w", err)
	}
	return nil
}

func loadConfig(f *flags) (*AppConfig, error) {
	cfg := &AppConfig{}
	opts := []config.LoaderOption{config.WithEnvPrefix("HTTPCALL")}
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	if err := config.LoadConfig("httpcall", cfg, opts...); err != nil {
		return nil, err
	}
	f.applyTo(cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
