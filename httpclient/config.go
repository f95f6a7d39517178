package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/pipehttp/validation"
	"github.com/kbukum/pipehttp/version"
)

const (
	defaultTimeout = 30 * time.Second
	defaultName    = "pipehttp"
)

// Config configures the HTTP client.
type Config struct {
	// Name identifies the client in logs, spans and the default user agent.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended verbatim to every request path.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// UserAgent is sent when a request carries no user-agent header.
	// Defaults to "<name>-Go/<version> HTTP/1.1".
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// CACertPath is a PEM CA bundle used to verify https peers.
	CACertPath string `yaml:"ca_cert_path" mapstructure:"ca_cert_path" validate:"omitempty,file"`

	// Timeout bounds a whole round trip. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// Headers are default headers applied to all requests that do not set
	// them already.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// TLS configures client certificates and other transport TLS settings.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent(c.Name)
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("httpclient: invalid config: %w", err)
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return fmt.Errorf("httpclient: invalid tls config: %w", err)
		}
	}
	return nil
}
