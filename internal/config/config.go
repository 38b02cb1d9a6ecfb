// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, .env, an optional YAML file and the environment.
// - External errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/okian/cobj/internal/domain/model"
)

// Defaults for the custom object this front end was built around.
const (
	DefaultBaseURL    = "https://api.hubapi.com"
	DefaultObjectType = "2-51544776"
	DefaultPort       = 3000
	DefaultListLimit  = 100
)

// DefaultProperties are the internal property names listed and created.
var DefaultProperties = []string{"name", "house", "family_type"}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Port is the HTTP listen port, used when Addr is empty.
	Port int `koanf:"port"`

	// Addr overrides the listen address entirely, e.g. "127.0.0.1:8080".
	Addr string `koanf:"addr"`

	// AccessToken is the CRM private app bearer token.
	AccessToken string `koanf:"access_token"`

	// BaseURL is the CRM REST API root.
	BaseURL string `koanf:"base_url"`

	// ObjectType is the custom object type identifier, e.g. "2-51544776".
	ObjectType string `koanf:"object_type"`

	// Properties lists the property names shown in the table and accepted by the form.
	Properties []string `koanf:"properties"`

	// ListLimit is the fixed page size requested from the CRM.
	ListLimit int `koanf:"list_limit"`

	// RequestTimeout bounds each outbound CRM call.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Port:           DefaultPort,
		BaseURL:        DefaultBaseURL,
		ObjectType:     DefaultObjectType,
		Properties:     append([]string(nil), DefaultProperties...),
		ListLimit:      DefaultListLimit,
		RequestTimeout: 10 * time.Second,
	}
}

// ListenAddr returns Addr when set, otherwise ":<Port>".
func (c *Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return ":" + strconv.Itoa(c.Port)
}

// HasCredential reports whether a CRM access token is configured.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

// Object returns the configured custom object definition.
func (c *Config) Object() model.ObjectType {
	return model.ObjectType{
		ID:         c.ObjectType,
		Properties: append([]string(nil), c.Properties...),
	}
}

// Validate checks everything except the credential, whose absence is
// reported at startup but does not stop the process.
func (c *Config) Validate() error {
	if c.Addr == "" && (c.Port < 1 || c.Port > 65535) {
		return fmt.Errorf("%w: port must be in 1..65535, got %d", ErrInvalidConfig, c.Port)
	}
	if c.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Addr); err != nil {
			return fmt.Errorf("%w: addr %q: %v", ErrInvalidConfig, c.Addr, err)
		}
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	}
	if c.ListLimit < 1 {
		return fmt.Errorf("%w: list_limit must be positive", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	if err := c.Object().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
