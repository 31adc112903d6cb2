package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultURL is the base address of the public xAPI servers.
const DefaultURL = "wss://ws.xtb.com"

// Credentials holds the account login.
type Credentials struct {
	// UserID is the account number.
	UserID   string `json:"user_id" yaml:"user_id" validate:"required"`
	Password string `json:"password" yaml:"password" validate:"required"`
	// AppName is optional and reported to the server on login.
	AppName string `json:"app_name,omitempty" yaml:"app_name,omitempty"`
}

// String hides the password.
func (c Credentials) String() string {
	return fmt.Sprintf("user_id=%s password=***", c.UserID)
}

// Config contains all configuration options for a session.
type Config struct {
	URL         string         `json:"url" yaml:"url" validate:"required,url"`
	Mode        ConnectionMode `json:"mode" yaml:"mode" validate:"min=0,max=1"`
	Credentials *Credentials   `json:"credentials,omitempty" yaml:"credentials,omitempty"`

	// CustomTag is the correlation tag template. Empty means a random per-session template.
	CustomTag string `json:"custom_tag,omitempty" yaml:"custom_tag,omitempty"`
	// AutomaticLogout sends logout before closing a logged-in session.
	AutomaticLogout bool `json:"automatic_logout" yaml:"automatic_logout"`
	PrettyPrint     bool `json:"pretty_print" yaml:"pretty_print"`

	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" validate:"min=1ms"`
	// RequestTimeout bounds the wait for each response.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" validate:"min=1ms"`

	// RequestInterval is the minimum spacing between requests once the burst is used up.
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval" validate:"min=0"`
	RequestBurst    int           `json:"request_burst" yaml:"request_burst" validate:"min=1"`

	// PingInterval of 0 disables keepalive pings.
	PingInterval   time.Duration `json:"ping_interval" yaml:"ping_interval" validate:"min=0"`
	MaxMessageSize int           `json:"max_message_size" yaml:"max_message_size" validate:"min=0"`

	LogLevel string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config for the demo server.
// Default values: 10s connect and request timeouts, one request per 200ms with a burst of 5,
// 30s keepalive pings, 16MiB messages, automatic logout enabled.
func DefaultConfig() *Config {
	return &Config{
		URL:             DefaultURL,
		Mode:            ModeDemo,
		AutomaticLogout: true,
		ConnectTimeout:  10 * time.Second,
		RequestTimeout:  10 * time.Second,
		RequestInterval: 200 * time.Millisecond,
		RequestBurst:    5,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  16 * 1024 * 1024,
		LogLevel:        "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if strings.ContainsAny(c.CustomTag, "\r\n") {
		return errors.New("CustomTag must be a single line")
	}
	return nil
}

// Endpoint returns the WebSocket address, URL with the mode appended as the last path segment.
func (c *Config) Endpoint() string {
	return strings.TrimRight(c.URL, "/") + "/" + c.Mode.String()
}

// LoadConfig reads a single YAML document from path over DefaultConfig and validates it.
// Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("config must contain a single YAML document")
		}
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.CustomTag = strings.TrimSpace(c.CustomTag)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.Credentials != nil {
		c.Credentials.UserID = strings.TrimSpace(c.Credentials.UserID)
		c.Credentials.AppName = strings.TrimSpace(c.Credentials.AppName)
	}
}

// WithCredentials sets the login credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithMode selects the real or demo server and returns the config for chaining.
func (c *Config) WithMode(mode ConnectionMode) *Config {
	c.Mode = mode
	return c
}

// WithCustomTag sets the correlation tag template and returns the config for chaining.
func (c *Config) WithCustomTag(tag string) *Config {
	c.CustomTag = tag
	return c
}

// WithAutomaticLogout enables or disables logout on close and returns the config for chaining.
func (c *Config) WithAutomaticLogout(enabled bool) *Config {
	c.AutomaticLogout = enabled
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.RequestTimeout = timeout
	return c
}

// WithRateLimit sets request pacing and returns the config for chaining.
func (c *Config) WithRateLimit(interval time.Duration, burst int) *Config {
	c.RequestInterval = interval
	c.RequestBurst = burst
	return c
}
