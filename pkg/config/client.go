package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultClientConfigFile is read when no config path is given.
	DefaultClientConfigFile = "client_config.json"

	defaultClientTimeoutSeconds = 30
	defaultClientRetryMax       = 3
)

// ErrIncompleteConfig is returned when required client settings are missing.
var ErrIncompleteConfig = errors.New("arguments are not given properly")

// ClientConfig configures the catalogue CLI.
type ClientConfig struct {
	User           string `json:"user"`
	Password       string `json:"password"`
	ServiceHost    string `json:"service_host"`
	ServicePort    int    `json:"service_port"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	RetryMax       int    `json:"retry_max"`
}

// DefaultClientConfig returns the built-in client defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ServicePort:    defaultPort,
		TimeoutSeconds: defaultClientTimeoutSeconds,
		RetryMax:       defaultClientRetryMax,
	}
}

// LoadClient loads the client configuration. An empty path falls back to
// DefaultClientConfigFile, which may be absent; an explicit path must exist.
func LoadClient(path string, overrides map[string]any) (*ClientConfig, error) {
	required := path != ""
	if path == "" {
		path = DefaultClientConfigFile
	}
	return load(path, required, DefaultClientConfig(), overrides)
}

// Validate checks that the service location is known, and the credentials
// too when withCredentials is set.
func (c *ClientConfig) Validate(withCredentials bool) error {
	if c.ServiceHost == "" || c.ServicePort <= 0 {
		return fmt.Errorf("%w: service_host and service_port are required", ErrIncompleteConfig)
	}
	if withCredentials && (c.User == "" || c.Password == "") {
		return fmt.Errorf("%w: user and password are required", ErrIncompleteConfig)
	}
	return nil
}

// BaseURL returns the service root URL.
func (c *ClientConfig) BaseURL() string {
	return "http://" + net.JoinHostPort(c.ServiceHost, strconv.Itoa(c.ServicePort))
}

// Timeout returns the per-request timeout.
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
