// Package config provides configuration management for the storegate server.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment names recognized in Config.Environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Default configuration values.
const (
	DefaultPort           = 8780
	DefaultEnvironment    = EnvDevelopment
	DefaultPreviewTimeout = 10 * time.Second
	DefaultRatesTTL       = 24 * time.Hour
	DefaultRatesURL       = "https://api.exchangerate-api.com/v4/latest/USD"
	DefaultLogFormat      = "text"
	DefaultLogLevel       = "info"
)

// Config holds all server configuration, resolved once at startup.
type Config struct {
	Port        int    `koanf:"port"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`

	WordPress WordPressConfig `koanf:"wordpress"`
	Preview   PreviewConfig   `koanf:"preview"`
	Stripe    StripeConfig    `koanf:"stripe"`
	Rates     RatesConfig     `koanf:"rates"`
}

// WordPressConfig covers the CMS/commerce backend.
type WordPressConfig struct {
	// GraphQLEndpoint is the WPGraphQL URL, e.g. https://cms.example.com/graphql.
	// The WooCommerce REST base is derived from it by trimming the /graphql path.
	GraphQLEndpoint string `koanf:"graphql_endpoint"`
	APIUser         string `koanf:"api_user"`
	APIPassword     string `koanf:"api_password"`
}

// PreviewConfig covers the draft-content preview proxy. Preview is
// disabled (503 from the proxy) when Secret is empty.
type PreviewConfig struct {
	Secret        string        `koanf:"secret"`
	User          string        `koanf:"user"`
	AppPassword   string        `koanf:"app_password"`
	CAPath        string        `koanf:"ca_path"`
	AllowInsecure bool          `koanf:"allow_insecure"`
	FetchTimeout  time.Duration `koanf:"fetch_timeout"`
}

// StripeConfig covers the payment provider.
type StripeConfig struct {
	SecretKey string `koanf:"secret_key"`
}

// RatesConfig covers the exchange-rate service.
type RatesConfig struct {
	APIURL string        `koanf:"api_url"`
	TTL    time.Duration `koanf:"ttl"`
}

// IsProduction reports whether the server runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// RESTBase returns the WordPress REST root derived from the GraphQL endpoint.
func (w WordPressConfig) RESTBase() string {
	return strings.TrimSuffix(strings.TrimSuffix(w.GraphQLEndpoint, "/"), "/graphql")
}

// Validate checks the configuration and fails fast on anything the server
// cannot run without. Optional subsystems (preview, payments) degrade at
// request time instead of blocking startup.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.WordPress.GraphQLEndpoint == "" {
		return fmt.Errorf("wordpress graphql endpoint is required (NEXT_PUBLIC_WORDPRESS_GRAPHQL)")
	}
	if c.Preview.FetchTimeout <= 0 {
		return fmt.Errorf("preview fetch timeout must be positive, got %s", c.Preview.FetchTimeout)
	}
	if c.Preview.CAPath != "" {
		if _, err := os.Stat(c.Preview.CAPath); err != nil {
			return fmt.Errorf("preview CA file: %w", err)
		}
	}
	if c.Preview.AllowInsecure && c.IsProduction() {
		return fmt.Errorf("preview allow_insecure must not be enabled in production")
	}
	return nil
}
