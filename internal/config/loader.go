package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix is the prefix for server-level environment variables
// (STOREGATE_PORT, STOREGATE_LOG_LEVEL, ...).
const envPrefix = "STOREGATE_"

// wellKnownEnv maps the deployment environment variables shared with the
// CMS and payment integrations onto config keys. These names are part of
// the hosting contract and are accepted as-is, without the STOREGATE_
// prefix.
var wellKnownEnv = map[string]string{
	"NEXT_PUBLIC_WORDPRESS_GRAPHQL": "wordpress.graphql_endpoint",
	"WORDPRESS_API_USER":            "wordpress.api_user",
	"WORDPRESS_API_PASSWORD":        "wordpress.api_password",
	"PREVIEW_SECRET":                "preview.secret",
	"PREVIEW_USER":                  "preview.user",
	"PREVIEW_APP_PASSWORD":          "preview.app_password",
	"PREVIEW_CA_PATH":               "preview.ca_path",
	"PREVIEW_ALLOW_INSECURE":        "preview.allow_insecure",
	"PREVIEW_FETCH_TIMEOUT_MS":      "preview.fetch_timeout_ms",
	"STRIPE_SECRET_KEY":             "stripe.secret_key",
	"EXCHANGE_RATE_API_URL":         "rates.api_url",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > storegate.yaml > storegate.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"storegate.yaml", "storegate.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load resolves configuration once, at startup.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"port":                  DefaultPort,
		"environment":           DefaultEnvironment,
		"log_level":             DefaultLogLevel,
		"log_format":            DefaultLogFormat,
		"preview.fetch_timeout": DefaultPreviewTimeout,
		"rates.api_url":         DefaultRatesURL,
		"rates.ttl":             DefaultRatesTTL,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Optional config file
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}

	// 3a. Well-known deployment env vars (exact names)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return wellKnownEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 3b. STOREGATE_-prefixed overrides
	// Transform: STOREGATE_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, highest priority. Only flags that were explicitly set.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// The hosting contract expresses the preview timeout in milliseconds.
	if ms := k.Int("preview.fetch_timeout_ms"); ms > 0 {
		cfg.Preview.FetchTimeout = time.Duration(ms) * time.Millisecond
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
