// Package config assembles the client configuration from command-line
// flags and environment variables merged over built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
//
// All variables additionally carry the global "DM_" prefix, so the app id is
// configured via DM_APP_ID, the adapter base URL via DM_ADAPTER_BASE_URL, etc.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// StructuredConfig is the top-level configuration container. It aggregates
// all sub-configurations and is populated by merging flags over environment
// variables over the built-in defaults.
type StructuredConfig struct {
	// App holds application-level identity settings sent with every request.
	App App `envPrefix:"APP_"`

	// Adapter holds network settings for the outbound transport layer.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Session holds profile seed and snapshot persistence settings.
	Session Session `envPrefix:"SESSION_"`

	// Cache holds the local thread cache settings.
	Cache Cache `envPrefix:"CACHE_"`
}

// App holds the application identity presented to the server and the
// auth-flow tuning knobs.
type App struct {
	// ID is the application identifier sent in the X-IG-App-ID header.
	// Env: DM_APP_ID
	ID string `env:"ID"`

	// Capabilities is the opaque capability bitmask sent in the
	// X-IG-Capabilities header.
	// Env: DM_APP_CAPABILITIES
	Capabilities string `env:"CAPABILITIES"`

	// ServerPublicKey is the hex-encoded Curve25519 key the password sealer
	// encrypts login payloads against.
	// Env: DM_APP_SERVER_PUBLIC_KEY
	ServerPublicKey string `env:"SERVER_PUBLIC_KEY"`

	// MaxCodeAttempts is how many wrong one-time codes the auth flow accepts
	// before the session transitions to the failed state.
	// Env: DM_APP_MAX_CODE_ATTEMPTS
	MaxCodeAttempts int `env:"MAX_CODE_ATTEMPTS"`
}

// Adapter holds network settings used by the transport client.
type Adapter struct {
	// BaseURL is the API origin all request paths are resolved against.
	// Env: DM_ADAPTER_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout bounds a single outbound request (e.g. "30s", "1m").
	// Env: DM_ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// RetryAttempts is the maximum number of retries for transient network
	// failures. Non-transient failures are never retried.
	// Env: DM_ADAPTER_RETRY_ATTEMPTS
	RetryAttempts int `env:"RETRY_ATTEMPTS"`

	// RetryBaseDelay is the first backoff delay; subsequent delays double.
	// Env: DM_ADAPTER_RETRY_BASE_DELAY
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY"`

	// MaxEmptyPages bounds how many consecutive empty feed pages with a
	// has-more cursor are tolerated before a feed aborts.
	// Env: DM_ADAPTER_MAX_EMPTY_PAGES
	MaxEmptyPages int `env:"MAX_EMPTY_PAGES"`
}

// Session holds profile identity and snapshot persistence settings.
type Session struct {
	// Seed is the profile seed the device identity is derived from.
	// Env: DM_SESSION_SEED
	Seed string `env:"SEED"`

	// FilePath is where the session snapshot is persisted.
	// Env: DM_SESSION_FILE
	FilePath string `env:"FILE"`
}

// Cache holds settings for the local sqlite thread cache.
type Cache struct {
	// Path is the sqlite database file. Empty disables the cache.
	// Env: DM_CACHE_PATH
	Path string `env:"PATH"`
}

// GetClientConfig loads, merges, and validates the client configuration.
// Precedence: command-line flags win over environment variables, and
// built-in defaults fill the gaps.
func GetClientConfig(flagArgs ...string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withFlags(flagArgs).
		withEnv().
		withDefaults().
		build()
}

// defaults returns the built-in configuration used for any field the
// environment leaves unset.
func defaults() *StructuredConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	stateDir := filepath.Join(home, ".go-dm-client")

	return &StructuredConfig{
		App: App{
			ID:           "567067343352427",
			Capabilities: "3brTv10=",
			// placeholder key; real deployments override via env
			ServerPublicKey: "0000000000000000000000000000000000000000000000000000000000000000",
			MaxCodeAttempts: 3,
		},
		Adapter: Adapter{
			BaseURL:        "https://i.instagram.com/api/v1",
			RequestTimeout: 30 * time.Second,
			RetryAttempts:  2,
			RetryBaseDelay: 500 * time.Millisecond,
			MaxEmptyPages:  3,
		},
		Session: Session{
			Seed:     "default",
			FilePath: filepath.Join(stateDir, "session.json"),
		},
		Cache: Cache{
			Path: filepath.Join(stateDir, "cache.db"),
		},
	}
}
