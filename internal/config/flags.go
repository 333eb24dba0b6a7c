package config

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// ParseFlags parses configuration flags from args into a [StructuredConfig].
// It uses a dedicated flag set, so args must contain only the flags listed
// below; callers embedding these options into a larger CLI pass through the
// relevant subset.
//
// Flags:
//
//	-app-id application identifier
//	-base-url API origin
//	-request-timeout outbound request timeout (e.g., "30s", "1m")
//	-retry-attempts max retries for transient network failures
//	-max-code-attempts wrong one-time codes tolerated before auth fails
//	-seed profile seed the device identity derives from
//	-session-file session snapshot path
//	-cache-path sqlite thread cache path
func ParseFlags(args []string) (*StructuredConfig, error) {
	var appID string
	var maxCodeAttempts int
	var baseURL string
	var requestTimeout time.Duration
	var retryAttempts int
	var seed string
	var sessionFile string
	var cachePath string

	fs := flag.NewFlagSet("dm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&appID, "app-id", "", "Application identifier")
	fs.IntVar(&maxCodeAttempts, "max-code-attempts", 0, "Wrong one-time codes tolerated before auth fails")
	fs.StringVar(&baseURL, "base-url", "", "API origin")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.IntVar(&retryAttempts, "retry-attempts", 0, "Max retries for transient network failures")
	fs.StringVar(&seed, "seed", "", "Profile seed")
	fs.StringVar(&sessionFile, "session-file", "", "Session snapshot path")
	fs.StringVar(&cachePath, "cache-path", "", "Thread cache path")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flag configs: %w", err)
	}

	return &StructuredConfig{
		App: App{
			ID:              appID,
			MaxCodeAttempts: maxCodeAttempts,
		},
		Adapter: Adapter{
			BaseURL:        baseURL,
			RequestTimeout: requestTimeout,
			RetryAttempts:  retryAttempts,
		},
		Session: Session{
			Seed:     seed,
			FilePath: sessionFile,
		},
		Cache: Cache{
			Path: cachePath,
		},
	}, nil
}
