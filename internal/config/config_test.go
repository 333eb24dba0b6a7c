package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClientConfig_Defaults(t *testing.T) {
	cfg, err := GetClientConfig()
	require.NoError(t, err)

	assert.Equal(t, "567067343352427", cfg.App.ID)
	assert.Equal(t, 3, cfg.App.MaxCodeAttempts)
	assert.Equal(t, "https://i.instagram.com/api/v1", cfg.Adapter.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 3, cfg.Adapter.MaxEmptyPages)
	assert.Equal(t, "default", cfg.Session.Seed)
	assert.NotEmpty(t, cfg.Session.FilePath)
}

func TestGetClientConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("DM_APP_ID", "42")
	t.Setenv("DM_ADAPTER_BASE_URL", "https://example.test/api/v1")
	t.Setenv("DM_ADAPTER_REQUEST_TIMEOUT", "5s")
	t.Setenv("DM_SESSION_SEED", "alice")

	cfg, err := GetClientConfig()
	require.NoError(t, err)

	assert.Equal(t, "42", cfg.App.ID)
	assert.Equal(t, "https://example.test/api/v1", cfg.Adapter.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, "alice", cfg.Session.Seed)

	// untouched fields keep their defaults
	assert.Equal(t, 3, cfg.App.MaxCodeAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Adapter.RetryBaseDelay)
}

func TestGetClientConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("DM_ADAPTER_BASE_URL", "https://env.test/api/v1")
	t.Setenv("DM_ADAPTER_REQUEST_TIMEOUT", "5s")
	t.Setenv("DM_SESSION_SEED", "env-seed")

	cfg, err := GetClientConfig(
		"-base-url", "https://flag.test/api/v1",
		"-request-timeout", "7s",
	)
	require.NoError(t, err)

	// flags beat env for the fields they set
	assert.Equal(t, "https://flag.test/api/v1", cfg.Adapter.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.Adapter.RequestTimeout)

	// env still beats defaults where no flag was given
	assert.Equal(t, "env-seed", cfg.Session.Seed)
	assert.Equal(t, 2, cfg.Adapter.RetryAttempts)
}

func TestParseFlags(t *testing.T) {
	cfg, err := ParseFlags([]string{
		"-app-id", "99",
		"-max-code-attempts", "5",
		"-session-file", "/tmp/dm/session.json",
		"-cache-path", "/tmp/dm/cache.db",
	})
	require.NoError(t, err)

	assert.Equal(t, "99", cfg.App.ID)
	assert.Equal(t, 5, cfg.App.MaxCodeAttempts)
	assert.Equal(t, "/tmp/dm/session.json", cfg.Session.FilePath)
	assert.Equal(t, "/tmp/dm/cache.db", cfg.Cache.Path)

	// fields without a flag stay zero so later sources can fill them
	assert.Empty(t, cfg.Adapter.BaseURL)
	assert.Zero(t, cfg.Adapter.RequestTimeout)
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	_, err := ParseFlags([]string{"-no-such-option", "x"})
	require.Error(t, err)
}

func TestGetClientConfig_BadEnvValue(t *testing.T) {
	t.Setenv("DM_ADAPTER_REQUEST_TIMEOUT", "not-a-duration")

	_, err := GetClientConfig()
	require.Error(t, err)
}

func TestValidate_RejectsBrokenConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *StructuredConfig)
		want   error
	}{
		{
			name:   "missing app id",
			mutate: func(cfg *StructuredConfig) { cfg.App.ID = "" },
			want:   ErrInvalidAppConfigs,
		},
		{
			name:   "short server public key",
			mutate: func(cfg *StructuredConfig) { cfg.App.ServerPublicKey = "abcd" },
			want:   ErrInvalidAppConfigs,
		},
		{
			name:   "zero code attempts",
			mutate: func(cfg *StructuredConfig) { cfg.App.MaxCodeAttempts = 0 },
			want:   ErrInvalidAppConfigs,
		},
		{
			name:   "missing base url",
			mutate: func(cfg *StructuredConfig) { cfg.Adapter.BaseURL = "" },
			want:   ErrInvalidAdapterConfigs,
		},
		{
			name:   "zero timeout",
			mutate: func(cfg *StructuredConfig) { cfg.Adapter.RequestTimeout = 0 },
			want:   ErrInvalidAdapterConfigs,
		},
		{
			name:   "zero empty-page bound",
			mutate: func(cfg *StructuredConfig) { cfg.Adapter.MaxEmptyPages = 0 },
			want:   ErrInvalidAdapterConfigs,
		},
		{
			name:   "blank seed",
			mutate: func(cfg *StructuredConfig) { cfg.Session.Seed = "   " },
			want:   ErrInvalidSessionConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.validate(), tt.want)
		})
	}
}
