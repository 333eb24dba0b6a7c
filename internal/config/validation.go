package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies all
// invariants before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.ID == "" || cfg.App.MaxCodeAttempts <= 0 {
		return ErrInvalidAppConfigs
	}
	if len(cfg.App.ServerPublicKey) != 64 {
		return ErrInvalidAppConfigs
	}

	if cfg.Adapter.BaseURL == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}
	if cfg.Adapter.RetryAttempts < 0 || cfg.Adapter.MaxEmptyPages <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if strings.TrimSpace(cfg.Session.Seed) == "" || cfg.Session.FilePath == "" {
		return ErrInvalidSessionConfigs
	}

	return nil
}
