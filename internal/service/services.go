package service

import (
	"github.com/ospolov/go-dm-client/internal/adapter"
	"github.com/ospolov/go-dm-client/internal/config"
	"github.com/ospolov/go-dm-client/internal/crypto"
	"github.com/ospolov/go-dm-client/internal/logger"
	"github.com/ospolov/go-dm-client/internal/session"
	"github.com/ospolov/go-dm-client/internal/store"
)

// Services bundles the application services behind one constructor.
type Services struct {
	Auth   AuthService
	Direct DirectService
}

func NewServices(api adapter.APIClient, sess *session.State, snapshots *session.FileStore, sealer crypto.PasswordSealer, cache store.ThreadCache, cfg *config.StructuredConfig, log *logger.Logger) *Services {
	return &Services{
		Auth:   NewAuthService(api, sess, snapshots, sealer, cfg.App.MaxCodeAttempts, log),
		Direct: NewDirectService(api, sess, cache, cfg.Adapter.MaxEmptyPages, log),
	}
}
