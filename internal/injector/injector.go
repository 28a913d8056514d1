//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/cabinet/internal/config"
	"github.com/zeusync/cabinet/internal/core/session"
)

func InitializeSession(cfg *config.Config) *session.Session {
	wire.Build(ProviderSet)
	return nil
}
