package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/cabinet/internal/config"
	"github.com/zeusync/cabinet/internal/core/observability/log"
	"github.com/zeusync/cabinet/internal/core/session"
)

// ProvideLogger builds the process logger from the log section of cfg.
func ProvideLogger(cfg *config.Config) *log.Logger {
	return log.NewWithOptions(cfg.LogOptions())
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	session.New,
)
