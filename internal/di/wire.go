//go:build wireinject
// +build wireinject

package di

import (
	"AethFlow/pkg/config"
	"AethFlow/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Registry backing store
		ProvideRegistryCache,
		ProvideJobRegistry,
		ProvideFileStore,

		// Optional infrastructure
		ProvideRecordArchive,
		ProvideEventPublisher,

		// Processing
		ProvidePipeline,
		ProvideDispatcher,

		// HTTP surface
		ProvideHTTPHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
