//go:build wireinject
// +build wireinject

package di

import (
	"pendlescope/pkg/config"
	"pendlescope/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideMarketSource,
		ProvideHistoryStore,
		ProvideCache,
		ProvideSignalPublisher,
		ProvideHub,

		// Use cases
		ProvideHistoryUseCase,
		ProvideAnalyzer,
		ProvideRefresher,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
