//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocdrill/internal/adapter/connectrpc"
	"github.com/eslsoft/vocdrill/internal/adapter/repository"
	"github.com/eslsoft/vocdrill/internal/adapter/rest"
	"github.com/eslsoft/vocdrill/internal/infrastructure/auth"
	"github.com/eslsoft/vocdrill/internal/infrastructure/config"
	"github.com/eslsoft/vocdrill/internal/infrastructure/database"
	"github.com/eslsoft/vocdrill/internal/infrastructure/metrics"
	"github.com/eslsoft/vocdrill/internal/infrastructure/server"
	"github.com/eslsoft/vocdrill/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
	server.NewLogger,
	wire.Bind(new(logrus.FieldLogger), new(*logrus.Logger)),
)

var databaseSet = wire.NewSet(
	database.NewEntDriver,
)

var repositorySet = wire.NewSet(
	repository.NewWordRepository,
	repository.NewLearnerRepository,
	repository.NewLearningRepository,
)

var usecaseSet = wire.NewSet(
	providePolicy,
	usecase.NewLearnerUsecase,
	usecase.NewLearningUsecase,
	usecase.NewStatsUsecase,
	usecase.NewWeakWordTracker,
	usecase.NewCatalogUsecase,
	usecase.NewMaintenanceUsecase,
)

var metricsSet = wire.NewSet(
	metrics.NewRecorder,
	wire.Bind(new(usecase.SubmissionObserver), new(*metrics.Recorder)),
)

var authSet = wire.NewSet(
	auth.NewIssuer,
	auth.NewAuthenticator,
	wire.Bind(new(auth.PrincipalResolver), new(usecase.LearnerUsecase)),
)

var serviceSet = wire.NewSet(
	rest.NewHandler,
	connectrpc.NewLearningServiceServer,
)

var serverSet = wire.NewSet(
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		usecaseSet,
		metricsSet,
		authSet,
		serviceSet,
		serverSet,
		wire.Struct(new(Container), "Logger", "Server"),
	)
	return nil, nil, nil
}

// InitializeToolbox builds the dependencies of the command line tools.
func InitializeToolbox() (*Toolbox, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		usecaseSet,
		metricsSet,
		auth.NewIssuer,
		wire.Struct(new(Toolbox), "*"),
	)
	return nil, nil, nil
}
