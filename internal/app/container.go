package app

import (
	entsql "entgo.io/ent/dialect/sql"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocdrill/internal/infrastructure/auth"
	"github.com/eslsoft/vocdrill/internal/infrastructure/config"
	"github.com/eslsoft/vocdrill/internal/infrastructure/server"
	"github.com/eslsoft/vocdrill/internal/usecase"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Logger *logrus.Logger
	Server *server.Server
}

// Toolbox aggregates what the command line tools need; it never starts listeners.
type Toolbox struct {
	Config      *config.Config
	Logger      *logrus.Logger
	Driver      *entsql.Driver
	Policy      usecase.Policy
	Learners    usecase.LearnerUsecase
	Learning    usecase.LearningUsecase
	Catalog     usecase.CatalogUsecase
	Maintenance usecase.MaintenanceUsecase
	Issuer      *auth.Issuer
}
