// Package registry opens the configured Cluster Registry backend.
package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/prommonitor/internal/config"
	"github.com/hamed0406/prommonitor/internal/domain"
	"github.com/hamed0406/prommonitor/internal/repo"
	"github.com/hamed0406/prommonitor/internal/repo/dynamo"
	"github.com/hamed0406/prommonitor/internal/repo/memory"
	mg "github.com/hamed0406/prommonitor/internal/repo/mongo"
	pg "github.com/hamed0406/prommonitor/internal/repo/postgres"
)

// Closer releases the backend's connections.
type Closer func(ctx context.Context) error

func noopClose(context.Context) error { return nil }

// Open returns the registry selected by cfg.RegistryBackend, scoped to
// cfg.EnvironmentName. The postgres table is created when missing, whichever
// role starts first.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (repo.ClusterRegistry, Closer, error) {
	switch cfg.RegistryBackend {
	case config.BackendMemory, "":
		log.Warn("registry_in_memory", zap.String("hint", "state is lost on restart"))
		return memory.New(), noopClose, nil

	case config.BackendPostgres:
		s, err := pg.New(ctx, cfg.DatabaseURL, cfg.EnvironmentName, log)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
		}
		return s, func(context.Context) error { s.Close(); return nil }, nil

	case config.BackendDynamoDB:
		s, err := dynamo.New(ctx, cfg.EnvironmentName, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
		}
		return s, noopClose, nil

	case config.BackendMongo:
		s, err := mg.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.EnvironmentName)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown REGISTRY_BACKEND %q", domain.ErrConfiguration, cfg.RegistryBackend)
}
