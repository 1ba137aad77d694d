package store

import (
	"context"
	"fmt"

	"protv/internal/db"
	"protv/pkg/types"

	sq "github.com/Masterminds/squirrel"
)

// ApplicationStore persists application records and answers health probes.
type ApplicationStore interface {
	Insert(ctx context.Context, app *types.Application) error
	ApplicationBySubmissionID(ctx context.Context, submissionID string) (*types.Application, error)
	ListCollections(ctx context.Context) ([]string, error)
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects the store selected by config.StoreDriver.
func Open(ctx context.Context, config *types.Config) (ApplicationStore, error) {
	switch config.StoreDriver {
	case types.StoreDriverMongo, "":
		client, err := db.ConnectMongo(ctx, config)
		if err != nil {
			return nil, err
		}
		return NewMongoApplicationRepository(client, config.DatabaseName), nil
	case types.StoreDriverPostgres:
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("set DATABASE_URL for the postgres store")
		}
		pool, err := db.Connect(ctx, config)
		if err != nil {
			return nil, err
		}
		return NewPostgresApplicationRepository(pool, config.DatabaseSchema), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", config.StoreDriver)
	}
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
