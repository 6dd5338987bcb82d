package repository

import (
	"context"
	"fmt"
	"time"

	"voicepanels/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Stores bundles the repositories for the configured driver
type Stores struct {
	Driver      string
	Evaluations EvaluationStore
	Panels      PanelStore

	close func(ctx context.Context)
}

// Close releases the underlying connections
func (s *Stores) Close(ctx context.Context) {
	if s.close != nil {
		s.close(ctx)
	}
}

// Open connects to MongoDB or Postgres according to cfg.StoreDriver and
// pings it before returning.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		db := client.Database(cfg.MongoDatabase)
		return &Stores{
			Driver:      config.DriverMongo,
			Evaluations: NewEvaluationRepo(db),
			Panels:      NewPanelRepo(db),
			close:       func(ctx context.Context) { client.Disconnect(ctx) },
		}, nil

	case config.DriverPostgres:
		pool, err := OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Driver:      config.DriverPostgres,
			Evaluations: NewPgEvaluationRepo(pool),
			Panels:      NewPgPanelRepo(pool),
			close:       func(context.Context) { pool.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
