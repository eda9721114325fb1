// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/taskhive/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection for the app.
//
// The client is verified with a ping before startup continues, so a bad
// URI or an unreachable server fails fast instead of surfacing as request
// errors later.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("mongodb ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes the stores rely on: unique users.email,
// unique invitations.token, and the tasks owner/shares lookups.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.Ensure(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index creation failed", zap.Error(err))
		return err
	}
	logger.Info("database indexes ensured")
	return nil
}
