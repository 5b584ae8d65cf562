package xcontext

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/taskex-lab/backend/config"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/pkg/jwt"
	"github.com/taskex-lab/backend/pkg/logger"
	"gorm.io/gorm"
)

type (
	configsKey       struct{}
	loggerKey        struct{}
	dbKey            struct{}
	txKey            struct{}
	requestUserIDKey struct{}
	tokenEngineKey   struct{}
	snowflakeKey     struct{}
	httpClientKey    struct{}
	httpRequestKey   struct{}
)

func WithConfigs(ctx context.Context, configs config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, configs)
}

func Configs(ctx context.Context) config.Configs {
	configs, ok := ctx.Value(configsKey{}).(config.Configs)
	if !ok {
		return config.Configs{}
	}

	return configs
}

func WithLogger(ctx context.Context, lg logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, lg)
}

func Logger(ctx context.Context) logger.Logger {
	lg, ok := ctx.Value(loggerKey{}).(logger.Logger)
	if !ok {
		return logger.NewLogger(logger.SILENCE)
	}

	return lg
}

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the database transaction in flight if any, otherwise the root
// database handle.
func DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}

	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		return nil
	}

	return db
}

// WithDBTransaction begins a transaction and makes it the DB of the returned
// context. Callers must end it with WithCommitDBTransaction or
// WithRollbackDBTransaction.
func WithDBTransaction(ctx context.Context) context.Context {
	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		return ctx
	}

	return context.WithValue(ctx, txKey{}, db.Begin())
}

// WithCommitDBTransaction commits the transaction in flight. It is a no-op if
// the transaction was already ended.
func WithCommitDBTransaction(ctx context.Context) context.Context {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok {
		return ctx
	}

	tx.Commit()
	return context.WithValue(ctx, txKey{}, nil)
}

// WithRollbackDBTransaction rollbacks the transaction in flight. It is a no-op
// if the transaction was already ended, so it is safe to defer right after
// WithDBTransaction.
func WithRollbackDBTransaction(ctx context.Context) context.Context {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok {
		return ctx
	}

	tx.Rollback()
	return context.WithValue(ctx, txKey{}, nil)
}

func WithRequestUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestUserIDKey{}, id)
}

func RequestUserID(ctx context.Context) string {
	id, ok := ctx.Value(requestUserIDKey{}).(string)
	if !ok {
		return ""
	}

	return id
}

func WithTokenEngine(ctx context.Context, engine *jwt.Engine[model.AccessToken]) context.Context {
	return context.WithValue(ctx, tokenEngineKey{}, engine)
}

func TokenEngine(ctx context.Context) *jwt.Engine[model.AccessToken] {
	engine, ok := ctx.Value(tokenEngineKey{}).(*jwt.Engine[model.AccessToken])
	if !ok {
		return nil
	}

	return engine
}

func WithSnowFlake(ctx context.Context, node *snowflake.Node) context.Context {
	return context.WithValue(ctx, snowflakeKey{}, node)
}

func SnowFlake(ctx context.Context) *snowflake.Node {
	node, ok := ctx.Value(snowflakeKey{}).(*snowflake.Node)
	if !ok {
		return nil
	}

	return node
}

func WithHTTPClient(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, httpClientKey{}, client)
}

func HTTPClient(ctx context.Context) *http.Client {
	client, ok := ctx.Value(httpClientKey{}).(*http.Client)
	if !ok {
		return http.DefaultClient
	}

	return client
}

func WithHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, req)
}

func HTTPRequest(ctx context.Context) *http.Request {
	req, ok := ctx.Value(httpRequestKey{}).(*http.Request)
	if !ok {
		return nil
	}

	return req
}
