package main

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/config"
	"github.com/smallbiznis/formpay/internal/entry"
	"github.com/smallbiznis/formpay/internal/feed"
	"github.com/smallbiznis/formpay/internal/logger"
	"github.com/smallbiznis/formpay/internal/migration"
	"github.com/smallbiznis/formpay/internal/notification"
	"github.com/smallbiznis/formpay/internal/observability"
	"github.com/smallbiznis/formpay/internal/payment"
	"github.com/smallbiznis/formpay/internal/ratelimit"
	"github.com/smallbiznis/formpay/internal/scheduler"
	"github.com/smallbiznis/formpay/internal/seed"
	"github.com/smallbiznis/formpay/internal/server"
	"github.com/smallbiznis/formpay/internal/submission"
	"github.com/smallbiznis/formpay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,
		migration.Module,
		ratelimit.Module,

		// Host
		notification.Module,
		feed.Module,
		entry.Module,
		seed.Module,

		// Payment core
		payment.Module,
		submission.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNode, err)
	}
	return node, nil
}
