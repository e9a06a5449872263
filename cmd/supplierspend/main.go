package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/supplierspend/internal/clock"
	"github.com/smallbiznis/supplierspend/internal/config"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice"
	externalservice "github.com/smallbiznis/supplierspend/internal/externalinvoice/service"
	"github.com/smallbiznis/supplierspend/internal/invoice"
	"github.com/smallbiznis/supplierspend/internal/migration"
	"github.com/smallbiznis/supplierspend/internal/observability"
	"github.com/smallbiznis/supplierspend/internal/seed"
	"github.com/smallbiznis/supplierspend/internal/server"
	"github.com/smallbiznis/supplierspend/internal/spend"
	"github.com/smallbiznis/supplierspend/internal/supplier"
	"github.com/smallbiznis/supplierspend/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		supplier.Module,
		invoice.Module,
		externalinvoice.Module,
		spend.Module,
		seed.Module,

		fx.Provide(func(g *externalservice.Gateway) server.BreakerStateReader { return g }),
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
