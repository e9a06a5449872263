package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/supplierspend/internal/config"
	"github.com/smallbiznis/supplierspend/internal/observability"
	obsmiddleware "github.com/smallbiznis/supplierspend/internal/observability/logger"
	obstracing "github.com/smallbiznis/supplierspend/internal/observability/tracing"
	"github.com/smallbiznis/supplierspend/internal/resilience"
	spenddomain "github.com/smallbiznis/supplierspend/internal/spend/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// BreakerStateReader reports the external gateway breaker state.
type BreakerStateReader interface {
	BreakerState() resilience.State
}

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	spendSvc spenddomain.Service
	breaker  BreakerStateReader
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	SpendSvc spenddomain.Service
	Breaker  BreakerStateReader `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		spendSvc: p.SpendSvc,
		breaker:  p.Breaker,
	}

	svc.registerHealthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerHealthRoutes() {
	s.engine.GET("/health", s.Health)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.GET("/suppliers/:id/spend", s.GetSupplierSpend)
}

func (s *Server) Health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.breaker != nil {
		resp["external_invoice_breaker"] = string(s.breaker.BreakerState())
	}
	c.JSON(http.StatusOK, resp)
}
