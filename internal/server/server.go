package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/formpay/internal/config"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	"github.com/smallbiznis/formpay/internal/observability"
	obsmiddleware "github.com/smallbiznis/formpay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/formpay/internal/observability/metrics"
	obstracing "github.com/smallbiznis/formpay/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/smallbiznis/formpay/internal/ratelimit"
	submissiondomain "github.com/smallbiznis/formpay/internal/submission/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

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

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
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
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	engine     *gin.Engine
	cfg        config.Config
	entrySvc   entrydomain.Service
	feedSvc    feeddomain.Service
	submitSvc  submissiondomain.Service
	reconciler paymentdomain.Reconciler
	applier    paymentdomain.ActionApplier
	limiter    *ratelimit.WebhookLimiter
	obsMetrics *obsmetrics.Metrics
	log        *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	EntrySvc   entrydomain.Service
	FeedSvc    feeddomain.Service
	SubmitSvc  submissiondomain.Service
	Reconciler paymentdomain.Reconciler
	Applier    paymentdomain.ActionApplier
	Limiter    *ratelimit.WebhookLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics       `optional:"true"`
	Log        *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		entrySvc:   p.EntrySvc,
		feedSvc:    p.FeedSvc,
		submitSvc:  p.SubmitSvc,
		reconciler: p.Reconciler,
		applier:    p.Applier,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
		log:        p.Log.Named("http.server"),
	}

	svc.registerWebhookRoutes()
	svc.registerPublicRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/stripe", s.HandleStripeWebhook)
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")
	api.POST("/forms/:id/submissions", s.SubmitForm)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api", s.AdminKeyRequired())

	admin.POST("/forms", s.CreateForm)
	admin.GET("/forms/:id", s.GetForm)

	admin.POST("/feeds", s.CreateFeed)
	admin.GET("/feeds/:id", s.GetFeed)
	admin.PUT("/feeds/:id", s.UpdateFeed)

	admin.GET("/entries/:id", s.GetEntry)
	admin.POST("/entries/:id/cancel", s.CancelEntry)
}
