package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eitanrom/plada-backend/internal/alias"
	"github.com/eitanrom/plada-backend/internal/cache"
	"github.com/eitanrom/plada-backend/internal/data/db"
	"github.com/eitanrom/plada-backend/internal/data/repos"
	"github.com/eitanrom/plada-backend/internal/http/handlers"
	"github.com/eitanrom/plada-backend/internal/ingest"
	"github.com/eitanrom/plada-backend/internal/metrics"
	"github.com/eitanrom/plada-backend/internal/observability"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
	"github.com/eitanrom/plada-backend/internal/server"
	"github.com/eitanrom/plada-backend/internal/standards"
)

type Repos struct {
	RawEvents   repos.RawEventRepo
	Normalized  repos.NormalizedResponseRepo
	Snapshots   repos.MetricSnapshotRepo
	DeadLetters repos.DeadLetterRepo
}

type Services struct {
	Ingest  *ingest.Service
	Metrics *metrics.Engine
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services

	tracingShutdown func(context.Context) error
}

func New() (*App, error) {
	cfg := LoadConfig()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	// Reference data first: a malformed standards or alias document means the
	// process must not come up.
	stds, err := standards.Load(cfg.StandardsPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load standards: %w", err)
	}
	aliasCfg, err := alias.LoadConfig(cfg.AliasesPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load aliases: %w", err)
	}
	resolver, err := alias.NewResolver(aliasCfg, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("compile alias rules: %w", err)
	}

	dbService, err := db.New(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	theDB := dbService.DB()

	tracingShutdown := observability.InitTracing(context.Background(), log, "plada-backend")

	reposet := Repos{
		RawEvents:   repos.NewRawEventRepo(theDB, log),
		Normalized:  repos.NewNormalizedResponseRepo(theDB, log),
		Snapshots:   repos.NewMetricSnapshotRepo(theDB, log),
		DeadLetters: repos.NewDeadLetterRepo(theDB, log),
	}

	var snapshotCache metrics.SnapshotCache
	if rc := cache.New(log); rc != nil {
		snapshotCache = rc
	}
	engine := metrics.NewEngine(reposet.Normalized, reposet.Snapshots, snapshotCache, resolver, stds, log)
	parser := ingest.NewParser(resolver, stds, log)
	ingestSvc := ingest.NewService(reposet.RawEvents, reposet.Normalized, reposet.DeadLetters, parser, engine, log)

	serviceset := Services{Ingest: ingestSvc, Metrics: engine}

	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		ReportsHandler: handlers.NewReportsHandler(log, ingestSvc, reposet.DeadLetters),
		MetricsHandler: handlers.NewMetricsHandler(log, engine),
		AllowOrigins:   cfg.AllowOrigins,
		TracingEnabled: cfg.TracingEnabled,
	})

	return &App{
		Log:             log,
		DB:              theDB,
		Router:          router,
		Cfg:             cfg,
		Repos:           reposet,
		Services:        serviceset,
		tracingShutdown: tracingShutdown,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Starting HTTP server", "addr", a.Cfg.Addr)
	return a.Router.Run(a.Cfg.Addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.tracingShutdown != nil {
		_ = a.tracingShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
