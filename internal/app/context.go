package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DannyMang/theta/internal/api/ws"
	"github.com/DannyMang/theta/internal/domain/content"
	"github.com/DannyMang/theta/internal/domain/page"
	"github.com/DannyMang/theta/internal/domain/tab"
	"github.com/DannyMang/theta/internal/infrastructure/config"
	"github.com/DannyMang/theta/internal/infrastructure/fetch"
	"github.com/DannyMang/theta/internal/infrastructure/logging"
	"github.com/DannyMang/theta/internal/infrastructure/monitoring"
	"github.com/DannyMang/theta/internal/infrastructure/tracing"
)

// Context holds the components shared by all requests
type Context struct {
	Config    *config.Config
	Logger    *logging.Logger
	Metrics   *monitoring.Metrics
	Tracer    *tracing.Tracer
	Fetcher   *fetch.Client
	Tabs      *tab.Manager
	Extractor *content.Extractor
	Pages     *page.Analyzer
	Hub       *ws.Hub
	StartedAt time.Time
}

// New wires the components described by cfg
func New(cfg *config.Config, logger *logging.Logger) (*Context, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("theta", logger.Logger)

	fetcher, err := fetch.NewClient(fetch.OptionsFromConfig(cfg.Fetch))
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to create fetch client: %w", err)
	}
	fetcher.WithLogger(logger).WithMetrics(metrics)

	tabs := tab.NewManager().WithMetrics(metrics)
	extractor := content.NewExtractor(fetcher).WithMetrics(metrics)
	pages := page.NewAnalyzer(fetcher, extractor)
	hub := ws.NewHub(tabs, logger).WithMetrics(metrics)

	logger.Info("application context initialized",
		zap.String("fetch_user_agent", fetcher.UserAgent()),
		zap.Duration("fetch_timeout", cfg.Fetch.Timeout.Std()),
		zap.Strings("blocked_hosts", cfg.Fetch.BlockedHosts),
	)

	return &Context{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Tracer:    tracer,
		Fetcher:   fetcher,
		Tabs:      tabs,
		Extractor: extractor,
		Pages:     pages,
		Hub:       hub,
		StartedAt: time.Now(),
	}, nil
}

// Close disconnects stream clients and flushes pending spans
func (c *Context) Close() error {
	c.Hub.Close()
	c.Tracer.Close()
	return nil
}
