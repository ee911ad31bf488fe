package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/postmeet/pkg/db"
	"github.com/otherjamesbrown/postmeet/pkg/events"
	"github.com/otherjamesbrown/postmeet/pkg/logging"
	"github.com/otherjamesbrown/postmeet/pkg/notetaker"
	"github.com/otherjamesbrown/postmeet/pkg/poller"
	"github.com/otherjamesbrown/postmeet/pkg/webapi"
)

// Serve command flags.
var serveNoPolling bool

// NewServeCommand builds the serve command.
func NewServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and polling loop",
		Long: `Run the HTTP API server and the bot polling loop.

The server exposes the dashboard API (health, polling control and status,
note taker toggle) and Prometheus metrics on /metrics. The polling loop
starts immediately unless --no-polling is given; the dashboard can start
and stop it at runtime either way.

Examples:
  postmeet serve
  postmeet serve --no-polling
  postmeet serve --log-level debug`,
		RunE: runServe,
	}
	serveCmd.Flags().BoolVar(&serveNoPolling, "no-polling", false, "do not start the polling loop on boot")
	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, meetingStore, err := connectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	client, err := newRecallClient(cfg, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	if _, err := db.RegisterPoolStatsCollector(pool, "postmeet", registry); err != nil {
		return err
	}
	metrics := poller.NewMetrics("postmeet", registry)

	var publisher poller.Publisher = poller.NopPublisher{}
	if cfg.Redis.Host != "" {
		redisPublisher, err := events.NewPublisherFromAddr(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			// Events are best effort; the polling loop works without them.
			logger.Warn("Redis unavailable, lifecycle events disabled", logging.Err(err))
		} else {
			defer redisPublisher.Close()
			publisher = redisPublisher
		}
	}

	reconciler := poller.NewReconciler(meetingStore, client, publisher, logger)
	batcher, err := poller.NewBatcher(meetingStore, reconciler, poller.BatchConfig{
		MaxAttempts: cfg.Polling.MaxPollAttempts,
		BatchSize:   cfg.Polling.BatchSize,
		ItemDelay:   cfg.Polling.ItemDelay(),
	}, logger, metrics)
	if err != nil {
		return err
	}
	scheduler := poller.NewScheduler(batcher, publisher, cfg.Polling.Interval(), logger, metrics)
	if !serveNoPolling {
		scheduler.Start(context.WithoutCancel(ctx))
	}
	defer scheduler.Stop()

	notetakerSvc := notetaker.NewService(meetingStore, client, logger)
	handlers := webapi.NewHandlers(scheduler, meetingStore, notetakerSvc, logger)
	server := webapi.NewServer(webapi.ServerConfig{
		Addr:     cfg.Web.ListenAddr,
		Registry: registry,
		Logger:   logger,
	}, handlers)

	return server.ListenAndServe(ctx)
}
