package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/profitlens/profitlens/internal/app"
	"github.com/profitlens/profitlens/internal/feed"
	"github.com/profitlens/profitlens/internal/platform/cache"
	"github.com/profitlens/profitlens/internal/report"
	"github.com/profitlens/profitlens/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	// The queue cannot operate without Redis, so fail fast here instead of
	// limping along the way the API server does.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	feedClient := feed.NewHTTPClient(cfg.FeedBaseURL, cfg.FeedToken,
		feed.WithHTTPClient(&http.Client{Timeout: cfg.FeedTimeout}),
	)
	reportCache := report.NewCache(redisClient, cfg.CacheTTL)
	reportService := report.NewService(feedClient, reportCache, logger)

	warmupJob := jobs.NewReportWarmupJob(reportService, logger, nil)

	warmupTask, err := jobs.NewReportWarmupTask(cfg.WarmupDays)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	// Warm the report cache at boot instead of waiting for the first cron
	// tick, so a fresh deployment serves its first dashboard from cache.
	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	if _, err := queueClient.EnqueueReportWarmup(ctx, cfg.WarmupDays); err != nil {
		logger.Warn("enqueue initial warmup", slog.Any("error", err))
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
