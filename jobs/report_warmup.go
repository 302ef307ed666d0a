package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/profitlens/profitlens/internal/jobs"
	"github.com/profitlens/profitlens/internal/report"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const defaultWarmupDays = 30

// ReportWarmupJob pre-populates the report cache with the reports merchants
// open first: the trailing dashboard and the profit and loss statement.
type ReportWarmupJob struct {
	Reports *report.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reports *report.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Reports: reports,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Days <= 0 {
		payload.Days = defaultWarmupDays
	}

	tracker := j.metrics().Track(TaskReportWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	from := now.AddDate(0, 0, -payload.Days)
	logger := j.logger().With(slog.Int("days", payload.Days))
	logger.Info("starting report warmup")

	warmed := 0
	for _, reportType := range []string{report.TypeDashboard, report.TypePL} {
		if err := j.warmReport(ctx, reportType, from, now); err != nil {
			resultErr = err
			logger.Error("warm report", slog.String("report_type", reportType), slog.Any("error", err))
			return resultErr
		}
		j.metrics().AddWarmedReports(reportType, 1)
		warmed++
	}

	logger.Info("completed report warmup", slog.Int("reports", warmed), slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *ReportWarmupJob) warmReport(ctx context.Context, reportType string, from, to time.Time) error {
	if j.Reports == nil {
		return nil
	}
	// Bound each report so a slow feed cannot stall the whole queue.
	reportCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := j.Reports.Run(reportCtx, report.Request{
		Type: reportType,
		From: from,
		To:   to,
	})
	return err
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
