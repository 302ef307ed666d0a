package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup is the task type for pre-computing merchant reports.
	TaskReportWarmup = "report:warmup"
)

// ReportWarmupPayload describes the warmup window in trailing days.
type ReportWarmupPayload struct {
	Days int `json:"days"`
}

// NewReportWarmupTask constructs an Asynq task.
func NewReportWarmupTask(days int) (*asynq.Task, error) {
	data, err := json.Marshal(ReportWarmupPayload{Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
