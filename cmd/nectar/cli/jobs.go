package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nectar-erp/nectar-erp/jobs"
)

// taskBuilders maps trigger names to their payload constructors. Scans get a
// fresh timestamp per invocation so the payload matches a cron-fired run.
var taskBuilders = map[string]func() (*asynq.Task, error){
	jobs.TaskTypeStaleOrderScan: func() (*asynq.Task, error) {
		return jobs.NewStaleOrderScanTask(time.Now().UTC())
	},
	jobs.TaskTypeLowStockScan: func() (*asynq.Task, error) {
		return jobs.NewLowStockScanTask(time.Now().UTC())
	},
}

// TriggerNames lists the jobs Trigger accepts, for usage messages.
func TriggerNames() string {
	names := make([]string, 0, len(taskBuilders))
	for name := range taskBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// JobsCLI drives the queue from the command line: manual triggers and
// read-only inspection.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI connects both the enqueue client and the inspector to Redis.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{
		client:    asynq.NewClient(opts),
		inspector: asynq.NewInspector(opts),
	}, nil
}

// Close releases both Redis connections.
func (c *JobsCLI) Close() error {
	if c == nil {
		return nil
	}
	return errors.Join(c.inspector.Close(), c.client.Close())
}

// Trigger enqueues a scan by task name ahead of its cron schedule.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	build, ok := taskBuilders[name]
	if !ok {
		return nil, fmt.Errorf("jobs cli: unknown job %q, want one of: %s", name, TriggerNames())
	}
	task, err := build()
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
}

// InspectQueue reports depth counters for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (*asynq.QueueInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	return c.inspector.GetQueueInfo(jobs.QueueDefault)
}

// ListScheduled pages the first size scheduled tasks on the default queue.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}
