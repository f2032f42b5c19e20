package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/nectar-erp/nectar-erp/internal/platform/httpx"
)

const defaultConcurrency = 5

// TaskHandler binds a task type to its processing function.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration schedules a prepared task on a cron expression.
// Expressions are evaluated in UTC.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects everything needed to bring up the queue worker.
// Concurrency defaults to 5 when left zero.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Handlers    []TaskHandler
	Cron        []CronRegistration
	Concurrency int
}

// Worker runs the Asynq server and, when cron entries are registered, a
// scheduler alongside it.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// NewWorker builds the worker. Handlers with an empty type and cron entries
// without a task are skipped rather than rejected, so callers can assemble
// the slices conditionally.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	w := &Worker{
		server: asynq.NewServer(cfg.RedisOpts, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{QueueDefault: 1},
		}),
		mux:    asynq.NewServeMux(),
		logger: cfg.Logger,
	}
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		w.mux.HandleFunc(h.Type, h.Handler)
	}
	if len(cfg.Cron) == 0 {
		return w, nil
	}
	w.scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	for _, entry := range cfg.Cron {
		if entry.Spec == "" || entry.Task == nil {
			continue
		}
		if _, err := w.scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Run processes tasks until the context is cancelled, then drains in-flight
// work before returning.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
		defer w.scheduler.Shutdown()
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.server.Stop()
	w.server.Shutdown()
	return ctx.Err()
}

// Client enqueues tasks from the API process.
type Client struct {
	client *asynq.Client
}

// NewClient opens an enqueue-only connection to the queue.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueStepNotification queues an approver mail for a completed step.
func (c *Client) EnqueueStepNotification(ctx context.Context, payload StepNotificationPayload) (*asynq.TaskInfo, error) {
	task, err := NewStepNotificationTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// queueHealth is the payload of the jobs health endpoint.
type queueHealth struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Retry     int    `json:"retry"`
	Scheduled int    `json:"scheduled"`
}

// Handler reports queue depth over HTTP.
type Handler struct {
	inspector *asynq.Inspector
	logger    *slog.Logger
}

// NewHandler wires the jobs HTTP handler. A nil inspector yields an empty
// health payload instead of an error, so the API stays up without Redis.
func NewHandler(inspector *asynq.Inspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.OK(w, "Queue health fetched", queueHealth{Queue: QueueDefault})
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue unavailable", err.Error())
		return
	}
	httpx.OK(w, "Queue health fetched", queueHealth{
		Queue:     info.Queue,
		Pending:   info.Pending,
		Active:    info.Active,
		Retry:     info.Retry,
		Scheduled: info.Scheduled,
	})
}
