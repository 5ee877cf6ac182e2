package worker

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/tasks"
)

// WorkerServer runs the asynq worker together with the scheduler that
// enqueues the periodic sweep.
type WorkerServer struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	log       *logrus.Entry

	evictor  MemberEvictor
	schedule string
	idleFor  time.Duration
}

// Options configures the sweep. An empty Schedule disables the scheduler.
type Options struct {
	Concurrency int
	Schedule    string
	IdleFor     time.Duration
}

func NewWorkerServer(redisOpt asynq.RedisClientOpt, evictor MemberEvictor, opts Options, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: opts.Concurrency,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID, _ := asynq.GetTaskID(ctx)
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
			Logger: logEntry,
		},
	)

	var scheduler *asynq.Scheduler
	if opts.Schedule != "" {
		scheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: logEntry})
	}

	return &WorkerServer{
		server:    server,
		scheduler: scheduler,
		log:       logEntry,
		evictor:   evictor,
		schedule:  opts.Schedule,
		idleFor:   opts.IdleFor,
	}
}

// Mux routes task types to handlers.
func (ws *WorkerServer) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeMembersEvictIdle, NewEvictIdleMembersHandler(ws.evictor, ws.idleFor))
	return mux
}

// Start runs the worker and the scheduler. It blocks; call it in a goroutine.
func (ws *WorkerServer) Start() {
	if ws.scheduler != nil {
		task, err := tasks.NewEvictIdleMembersTask(ws.idleFor)
		if err != nil {
			ws.log.WithError(err).Error("Failed to build idle member sweep task")
		} else if entryID, err := ws.scheduler.Register(ws.schedule, task, asynq.Queue("low")); err != nil {
			ws.log.WithError(err).Errorf("Could not register idle member sweep with schedule %q", ws.schedule)
		} else {
			ws.log.Infof("Idle member sweep registered with schedule '%s' (EntryID: %s)", ws.schedule, entryID)
			go func() {
				if err := ws.scheduler.Run(); err != nil {
					ws.log.WithError(err).Error("Asynq scheduler stopped")
				}
			}()
		}
	}

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(ws.Mux()); err != nil {
		if errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Info("Worker server stopped.")
			return
		}
		ws.log.Fatalf("Could not run worker server: %v", err)
	}
}

// Shutdown stops the scheduler and drains the worker.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	if ws.scheduler != nil {
		ws.scheduler.Shutdown()
	}
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
