package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/tasks"
)

// MemberEvictor removes memberships idle for longer than idleFor.
type MemberEvictor interface {
	EvictIdleMembers(ctx context.Context, idleFor time.Duration) (int64, error)
}

// EvictIdleMembersHandler runs the presence sweep.
type EvictIdleMembersHandler struct {
	evictor        MemberEvictor
	defaultIdleFor time.Duration
}

// NewEvictIdleMembersHandler uses defaultIdleFor when a task carries no threshold.
func NewEvictIdleMembersHandler(evictor MemberEvictor, defaultIdleFor time.Duration) *EvictIdleMembersHandler {
	if evictor == nil {
		panic("MemberEvictor cannot be nil for EvictIdleMembersHandler")
	}
	return &EvictIdleMembersHandler{evictor: evictor, defaultIdleFor: defaultIdleFor}
}

// ProcessTask implements asynq.Handler.
func (h *EvictIdleMembersHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	taskID, _ := asynq.GetTaskID(ctx)
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})

	var payload tasks.EvictIdleMembersPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logCtx.WithError(err).Error("Failed to unmarshal task payload")
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	idleFor := payload.IdleFor
	if idleFor <= 0 {
		idleFor = h.defaultIdleFor
	}
	if idleFor <= 0 {
		return fmt.Errorf("no idle threshold configured: %w", asynq.SkipRetry)
	}

	removed, err := h.evictor.EvictIdleMembers(ctx, idleFor)
	if err != nil {
		logCtx.WithError(err).Error("Idle member sweep failed")
		return fmt.Errorf("evict idle members: %w", err)
	}
	logCtx.WithFields(logrus.Fields{"removed": removed, "idle_for": idleFor.String()}).Info("Idle member sweep finished")
	return nil
}
