package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeMembersEvictIdle = "members:evict_idle"
)

// EvictIdleMembersPayload carries the idle threshold of one sweep.
type EvictIdleMembersPayload struct {
	IdleFor time.Duration `json:"idle_for"`
}

// NewEvictIdleMembersTask builds the periodic sweep task.
func NewEvictIdleMembersTask(idleFor time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(EvictIdleMembersPayload{IdleFor: idleFor})
	if err != nil {
		return nil, err
	}
	// one sweep at a time; a late run is worthless once the next is due
	return asynq.NewTask(TypeMembersEvictIdle, payload, asynq.MaxRetry(3), asynq.Unique(time.Hour)), nil
}
