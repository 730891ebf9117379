package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCommissionReleaseSweep = "commissions.release_sweep"

const TaskCloserReconcile = "closers.reconcile"

const TaskAssignPending = "appointments.assign_pending"

// SweepPayload is shared by all three maintenance tasks; TriggeredBy records
// whether the run came from the periodic scheduler or an admin.
type SweepPayload struct {
	TriggeredBy string `json:"triggeredBy"`
}

func NewCommissionReleaseSweepTask(payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionReleaseSweep, data), nil
}

func NewCloserReconcileTask(payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCloserReconcile, data), nil
}

func NewAssignPendingTask(payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssignPending, data), nil
}

func ParseSweepPayload(task *asynq.Task) (SweepPayload, error) {
	var payload SweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SweepPayload{}, err
	}
	return payload, nil
}
