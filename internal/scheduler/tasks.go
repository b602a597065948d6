package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskStaleQuoteSweep = "quotes.stale.sweep"

const TaskNotificationOutboxDue = "notification.outbox.due"

type StaleQuoteSweepPayload struct {
	ThresholdDays int `json:"thresholdDays"`
}

type NotificationOutboxDuePayload struct {
	OutboxID string `json:"outboxId"`
}

func NewStaleQuoteSweepTask(payload StaleQuoteSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStaleQuoteSweep, data), nil
}

func ParseStaleQuoteSweepPayload(task *asynq.Task) (StaleQuoteSweepPayload, error) {
	var payload StaleQuoteSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StaleQuoteSweepPayload{}, err
	}
	return payload, nil
}

func NewNotificationOutboxDueTask(payload NotificationOutboxDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationOutboxDue, data), nil
}

func ParseNotificationOutboxDuePayload(task *asynq.Task) (NotificationOutboxDuePayload, error) {
	var payload NotificationOutboxDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationOutboxDuePayload{}, err
	}
	return payload, nil
}
