package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// TaskDepartureReminder notifies a traveler that departure is near.
const TaskDepartureReminder = "trips.departure_reminder"

// TaskDepartureScan sweeps for trips departing inside the lookahead window.
const TaskDepartureScan = "trips.departure_scan"

// DepartureReminderPayload identifies the trip to remind about.
type DepartureReminderPayload struct {
	TripID        int64     `json:"tripId"`
	UserID        int64     `json:"userId"`
	Destination   string    `json:"destination"`
	DepartureDate time.Time `json:"departureDate"`
}

// NewDepartureReminderTask builds the asynq task for a departure reminder.
func NewDepartureReminderTask(payload DepartureReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDepartureReminder, data), nil
}

// ParseDepartureReminderPayload decodes a departure reminder task.
func ParseDepartureReminderPayload(task *asynq.Task) (DepartureReminderPayload, error) {
	var payload DepartureReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DepartureReminderPayload{}, err
	}
	return payload, nil
}

// NewDepartureScanTask builds the periodic sweep task. It carries no payload.
func NewDepartureScanTask() *asynq.Task {
	return asynq.NewTask(TaskDepartureScan, nil)
}
