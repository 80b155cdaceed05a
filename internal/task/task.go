// Package task defines the records shared between the intake API, the task
// store and the call agent.
package task

import "time"

// Status of a call task. Transitions are monotonic:
// open -> in_progress -> finished | error.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
	StatusError      Status = "error"
)

// Task is one appointment-booking request awaiting an outbound call.
type Task struct {
	ID                string    `json:"task_id"`
	UserID            string    `json:"user_id"`
	DoctorID          string    `json:"doctor_id"`
	AppointmentReason string    `json:"appointment_reason"`
	AdditionalRemark  string    `json:"additional_remark"`
	AppointmentDate   string    `json:"appointment_date"`
	TimeRangeStart    string    `json:"time_range_start"`
	TimeRangeEnd      string    `json:"time_range_end"`
	Status            Status    `json:"status"`
	Outcome           *Outcome  `json:"outcome,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// TaskStatus values emitted by the model in the terminal JSON payload.
const (
	ResultSuccessful   = "successful"
	ResultUnsuccessful = "unsuccessful"
)

// NotAvailable marks an absent date or time in an Outcome.
const NotAvailable = "N/A"

// Outcome is the structured result extracted at call end.
type Outcome struct {
	TaskStatus      string `json:"task_status"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	// Note carries a diagnostic annotation (e.g. a parse failure); it is
	// internal and not part of the model's output contract.
	Note string `json:"note,omitempty"`
}

// Successful reports whether the call booked an appointment.
func (o Outcome) Successful() bool { return o.TaskStatus == ResultSuccessful }

// Unsuccessful returns the outcome recorded when no appointment could be
// extracted, annotated with the given note.
func Unsuccessful(note string) Outcome {
	return Outcome{
		TaskStatus:      ResultUnsuccessful,
		AppointmentDate: NotAvailable,
		AppointmentTime: NotAvailable,
		Note:            note,
	}
}
