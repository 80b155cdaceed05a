package tools

import (
	"context"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/intake"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
)

// ScheduleCall forwards a booking request to the intake API and returns its
// response verbatim.
type ScheduleCall struct {
	Client *intake.Client
}

func (s *ScheduleCall) Schema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        "schedule_call_task",
		Description: "Plant eine Anrufaufgabe zur Terminbuchung für einen Benutzer und einen Arzt mit spezifischen Details.",
		InputSchema: llm.ToolInputSchema{
			Type: "object",
			Properties: map[string]llm.ToolProperty{
				"user_id":            {Type: "string", Description: "Die ID des Benutzers, der den Anruf plant."},
				"doctor_id":          {Type: "string", Description: "Die ID des Arztes, bei dem ein Termin gebucht werden soll."},
				"appointment_reason": {Type: "string", Description: "Der Grund für den Termin, z.B. 'Kontrolluntersuchung', 'Erstberatung'."},
				"additional_remark":  {Type: "string", Description: "Zusätzliche Anmerkungen oder Details zum Termin. Wenn keine vorhanden sind, ein leerer String oder 'N/A'."},
				"date":               {Type: "string", Description: "Das gewünschte Datum des Anrufs im Format YYYY-MM-DD."},
				"time_range_start":   {Type: "string", Description: "Die Startzeit des gewünschten Zeitfensters für den Anruf im Format HH:MM."},
				"time_range_end":     {Type: "string", Description: "Die Endzeit des gewünschten Zeitfensters für den Anruf im Format HH:MM."},
			},
			Required: []string{
				"user_id",
				"doctor_id",
				"appointment_reason",
				"additional_remark",
				"date",
				"time_range_start",
				"time_range_end",
			},
		},
	}
}

func (s *ScheduleCall) Invoke(ctx context.Context, args map[string]string) (string, error) {
	return s.Client.ScheduleCallTask(ctx, intake.ScheduleRequest{
		UserID:            args["user_id"],
		DoctorID:          args["doctor_id"],
		AppointmentReason: args["appointment_reason"],
		AdditionalRemark:  args["additional_remark"],
		Date:              args["date"],
		TimeRangeStart:    args["time_range_start"],
		TimeRangeEnd:      args["time_range_end"],
	})
}
