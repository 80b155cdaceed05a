package agent

import (
	"fmt"
	"strings"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

// personaPrompt fixes the agent's role, tone and the output contract for the
// terminal JSON payload. The conversation is held in German.
const personaPrompt = "Du heißt FlexiTime und bist ein Anruf-Agent, der automatisiert Terminbuchungen " +
	"bei Arztpraxen für Kunden vornimmt, die nicht selbst telefonieren können oder wollen. " +
	"Du vereinbarst stellvertretend wie ein Assistent Termine beim Arzt. Dafür erhältst du " +
	"alle relevanten Informationen über den Kunden, sein Anliegen, den Arzt und das " +
	"Zeitfenster aus der Datenbank. Deine Antworten sollen klar, präzise und nicht zu lang " +
	"sein, wie in einem natürlichen Gespräch zwischen zwei Personen. " +
	"Wenn alles geklärt ist, beendest du das Gespräch, indem du dich verabschiedest, dann " +
	"'FINISHED_CALL' ausgibst und direkt danach das Gesprächsergebnis im JSON-Format. " +
	"Das JSON enthält task_status als String mit den Optionen 'successful' und " +
	"'unsuccessful', appointment_date als String im Format YYYY-MM-DD und " +
	"appointment_time als String im Format HH:MM. Wenn du keine Information hast, gib " +
	"'N/A' aus. Halte dich strikt an diese Struktur. Wenn eine Terminvereinbarung nicht " +
	"möglich ist, gib den task_status 'unsuccessful' an und erfinde keinen Termin. " +
	"Reagiere dynamisch auf den Gesprächsverlauf, aber verliere dein Ziel nicht aus den " +
	"Augen. Alle weiteren Prompts sind die Telefonantworten des Gesprächspartners aus der " +
	"Arztpraxis; der gesamte bisherige Gesprächsverlauf bleibt dir erhalten. Kommuniziere " +
	"auf Deutsch, freundlich und höflich, aber nicht zu formell und steif."

// seedPrompt builds the first session input: task details followed by the
// persona instructions.
func seedPrompt(t task.Task) string {
	var b strings.Builder
	b.WriteString("[Details zum Terminbuchungsauftrag aus der Datenbank]\n")
	fmt.Fprintf(&b, "- Benutzer-ID: %s\n", t.UserID)
	fmt.Fprintf(&b, "- Arzt-ID: %s\n", t.DoctorID)
	fmt.Fprintf(&b, "- Auftrags-ID: %s\n", t.ID)
	fmt.Fprintf(&b, "- Grund des Termins: %s\n", t.AppointmentReason)
	if t.AdditionalRemark != "" {
		fmt.Fprintf(&b, "- Anmerkung: %s\n", t.AdditionalRemark)
	}
	fmt.Fprintf(&b, "- Gewünschtes Datum: %s\n", orNA(t.AppointmentDate))
	fmt.Fprintf(&b, "- Gewünschtes Zeitfenster: %s - %s\n", orNA(t.TimeRangeStart), orNA(t.TimeRangeEnd))
	b.WriteString("\n")
	b.WriteString(personaPrompt)
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return task.NotAvailable
	}
	return s
}
