package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

// querier abstracts the subset of pgxpool.Pool used by the store for easier
// testing.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	db querier
}

// NewPostgres builds a Postgres store backed by the provided pool.
func NewPostgres(pool *pgxpool.Pool) (*Postgres, error) {
	if pool == nil {
		return nil, errors.New("postgres store requires pool")
	}
	return &Postgres{db: pool}, nil
}

// schema is applied on startup; idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    task_id            TEXT PRIMARY KEY,
    user_id            TEXT NOT NULL,
    doctor_id          TEXT NOT NULL,
    appointment_reason TEXT NOT NULL,
    additional_remark  TEXT NOT NULL DEFAULT '',
    appointment_date   TEXT NOT NULL DEFAULT '',
    time_range_start   TEXT NOT NULL DEFAULT '',
    time_range_end     TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'open',
    outcome            JSONB,
    claimed_at         TIMESTAMPTZ,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS call_protocols (
    task_id    TEXT PRIMARY KEY REFERENCES tasks(task_id),
    transcript JSONB NOT NULL,
    saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS tasks_status_idx ON tasks (status);
`

// EnsureSchema creates the tables if they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) CreateTask(ctx context.Context, t task.Task) error {
	_, err := p.db.Exec(ctx, `
INSERT INTO tasks (task_id, user_id, doctor_id, appointment_reason, additional_remark,
                   appointment_date, time_range_start, time_range_end, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		t.ID, t.UserID, t.DoctorID, t.AppointmentReason, t.AdditionalRemark,
		t.AppointmentDate, t.TimeRangeStart, t.TimeRangeEnd, string(t.Status), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	return nil
}

const taskColumns = `task_id, user_id, doctor_id, appointment_reason, additional_remark,
appointment_date, time_range_start, time_range_end, status, outcome, created_at`

func (p *Postgres) FetchOpenTasks(ctx context.Context) ([]task.Task, error) {
	rows, err := p.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE status = 'open' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("fetch open tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ClaimTask is the optimistic open -> in_progress transition: the WHERE
// clause makes concurrent pollers safe, only one claim can succeed.
func (p *Postgres) ClaimTask(ctx context.Context, taskID string) (bool, error) {
	tag, err := p.db.Exec(ctx, `
UPDATE tasks SET status = 'in_progress', claimed_at = now()
WHERE task_id = $1 AND status = 'open'`, taskID)
	if err != nil {
		return false, fmt.Errorf("claim task %s: %w", taskID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) UpdateTaskStatus(ctx context.Context, taskID string, status task.Status) error {
	tag, err := p.db.Exec(ctx, `UPDATE tasks SET status = $2 WHERE task_id = $1`, taskID, string(status))
	if err != nil {
		return fmt.Errorf("update task %s status: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SaveCallProtocol(ctx context.Context, taskID string, transcript []llm.Message) error {
	blob, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("marshal protocol %s: %w", taskID, err)
	}
	_, err = p.db.Exec(ctx, `
INSERT INTO call_protocols (task_id, transcript) VALUES ($1, $2)
ON CONFLICT (task_id) DO UPDATE SET transcript = EXCLUDED.transcript, saved_at = now()`,
		taskID, blob)
	if err != nil {
		return fmt.Errorf("save protocol %s: %w", taskID, err)
	}
	return nil
}

func (p *Postgres) SaveOutcome(ctx context.Context, taskID string, outcome task.Outcome) error {
	blob, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome %s: %w", taskID, err)
	}
	tag, err := p.db.Exec(ctx, `UPDATE tasks SET outcome = $2 WHERE task_id = $1`, taskID, blob)
	if err != nil {
		return fmt.Errorf("save outcome %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListResults(ctx context.Context) ([]Result, error) {
	rows, err := p.db.Query(ctx, `SELECT task_id, status, outcome FROM tasks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var status string
		var outcome []byte
		if err := rows.Scan(&r.TaskID, &status, &outcome); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Status = task.Status(status)
		if len(outcome) > 0 {
			var o task.Outcome
			if err := json.Unmarshal(outcome, &o); err == nil {
				r.BookedAppointment = &o
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (p *Postgres) GetTask(ctx context.Context, taskID string) (task.Task, error) {
	row := p.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_id = $1`, taskID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	return t, err
}

func (p *Postgres) GetCallProtocol(ctx context.Context, taskID string) ([]llm.Message, error) {
	var blob []byte
	err := p.db.QueryRow(ctx, `SELECT transcript FROM call_protocols WHERE task_id = $1`, taskID).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get protocol %s: %w", taskID, err)
	}
	var transcript []llm.Message
	if err := json.Unmarshal(blob, &transcript); err != nil {
		return nil, fmt.Errorf("decode protocol %s: %w", taskID, err)
	}
	return transcript, nil
}

func (p *Postgres) ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := p.db.Exec(ctx, `
UPDATE tasks SET status = 'open', claimed_at = NULL
WHERE status = 'in_progress' AND claimed_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("reclaim stale tasks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	var status string
	var outcome []byte
	err := row.Scan(&t.ID, &t.UserID, &t.DoctorID, &t.AppointmentReason, &t.AdditionalRemark,
		&t.AppointmentDate, &t.TimeRangeStart, &t.TimeRangeEnd, &status, &outcome, &t.CreatedAt)
	if err != nil {
		return task.Task{}, err
	}
	t.Status = task.Status(status)
	if len(outcome) > 0 {
		var o task.Outcome
		if err := json.Unmarshal(outcome, &o); err == nil {
			t.Outcome = &o
		}
	}
	return t, nil
}
