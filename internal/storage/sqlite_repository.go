package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hogarlabs/domoctl/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) ListDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type, status, specs FROM devices ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Device, 0)
	for rows.Next() {
		device, scanErr := scanDevice(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, device)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertDevice(ctx context.Context, in model.Device) error {
	specs, err := marshalDoc(in.Specs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO devices (id, name, type, status, specs)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, type = excluded.type, status = excluded.status, specs = excluded.specs`,
		in.ID, in.Name, in.Type, in.Status, specs,
	)
	return err
}

func (r *SQLiteRepository) CreateSchedule(ctx context.Context, in model.Schedule) error {
	triggers, err := marshalDoc(in.Devices)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO schedules (id, owner, name, days, active, repeat_mode, triggers, last_triggered_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Owner, in.Name, string(in.Days), boolInt(in.Active), string(in.Repeat),
		triggers, nullTime(in.LastTriggered), mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetSchedule(ctx context.Context, owner, id string) (model.Schedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner, name, days, active, repeat_mode, triggers, last_triggered_at, created_at
		FROM schedules WHERE owner = ? AND id = ?`, owner, id)
	schedule, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Schedule{}, ErrNotFound
		}
		return model.Schedule{}, err
	}
	return schedule, nil
}

// SaveSchedule upserts. The executor persists lastTriggered through this
// path, and the form save path reuses it for both create and edit.
func (r *SQLiteRepository) SaveSchedule(ctx context.Context, in model.Schedule) error {
	triggers, err := marshalDoc(in.Devices)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO schedules (id, owner, name, days, active, repeat_mode, triggers, last_triggered_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, days = excluded.days, active = excluded.active,
			repeat_mode = excluded.repeat_mode, triggers = excluded.triggers,
			last_triggered_at = excluded.last_triggered_at`,
		in.ID, in.Owner, in.Name, string(in.Days), boolInt(in.Active), string(in.Repeat),
		triggers, nullTime(in.LastTriggered), mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) DeleteSchedule(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListSchedules(ctx context.Context, owner string) ([]model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, name, days, active, repeat_mode, triggers, last_triggered_at, created_at
		FROM schedules WHERE owner = ? ORDER BY created_at ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Schedule, 0)
	for rows.Next() {
		schedule, scanErr := scanSchedule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, schedule)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) error {
	tags, err := marshalDoc(in.Tags)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner, name, description, priority, due_date, status, assigned_to, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Owner, in.Name, in.Description, string(in.Priority),
		in.DueDate.Format(model.DueDateLayout), string(in.Status), in.AssignedTo, tags, mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, owner, id string) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner, name, description, priority, due_date, status, assigned_to, tags, created_at
		FROM tasks WHERE owner = ? AND id = ?`, owner, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) error {
	tags, err := marshalDoc(in.Tags)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET name = ?, description = ?, priority = ?, due_date = ?, status = ?, assigned_to = ?, tags = ?
		WHERE owner = ? AND id = ?`,
		in.Name, in.Description, string(in.Priority), in.DueDate.Format(model.DueDateLayout),
		string(in.Status), in.AssignedTo, tags, in.Owner, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, owner string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, name, description, priority, due_date, status, assigned_to, tags, created_at
		FROM tasks WHERE owner = ? ORDER BY created_at ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func marshalDoc(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal document column: %w", err)
	}
	return string(raw), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (model.Device, error) {
	var out model.Device
	var specs string
	if err := s.Scan(&out.ID, &out.Name, &out.Type, &out.Status, &specs); err != nil {
		return model.Device{}, err
	}
	if specs != "" {
		if err := json.Unmarshal([]byte(specs), &out.Specs); err != nil {
			return model.Device{}, fmt.Errorf("decode device specs: %w", err)
		}
	}
	return out, nil
}

func scanSchedule(s scanner) (model.Schedule, error) {
	var out model.Schedule
	var days, repeat, triggers, created string
	var active int
	var lastTriggered sql.NullString
	if err := s.Scan(&out.ID, &out.Owner, &out.Name, &days, &active, &repeat, &triggers, &lastTriggered, &created); err != nil {
		return model.Schedule{}, err
	}
	if err := json.Unmarshal([]byte(triggers), &out.Devices); err != nil {
		return model.Schedule{}, fmt.Errorf("decode schedule triggers: %w", err)
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Schedule{}, err
	}
	lastAt, err := parseNullableTime(lastTriggered)
	if err != nil {
		return model.Schedule{}, err
	}
	out.Days = model.DayPattern(days)
	out.Repeat = model.Repeat(repeat)
	out.Active = active == 1
	out.LastTriggered = lastAt
	out.CreatedAt = createdAt
	return out, nil
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var priority, due, status, tags, created string
	if err := s.Scan(&out.ID, &out.Owner, &out.Name, &out.Description, &priority, &due, &status, &out.AssignedTo, &tags, &created); err != nil {
		return model.Task{}, err
	}
	if err := json.Unmarshal([]byte(tags), &out.Tags); err != nil {
		return model.Task{}, fmt.Errorf("decode task tags: %w", err)
	}
	dueDate, err := time.Parse(model.DueDateLayout, due)
	if err != nil {
		return model.Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Task{}, err
	}
	out.Priority = model.Priority(priority)
	out.Status = model.Status(status)
	out.DueDate = dueDate
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
