package storage

import (
	"context"
	"errors"

	"github.com/hogarlabs/domoctl/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// Repository is the persistence surface of the application. Schedules and
// tasks are owner-scoped; the device registry is shared.
type Repository interface {
	ListDevices(ctx context.Context) ([]model.Device, error)
	UpsertDevice(ctx context.Context, in model.Device) error

	CreateSchedule(ctx context.Context, in model.Schedule) error
	GetSchedule(ctx context.Context, owner, id string) (model.Schedule, error)
	SaveSchedule(ctx context.Context, in model.Schedule) error
	DeleteSchedule(ctx context.Context, owner, id string) error
	ListSchedules(ctx context.Context, owner string) ([]model.Schedule, error)

	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, owner, id string) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	DeleteTask(ctx context.Context, owner, id string) error
	ListTasks(ctx context.Context, owner string) ([]model.Task, error)
}
