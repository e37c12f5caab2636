package goTeam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/goTeam/api"
	"github.com/MrEthical07/goTeam/cache"
	"github.com/MrEthical07/goTeam/internal/notify"
	"github.com/MrEthical07/goTeam/model"
)

// TaskListParams pages the signed-in user's task list. Zero values let the
// server decide.
type TaskListParams struct {
	Limit  int
	Offset int
}

func (p TaskListParams) page() api.Page {
	return api.Page{Limit: p.Limit, Offset: p.Offset}
}

// TaskStatuses returns the status catalog.
func (c *Client) TaskStatuses(ctx context.Context) ([]model.TaskStatus, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	statuses, err := cache.Fetch(ctx, c.cache, keyTaskStatuses(), c.policy(ResourceCatalog), c.api.TaskStatuses)
	if err != nil {
		return nil, fmt.Errorf("task statuses: %w", err)
	}
	return slices.Clone(statuses), nil
}

// UserTasks returns the signed-in user's tasks with their status names
// resolved against the catalog. It needs a loaded user and a non-empty
// catalog.
func (c *Client) UserTasks(ctx context.Context, params TaskListParams) ([]model.Task, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	uid, err := c.userID()
	if err != nil {
		return nil, err
	}
	tasks, err := cache.Fetch(ctx, c.cache, keyTaskPage(uid, params), c.policy(ResourceTaskList), c.taskListFetcher(uid, params))
	if err != nil {
		return nil, fmt.Errorf("user tasks: %w", err)
	}
	return cloneTasks(tasks), nil
}

// taskListFetcher loads one page and joins it with the catalog. The
// catalog is read on every fetch so refetches pick up renamed statuses.
func (c *Client) taskListFetcher(uid string, params TaskListParams) func(context.Context) ([]model.Task, error) {
	return func(ctx context.Context) ([]model.Task, error) {
		statuses, err := c.TaskStatuses(ctx)
		if err != nil {
			return nil, err
		}
		if len(statuses) == 0 {
			return nil, ErrStatusesUnavailable
		}
		rows, err := c.api.UserTasks(ctx, uid, params.page())
		if err != nil {
			return nil, err
		}
		tasks := make([]model.Task, 0, len(rows))
		for _, r := range rows {
			tasks = append(tasks, r.JoinStatus(statuses))
		}
		return tasks, nil
	}
}

// WatchTasks calls fn with the signed-in user's task page now and after
// every change, polling on the task list interval until ctx ends or stop is
// called.
func (c *Client) WatchTasks(ctx context.Context, params TaskListParams, fn func([]model.Task, error)) (stop func()) {
	if err := c.ready(); err != nil {
		fn(nil, err)
		return func() {}
	}
	uid, err := c.userID()
	if err != nil {
		fn(nil, err)
		return func() {}
	}
	return c.cache.Watch(ctx, keyTaskPage(uid, params), c.policy(ResourceTaskList),
		cache.Adapt(c.taskListFetcher(uid, params)), watchOf(fn, cloneTasks))
}

// Task returns one task with its files.
func (c *Client) Task(ctx context.Context, id int64) (model.Task, error) {
	if err := c.ready(); err != nil {
		return model.Task{}, err
	}
	task, err := cache.Fetch(ctx, c.cache, keyTaskDetail(id), c.policy(ResourceTaskDetail), func(ctx context.Context) (model.Task, error) {
		resp, err := c.api.Task(ctx, id)
		if err != nil {
			if api.StatusCode(err) == http.StatusNotFound {
				return model.Task{}, fmt.Errorf("%w: %w", ErrTaskNotFound, err)
			}
			return model.Task{}, err
		}
		if resp.Task == nil {
			return model.Task{}, ErrTaskNotFound
		}
		return resp.ToTask(), nil
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("task %d: %w", id, err)
	}
	return task.Clone(), nil
}

// UpdateTaskStatus moves a task to another status. The cached detail and
// every cached list row for the task show the new status id at once; the
// status name stays as it was until the next refetch. If the request fails
// the cache is restored and the user is notified.
//
// Concurrent changes to the same task are not coalesced: each issues its
// own request and the last response the server handles wins.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID, statusID int64) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	ctx, span := c.tracer.Start(ctx, "goTeam.UpdateTaskStatus", trace.WithAttributes(
		attribute.Int64("task.id", taskID),
		attribute.Int64("task.status_id", statusID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "status update failed")
		}
		span.End()
	}()

	tx := c.cache.Begin(
		cache.PatchOf(keyTaskDetail(taskID), func(_ cache.Key, t model.Task) (model.Task, bool) {
			if t.ID != taskID {
				return t, false
			}
			out := t.Clone()
			out.Status.ID = statusID
			return out, true
		}),
		cache.PatchOf(keyTaskLists(), func(_ cache.Key, tasks []model.Task) ([]model.Task, bool) {
			i := slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == taskID })
			if i < 0 {
				return tasks, false
			}
			out := slices.Clone(tasks)
			out[i] = out[i].Clone()
			out[i].Status.ID = statusID
			return out, true
		}),
	)
	span.SetAttributes(attribute.Int("cache.touched", len(tx.Touched())))

	if err := c.api.UpdateTaskStatus(ctx, taskID, statusID); err != nil {
		tx.Rollback()
		c.log.Warn().Err(err).Int64("task_id", taskID).Int64("status_id", statusID).Msg("task status update failed, cache restored")
		return c.fail(ctx, "update_task_status", "Status not changed", err)
	}
	tx.Commit()
	return nil
}

// CreateTask creates a task and marks every cached task list stale.
func (c *Client) CreateTask(ctx context.Context, req model.CreateTaskRequest) (model.TaskResponse, error) {
	if err := c.ready(); err != nil {
		return model.TaskResponse{}, err
	}
	task, err := c.api.CreateTask(ctx, req)
	if err != nil {
		return model.TaskResponse{}, c.fail(ctx, "create_task", "Task not created", err)
	}
	c.cache.Invalidate(keyTaskLists())
	c.notify(ctx, notify.LevelSuccess, "create_task", "Task created", task.Title)
	return task, nil
}

func cloneTasks(tasks []model.Task) []model.Task {
	return model.CloneAll(tasks, model.Task.Clone)
}

// watchOf adapts a typed callback to cache entry updates. fn gets a copy
// made by clone, never the cached value. Entries without data or error yet
// are skipped.
func watchOf[T any](fn func(T, error), clone func(T) T) func(cache.Entry) {
	return func(e cache.Entry) {
		var zero T
		switch {
		case e.HasData:
			v, ok := e.Data.(T)
			if !ok {
				fn(zero, fmt.Errorf("%w: %s holds %T", cache.ErrTypeMismatch, e.Key, e.Data))
				return
			}
			fn(clone(v), e.Err)
		case e.Err != nil:
			fn(zero, e.Err)
		}
	}
}

// IsTaskNotFound reports whether err means the task does not exist.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}
