package goTeam

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/MrEthical07/goTeam/cache"
	"github.com/MrEthical07/goTeam/model"
)

const statusRoute = "/tasks/:id/status/:statusId"

// seedTask stores a task for alice and loads both its detail and alice's
// task list into the cache.
func (ct *clientTest) seedTask(t *testing.T) (int64, []model.TaskStatus) {
	t.Helper()
	statuses := ct.backend.Statuses()
	id := ct.backend.AddTask(model.TaskResponse{Title: "ship it", CreatorID: "u1", Status: statuses[0]})
	ctx := context.Background()
	if _, err := ct.client.Task(ctx, id); err != nil {
		t.Fatalf("task: %v", err)
	}
	tasks, err := ct.client.UserTasks(ctx, TaskListParams{})
	if err != nil {
		t.Fatalf("user tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != statuses[0] {
		t.Fatalf("unexpected list %+v", tasks)
	}
	return id, statuses
}

func (ct *clientTest) inspect(t *testing.T, key cache.Key) cache.Entry {
	t.Helper()
	e, ok := ct.client.Cache().Inspect(key)
	if !ok {
		t.Fatalf("no entry for %s", key)
	}
	return e
}

func TestUserTasksJoinsStatuses(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	statuses := ct.backend.Statuses()
	ct.backend.AddTask(model.TaskResponse{Title: "a", CreatorID: "u1", Status: statuses[2]})
	ct.backend.AddTask(model.TaskResponse{Title: "b", ExecutorID: "u1", Status: model.TaskStatus{Name: "archived"}})
	ct.backend.AddTask(model.TaskResponse{Title: "c", CreatorID: "someone-else", Status: statuses[0]})

	tasks, err := ct.client.UserTasks(context.Background(), TaskListParams{})
	if err != nil {
		t.Fatalf("user tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %+v", tasks)
	}
	if tasks[0].Status != statuses[2] {
		t.Fatalf("known status not joined: %+v", tasks[0].Status)
	}
	if tasks[1].Status.ID != 0 || tasks[1].Status.Name != "archived" {
		t.Fatalf("unknown status should keep its name with id 0: %+v", tasks[1].Status)
	}
}

func TestUserTasksPaged(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	statuses := ct.backend.Statuses()
	for i := 0; i < 5; i++ {
		ct.backend.AddTask(model.TaskResponse{Title: "t", CreatorID: "u1", Status: statuses[0]})
	}
	ctx := context.Background()
	first, err := ct.client.UserTasks(ctx, TaskListParams{Limit: 3})
	if err != nil || len(first) != 3 {
		t.Fatalf("first page: %d %v", len(first), err)
	}
	second, err := ct.client.UserTasks(ctx, TaskListParams{Limit: 3, Offset: 3})
	if err != nil || len(second) != 2 {
		t.Fatalf("second page: %d %v", len(second), err)
	}
	if first[0].ID == second[0].ID {
		t.Fatal("pages must be cached separately")
	}
}

func TestUserTasksNeedsStatuses(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	ct.client.Cache().Set(keyTaskStatuses(), []model.TaskStatus{})

	_, err := ct.client.UserTasks(context.Background(), TaskListParams{})
	if !errors.Is(err, ErrStatusesUnavailable) {
		t.Fatalf("expected ErrStatusesUnavailable, got %v", err)
	}
	if ct.backend.Calls(http.MethodGet, "/users/:id/tasks") != 0 {
		t.Fatal("list must not load before the catalog")
	}
}

func TestTaskNotFound(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	_, err := ct.client.Task(context.Background(), 9999)
	if !IsTaskNotFound(err) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if ct.backend.Calls(http.MethodGet, "/tasks/:id") != 1 {
		t.Fatal("404 must not be retried")
	}
}

func TestUpdateTaskStatusRollback(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	id, statuses := ct.seedTask(t)

	detailBefore := ct.inspect(t, keyTaskDetail(id))
	listBefore := ct.inspect(t, keyTaskPage("u1", TaskListParams{}))

	ct.backend.Fail(http.MethodPatch, statusRoute, http.StatusInternalServerError, gin.H{"error": "db down"})
	err := ct.client.UpdateTaskStatus(context.Background(), id, statuses[1].ID)
	if err == nil {
		t.Fatal("expected failure")
	}

	detailAfter := ct.inspect(t, keyTaskDetail(id))
	listAfter := ct.inspect(t, keyTaskPage("u1", TaskListParams{}))
	if !reflect.DeepEqual(detailBefore, detailAfter) {
		t.Fatalf("detail not restored:\nbefore %+v\nafter  %+v", detailBefore, detailAfter)
	}
	if !reflect.DeepEqual(listBefore, listAfter) {
		t.Fatalf("list not restored:\nbefore %+v\nafter  %+v", listBefore, listAfter)
	}

	n := ct.nextNotification(t)
	if n.Level != NotificationError || n.Op != "update_task_status" || n.Message != "Internal server error" {
		t.Fatalf("unexpected notification %+v", n)
	}
	snap := ct.client.MetricsSnapshot()
	if snap.Counters[MetricOptimisticApplied] != 1 || snap.Counters[MetricOptimisticRolledBack] != 1 {
		t.Fatalf("unexpected optimistic counters %+v", snap.Counters)
	}
}

func TestEditingResultsLeavesCacheAlone(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	id, statuses := ct.seedTask(t)
	ctx := context.Background()

	tasks, err := ct.client.UserTasks(ctx, TaskListParams{})
	if err != nil {
		t.Fatalf("user tasks: %v", err)
	}
	tasks[0].Status.Name = "edited by caller"
	tasks[0].Title = "edited by caller"
	catalog, err := ct.client.TaskStatuses(ctx)
	if err != nil {
		t.Fatalf("statuses: %v", err)
	}
	catalog[0].Name = "edited by caller"

	ct.backend.Fail(http.MethodPatch, statusRoute, http.StatusInternalServerError, gin.H{"error": "db down"})
	if err := ct.client.UpdateTaskStatus(ctx, id, statuses[1].ID); err == nil {
		t.Fatal("expected failure")
	}

	cached, ok := cache.Lookup[[]model.Task](ct.client.Cache(), keyTaskPage("u1", TaskListParams{}))
	if !ok || len(cached) != 1 {
		t.Fatalf("list entry missing: %+v", cached)
	}
	if cached[0].Status != statuses[0] || cached[0].Title != "ship it" {
		t.Fatalf("cache changed by caller edit: %+v", cached[0])
	}
	again, err := ct.client.TaskStatuses(ctx)
	if err != nil || again[0] != statuses[0] {
		t.Fatalf("status catalog changed by caller edit: %+v %v", again, err)
	}
}

func TestUpdateTaskStatusCommit(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	id, statuses := ct.seedTask(t)
	ctx := context.Background()

	if err := ct.client.UpdateTaskStatus(ctx, id, statuses[1].ID); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if !ct.inspect(t, keyTaskDetail(id)).Invalidated {
		t.Fatal("detail should be stale after commit")
	}
	if !ct.inspect(t, keyTaskPage("u1", TaskListParams{})).Invalidated {
		t.Fatal("list should be stale after commit")
	}

	tasks, err := ct.client.UserTasks(ctx, TaskListParams{})
	if err != nil {
		t.Fatalf("user tasks: %v", err)
	}
	if tasks[0].Status != statuses[1] {
		t.Fatalf("refetch should carry the server status, got %+v", tasks[0].Status)
	}
	if got := ct.backend.Calls(http.MethodGet, "/users/:id/tasks"); got != 2 {
		t.Fatalf("expected a refetch, got %d calls", got)
	}
	task, err := ct.client.Task(ctx, id)
	if err != nil || task.Status != statuses[1] {
		t.Fatalf("detail refetch: %+v %v", task, err)
	}
}

func TestUpdateTaskStatusOptimisticPreview(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	id, statuses := ct.seedTask(t)

	release := ct.backend.Hold(http.MethodPatch, statusRoute)
	done := make(chan error, 1)
	go func() { done <- ct.client.UpdateTaskStatus(context.Background(), id, statuses[2].ID) }()

	waitFor(t, "optimistic detail", func() bool {
		task, _ := cache.Lookup[model.Task](ct.client.Cache(), keyTaskDetail(id))
		return task.Status.ID == statuses[2].ID
	})
	task, _ := cache.Lookup[model.Task](ct.client.Cache(), keyTaskDetail(id))
	if task.Status.Name != statuses[0].Name {
		t.Fatalf("status name should stay stale until refetch, got %q", task.Status.Name)
	}
	list, _ := cache.Lookup[[]model.Task](ct.client.Cache(), keyTaskPage("u1", TaskListParams{}))
	if list[0].Status.ID != statuses[2].ID {
		t.Fatalf("list row not patched: %+v", list[0])
	}

	release()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("update status: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update never finished")
	}
}

func TestUpdateTaskStatusWithoutCachedItem(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	statuses := ct.backend.Statuses()
	id := ct.backend.AddTask(model.TaskResponse{Title: "cold", CreatorID: "u1", Status: statuses[0]})

	if err := ct.client.UpdateTaskStatus(context.Background(), id, statuses[1].ID); err != nil {
		t.Fatalf("update status with empty cache: %v", err)
	}
	if got, _ := ct.backend.TaskStatus(id); got != statuses[1] {
		t.Fatalf("server status %+v", got)
	}
}

func TestUpdateTaskStatusSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ct := newClientTest(t, nil)
	ct.login(t)
	id, _ := ct.seedTask(t)

	client, err := New().WithConfig(ct.client.Config()).WithStorage(ct.storage).WithTracerProvider(tp).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer client.Close()
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	ct.backend.Fail(http.MethodPatch, statusRoute, http.StatusBadRequest, gin.H{"error": "unknown status"})
	if err := client.UpdateTaskStatus(context.Background(), id, 42); err == nil {
		t.Fatal("expected failure")
	}

	var found bool
	for _, s := range recorder.Ended() {
		if s.Name() != "goTeam.UpdateTaskStatus" {
			continue
		}
		found = true
		if s.Status().Description != "status update failed" {
			t.Fatalf("unexpected span status %+v", s.Status())
		}
	}
	if !found {
		t.Fatal("mutation span not recorded")
	}
}

func TestCreateTaskInvalidatesLists(t *testing.T) {
	ct := newClientTest(t, nil)
	ct.login(t)
	ct.seedTask(t)
	ctx := context.Background()

	created, err := ct.client.CreateTask(ctx, model.CreateTaskRequest{Title: "new", ExecutorID: "u1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !ct.inspect(t, keyTaskPage("u1", TaskListParams{})).Invalidated {
		t.Fatal("task lists should be stale")
	}
	tasks, err := ct.client.UserTasks(ctx, TaskListParams{})
	if err != nil || len(tasks) != 2 || tasks[1].ID != created.ID {
		t.Fatalf("list after create: %+v %v", tasks, err)
	}
}

func TestWatchTasks(t *testing.T) {
	ct := newClientTest(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gotErr error
	ct.client.WatchTasks(ctx, TaskListParams{}, func(_ []model.Task, err error) { gotErr = err })
	if !errors.Is(gotErr, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", gotErr)
	}

	ct.login(t)
	updates := make(chan []model.Task, 8)
	stop := ct.client.WatchTasks(ctx, TaskListParams{}, func(tasks []model.Task, err error) {
		if err == nil {
			updates <- tasks
		}
	})
	defer stop()

	select {
	case tasks := <-updates:
		if len(tasks) != 0 {
			t.Fatalf("expected empty list, got %+v", tasks)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial update")
	}

	if _, err := ct.client.CreateTask(ctx, model.CreateTaskRequest{Title: "watched", ExecutorID: "u1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case tasks := <-updates:
			if len(tasks) == 1 {
				return
			}
		case <-deadline:
			t.Fatal("watched list never picked up the new task")
		}
	}
}
