package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/goTeam/model"
)

// Page selects a window of a paginated list. Zero fields are not sent.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

// TaskStatuses returns the status catalog.
func (c *Client) TaskStatuses(ctx context.Context) ([]model.TaskStatus, error) {
	var out []model.TaskStatus
	err := c.do(ctx, request{
		op:     "tasks.statuses",
		method: http.MethodGet,
		route:  "/tasks/statuses",
		path:   "/tasks/statuses",
	}, &out)
	return out, err
}

// Task returns one task with its files.
func (c *Client) Task(ctx context.Context, taskID int64) (model.TaskServiceResponse, error) {
	var out model.TaskServiceResponse
	err := c.do(ctx, request{
		op:     "tasks.get",
		method: http.MethodGet,
		route:  "/tasks/:id",
		path:   "/tasks/" + strconv.FormatInt(taskID, 10),
	}, &out)
	return out, err
}

// UpdateTaskStatus moves a task to another status.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID, statusID int64) error {
	return c.do(ctx, request{
		op:     "tasks.update_status",
		method: http.MethodPatch,
		route:  "/tasks/:id/status/:statusId",
		path:   "/tasks/" + strconv.FormatInt(taskID, 10) + "/status/" + strconv.FormatInt(statusID, 10),
	}, nil)
}

// CreateTask creates a task with optional attachments.
func (c *Client) CreateTask(ctx context.Context, req model.CreateTaskRequest) (model.TaskResponse, error) {
	f := newForm().
		field("title", req.Title).
		fieldIf("description", req.Description).
		fieldIf("executor_id", req.ExecutorID).
		fieldIf("chat_id", req.ChatID)
	for i := range req.Files {
		f.file("files", &req.Files[i])
	}

	var out model.TaskResponse
	err := c.do(ctx, request{
		op:     "tasks.create",
		method: http.MethodPost,
		route:  "/tasks",
		path:   "/tasks",
		form:   f,
	}, &out)
	return out, err
}

// UserTasks lists the tasks of a user. Status is delivered by name.
func (c *Client) UserTasks(ctx context.Context, userID string, page Page) ([]model.TaskToList, error) {
	var out []model.TaskToList
	id, err := pathEscape(userID)
	if err != nil {
		return nil, err
	}
	err = c.do(ctx, request{
		op:     "tasks.list",
		method: http.MethodGet,
		route:  "/users/:id/tasks",
		path:   "/users/" + id + "/tasks",
		query:  page.values(),
	}, &out)
	return out, err
}
