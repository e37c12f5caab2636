package model

import "strings"

// TaskStatus is one column of the task board.
type TaskStatus struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TaskFile links a file to a task.
type TaskFile struct {
	TaskID int64 `json:"taskId"`
	FileID int64 `json:"fileId"`
	File   *File `json:"file,omitempty"`
}

// Task is the client-side task representation shared by list and detail
// cache entries.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatorID   string     `json:"creatorId"`
	ExecutorID  string     `json:"executorId,omitempty"`
	ChatID      string     `json:"chatId,omitempty"`
	CreatedAt   string     `json:"createdAt"`
	Files       []TaskFile `json:"files,omitempty"`
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	out := t
	if t.Files != nil {
		out.Files = make([]TaskFile, len(t.Files))
		for i, f := range t.Files {
			out.Files[i] = f
			if f.File != nil {
				file := *f.File
				out.Files[i].File = &file
			}
		}
	}
	return out
}

// TaskToList is a row of GET /users/:id/tasks. Status carries the status
// name, not its id.
type TaskToList struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// TaskResponse is the task body inside TaskServiceResponse.
type TaskResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CreatorID   string     `json:"creatorID"`
	ExecutorID  string     `json:"executorID,omitempty"`
	ChatID      string     `json:"chatID,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   string     `json:"createdAt"`
}

// TaskServiceResponse is returned by GET /tasks/:id.
type TaskServiceResponse struct {
	Task  *TaskResponse `json:"task"`
	Files []File        `json:"files,omitempty"`
}

// ToTask converts the detail response into a Task, attaching files.
func (r TaskServiceResponse) ToTask() Task {
	if r.Task == nil {
		return Task{}
	}
	t := Task{
		ID:          r.Task.ID,
		Title:       r.Task.Title,
		Description: r.Task.Description,
		Status:      r.Task.Status,
		CreatorID:   r.Task.CreatorID,
		ExecutorID:  r.Task.ExecutorID,
		ChatID:      r.Task.ChatID,
		CreatedAt:   r.Task.CreatedAt,
	}
	for _, f := range r.Files {
		file := f
		t.Files = append(t.Files, TaskFile{TaskID: t.ID, FileID: f.ID, File: &file})
	}
	return t
}

// JoinStatus resolves a list row against the statuses catalog. Names match
// case-insensitively; an unknown name yields a status with id 0 that keeps
// the raw name.
func (r TaskToList) JoinStatus(statuses []TaskStatus) Task {
	status := TaskStatus{Name: r.Status}
	want := strings.ToLower(r.Status)
	for _, s := range statuses {
		if strings.ToLower(s.Name) == want {
			status = s
			break
		}
	}
	return Task{
		ID:        r.ID,
		Title:     r.Title,
		Status:    status,
		CreatedAt: r.CreatedAt,
	}
}

// CreateTaskRequest carries the multipart fields of POST /tasks.
type CreateTaskRequest struct {
	Title       string
	Description string
	ExecutorID  string
	ChatID      string
	Files       []Upload
}
