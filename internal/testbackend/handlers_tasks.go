package testbackend

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MrEthical07/goTeam/model"
)

func pageBounds(c *gin.Context, n int) (int, int) {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	if offset < 0 || offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

func (b *Backend) listStatuses(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.statuses)
}

func (b *Backend) taskByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	task := *t
	c.JSON(http.StatusOK, model.TaskServiceResponse{Task: &task})
}

func (b *Backend) updateTaskStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	statusID, err := strconv.ParseInt(c.Param("statusId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status id"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	for _, s := range b.statuses {
		if s.ID == statusID {
			t.Status = s
			c.JSON(http.StatusOK, gin.H{"message": "status updated"})
			return
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
}

func (b *Backend) createTask(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextTask++
	task := &model.TaskResponse{
		ID:          b.nextTask,
		Title:       title,
		Description: c.PostForm("description"),
		CreatorID:   c.GetString("uid"),
		ExecutorID:  c.PostForm("executor_id"),
		ChatID:      c.PostForm("chat_id"),
		Status:      b.statuses[0],
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	b.tasks[task.ID] = task
	b.taskIDs = append(b.taskIDs, task.ID)
	c.JSON(http.StatusCreated, task)
}

func (b *Backend) userTasks(c *gin.Context) {
	userID := c.Param("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	rows := []model.TaskToList{}
	for _, id := range b.taskIDs {
		t := b.tasks[id]
		if t.CreatorID != userID && t.ExecutorID != userID {
			continue
		}
		rows = append(rows, model.TaskToList{ID: t.ID, Title: t.Title, Status: t.Status.Name, CreatedAt: t.CreatedAt})
	}
	start, end := pageBounds(c, len(rows))
	c.JSON(http.StatusOK, rows[start:end])
}
