package testbackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MrEthical07/goTeam/model"
)

func (b *Backend) roleLocked(id int64) *model.Role {
	for i := range b.roles {
		if b.roles[i].ID == id {
			role := b.roles[i]
			role.Permissions = append([]model.Permission(nil), role.Permissions...)
			return &role
		}
	}
	return nil
}

func (b *Backend) userResponseLocked(acc *account) model.UserResponse {
	return model.UserResponse{User: *acc.user.Clone(), File: acc.avatar}
}

func (b *Backend) login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	b.mu.Lock()
	var found *account
	for _, acc := range b.accounts {
		if (acc.login == req.Login || acc.user.Email == req.Login) && acc.password == req.Password {
			found = acc
			break
		}
	}
	b.mu.Unlock()
	if found == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := b.tokens.Issue(found.user.ID, found.user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, model.LoginResponse{Token: token, UserID: found.user.ID})
}

func (b *Backend) register(c *gin.Context) {
	var req model.RegisterRequest
	if err := json.Unmarshal([]byte(c.PostForm("data")), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data field"})
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username, email and password are required"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.login == req.Username || acc.user.Email == req.Email {
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
			return
		}
	}
	user := model.User{
		ID:          uuid.NewString(),
		Username:    req.Username,
		Email:       req.Email,
		Description: req.Description,
		Gender:      req.Gender,
		Age:         req.Age,
		Role:        b.roleLocked(req.RoleID),
	}
	acc := &account{user: user, login: req.Username, password: req.Password}
	if fh, err := c.FormFile("file"); err == nil {
		acc.avatar = &model.File{ID: time.Now().UnixNano(), Name: fh.Filename, URL: "/files/" + fh.Filename}
	}
	b.accounts[user.ID] = acc
	c.JSON(http.StatusCreated, gin.H{"id": user.ID})
}

func (b *Backend) logout(c *gin.Context) {
	b.mu.Lock()
	b.revoked[c.GetString("jti")] = struct{}{}
	b.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (b *Backend) me(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.accounts[c.GetString("uid")]
	c.JSON(http.StatusOK, b.userResponseLocked(acc))
}

func (b *Backend) updateMe(c *gin.Context) {
	var req model.UpdateUserRequest
	if err := json.Unmarshal([]byte(c.PostForm("data")), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data field"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.accounts[c.GetString("uid")]
	if req.Username != "" {
		acc.user.Username = req.Username
	}
	if req.Description != "" {
		acc.user.Description = req.Description
	}
	if req.Gender != "" {
		acc.user.Gender = req.Gender
	}
	if req.Age != nil {
		age := *req.Age
		acc.user.Age = &age
	}
	if req.RoleID != nil {
		acc.user.Role = b.roleLocked(*req.RoleID)
	}
	if fh, err := c.FormFile("file"); err == nil {
		acc.avatar = &model.File{ID: time.Now().UnixNano(), Name: fh.Filename, URL: "/files/" + fh.Filename}
	}
	c.JSON(http.StatusOK, b.userResponseLocked(acc))
}

func (b *Backend) searchUsers(c *gin.Context) {
	query := strings.ToLower(c.Query("query"))
	b.mu.Lock()
	defer b.mu.Unlock()
	results := []model.UserSearchResult{}
	for _, acc := range b.accounts {
		if query == "" {
			continue
		}
		if strings.Contains(strings.ToLower(acc.user.Username), query) || strings.Contains(strings.ToLower(acc.user.Email), query) {
			results = append(results, model.UserSearchResult{ID: acc.user.ID, Username: acc.user.Username, Email: acc.user.Email, AvatarFile: acc.avatar})
		}
	}
	c.JSON(http.StatusOK, model.UserSearchResponse{Users: results})
}

func (b *Backend) userByID(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, b.userResponseLocked(acc))
}

func (b *Backend) listRoles(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.roles)
}

func (b *Backend) createRole(c *gin.Context) {
	var req model.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	role := model.Role{ID: int64(len(b.roles) + 1), Name: req.Name, Description: req.Description}
	for _, id := range req.PermissionIDs {
		for _, p := range b.perms {
			if p.ID == id {
				role.Permissions = append(role.Permissions, p)
			}
		}
	}
	b.roles = append(b.roles, role)
	c.JSON(http.StatusCreated, role)
}

func (b *Backend) listPermissions(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.perms)
}
