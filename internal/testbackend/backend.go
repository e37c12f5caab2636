// Package testbackend is an in-process fake of the team REST API for tests.
// It serves every endpoint the client uses under /api/v1, issues real HS256
// tokens, and lets tests inject failures, hold requests open and count calls.
package testbackend

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MrEthical07/goTeam/jwt"
	"github.com/MrEthical07/goTeam/model"
)

const apiPrefix = "/api/v1"

type account struct {
	user     model.User
	login    string
	password string
	avatar   *model.File
}

type failure struct {
	status int
	body   gin.H
	once   bool
}

// Backend is the fake server. All exported methods are safe for concurrent
// use with in-flight requests.
type Backend struct {
	Server *httptest.Server
	tokens *jwt.Manager

	mu       sync.Mutex
	accounts map[string]*account
	roles    []model.Role
	perms    []model.Permission
	statuses []model.TaskStatus
	tasks    map[int64]*model.TaskResponse
	taskIDs  []int64
	nextTask int64
	chats    map[string]*model.Chat
	chatIDs  []string
	owners   map[string]string
	messages map[string][]model.Message
	chatRole []model.ChatRole
	members  map[string][]model.ChatMember
	revoked  map[string]struct{}

	failures map[string]failure
	holds    map[string]chan struct{}
	calls    map[string]int
	headers  map[string]http.Header
}

// New starts a Backend with the default status and role catalogs.
func New() *Backend {
	gin.SetMode(gin.TestMode)

	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(uuid.NewString()),
		Issuer:        "testbackend",
	})
	if err != nil {
		panic(err)
	}

	b := &Backend{
		tokens:   tokens,
		accounts: make(map[string]*account),
		tasks:    make(map[int64]*model.TaskResponse),
		nextTask: 100,
		chats:    make(map[string]*model.Chat),
		owners:   make(map[string]string),
		messages: make(map[string][]model.Message),
		members:  make(map[string][]model.ChatMember),
		revoked:  make(map[string]struct{}),
		failures: make(map[string]failure),
		holds:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
		headers:  make(map[string]http.Header),
	}
	b.seedCatalogs()
	b.Server = httptest.NewServer(b.router())
	return b
}

func (b *Backend) seedCatalogs() {
	b.perms = []model.Permission{
		{ID: 1, Name: "process_your_acc"},
		{ID: 2, Name: "watch_users"},
		{ID: 3, Name: "process_chats"},
		{ID: 4, Name: "process_tasks"},
		{ID: 5, Name: "get_permissions"},
		{ID: 6, Name: "process_roles"},
	}
	b.roles = []model.Role{
		{ID: 1, Name: "admin", Permissions: append([]model.Permission(nil), b.perms...)},
		{ID: 2, Name: "member", Permissions: []model.Permission{b.perms[0], b.perms[3]}},
	}
	b.statuses = []model.TaskStatus{
		{ID: 1, Name: "created"},
		{ID: 2, Name: "in_progress"},
		{ID: 3, Name: "done"},
	}
	b.chatRole = []model.ChatRole{
		{ID: 1, Name: "owner", Permissions: []model.ChatPermission{{ID: 1, Name: "edit_chat"}, {ID: 2, Name: "delete_chat"}, {ID: 5, Name: "send_message"}}},
		{ID: 2, Name: "member", Permissions: []model.ChatPermission{{ID: 5, Name: "send_message"}}},
	}
}

// URL returns the server root. Clients append the /api/v1 prefix.
func (b *Backend) URL() string { return b.Server.URL }

// Close releases held requests and stops the server.
func (b *Backend) Close() {
	b.mu.Lock()
	for key, ch := range b.holds {
		close(ch)
		delete(b.holds, key)
	}
	b.mu.Unlock()
	b.Server.Close()
}

// AddUser registers an account and returns its user with the id filled in.
func (b *Backend) AddUser(user model.User, login, password string) model.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Username == "" {
		user.Username = login
	}
	b.accounts[user.ID] = &account{user: user, login: login, password: password}
	return user
}

// Token issues a valid token for userID without a login round trip.
func (b *Backend) Token(userID string) string {
	b.mu.Lock()
	username := ""
	if acc, ok := b.accounts[userID]; ok {
		username = acc.user.Username
	}
	b.mu.Unlock()
	token, err := b.tokens.Issue(userID, username)
	if err != nil {
		panic(err)
	}
	return token
}

// Statuses returns the status catalog.
func (b *Backend) Statuses() []model.TaskStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.TaskStatus(nil), b.statuses...)
}

// AddTask stores a task and returns its id.
func (b *Backend) AddTask(task model.TaskResponse) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if task.ID == 0 {
		b.nextTask++
		task.ID = b.nextTask
	}
	if task.CreatedAt == "" {
		task.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	t := task
	b.tasks[t.ID] = &t
	b.taskIDs = append(b.taskIDs, t.ID)
	return t.ID
}

// TaskStatus returns the stored status of a task.
func (b *Backend) TaskStatus(taskID int64) (model.TaskStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[taskID]
	if !ok {
		return model.TaskStatus{}, false
	}
	return t.Status, true
}

// AddChat stores a chat owned by ownerID with the given members.
func (b *Backend) AddChat(chat model.Chat, ownerID string, memberIDs ...string) model.Chat {
	b.mu.Lock()
	defer b.mu.Unlock()
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	if chat.CreatedAt == "" {
		chat.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	c := chat
	b.chats[c.ID] = &c
	b.chatIDs = append(b.chatIDs, c.ID)
	b.owners[c.ID] = ownerID
	b.members[c.ID] = []model.ChatMember{{UserID: ownerID, RoleID: 1, RoleName: "owner"}}
	for _, id := range memberIDs {
		b.members[c.ID] = append(b.members[c.ID], model.ChatMember{UserID: id, RoleID: 2, RoleName: "member"})
	}
	return c
}

// AddMessage appends a message to a chat.
func (b *Backend) AddMessage(chatID, senderID, content string) model.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appendMessageLocked(chatID, senderID, content)
}

func (b *Backend) appendMessageLocked(chatID, senderID, content string) model.Message {
	sender := senderID
	msg := model.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  &sender,
		Content:   content,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	b.messages[chatID] = append(b.messages[chatID], msg)
	return msg
}

// Fail makes every request matching method and route (a gin route such as
// "/tasks/:id") answer with status and body until Reset.
func (b *Backend) Fail(method, route string, status int, body gin.H) {
	b.mu.Lock()
	b.failures[method+" "+route] = failure{status: status, body: body}
	b.mu.Unlock()
}

// FailOnce is [Backend.Fail] for the next matching request only.
func (b *Backend) FailOnce(method, route string, status int, body gin.H) {
	b.mu.Lock()
	b.failures[method+" "+route] = failure{status: status, body: body, once: true}
	b.mu.Unlock()
}

// Hold blocks matching requests until the returned function is called.
func (b *Backend) Hold(method, route string) (release func()) {
	ch := make(chan struct{})
	key := method + " " + route
	b.mu.Lock()
	b.holds[key] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.holds[key] == ch {
				delete(b.holds, key)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Reset clears injected failures.
func (b *Backend) Reset() {
	b.mu.Lock()
	b.failures = make(map[string]failure)
	b.mu.Unlock()
}

// Calls returns how many requests hit method and route.
func (b *Backend) Calls(method, route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+route]
}

// LastHeader returns a header of the most recent request to method and route.
func (b *Backend) LastHeader(method, route, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.headers[method+" "+route]
	if !ok {
		return ""
	}
	return h.Get(name)
}

// instrument records the call, then applies holds and injected failures.
func (b *Backend) instrument(c *gin.Context) {
	key := c.Request.Method + " " + strings.TrimPrefix(c.FullPath(), apiPrefix)

	b.mu.Lock()
	b.calls[key]++
	b.headers[key] = c.Request.Header.Clone()
	hold := b.holds[key]
	f, failing := b.failures[key]
	if failing && f.once {
		delete(b.failures, key)
	}
	b.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	if failing {
		c.AbortWithStatusJSON(f.status, f.body)
		return
	}
	c.Next()
}

// authenticate requires a valid, unrevoked bearer token and stores the user
// id under "uid".
func (b *Backend) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := b.tokens.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	b.mu.Lock()
	_, revoked := b.revoked[claims.ID]
	_, exists := b.accounts[claims.Subject]
	b.mu.Unlock()
	if revoked || !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Set("uid", claims.Subject)
	c.Set("jti", claims.ID)
	c.Next()
}

func (b *Backend) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group(apiPrefix, b.instrument)
	v1.POST("/auth/login", b.login)
	v1.POST("/auth/register", b.register)

	authed := v1.Group("", b.authenticate)
	authed.POST("/auth/logout", b.logout)

	authed.GET("/users/me", b.me)
	authed.PUT("/users/me", b.updateMe)
	authed.GET("/users/search", b.searchUsers)
	authed.GET("/users/:id", b.userByID)
	authed.GET("/users/:id/tasks", b.userTasks)
	authed.GET("/roles", b.listRoles)
	authed.POST("/roles", b.createRole)
	authed.GET("/permissions", b.listPermissions)

	authed.GET("/tasks/statuses", b.listStatuses)
	authed.GET("/tasks/:id", b.taskByID)
	authed.PATCH("/tasks/:id/status/:statusId", b.updateTaskStatus)
	authed.POST("/tasks", b.createTask)

	authed.GET("/chats/:id", b.userChats)
	authed.POST("/chats", b.createChat)
	authed.PUT("/chats/:id", b.updateChat)
	authed.DELETE("/chats/:id", b.deleteChat)
	authed.PATCH("/chats/:id/ban/:userId", b.banUser)
	authed.PATCH("/chats/:id/roles/change", b.changeRole)
	authed.GET("/chats/messages/:chatId", b.listMessages)
	authed.POST("/chats/messages/:chatId", b.sendMessage)
	authed.GET("/chats/search/:chatId", b.searchMessages)
	authed.GET("/chats/me/role/:chatId", b.myRole)
	authed.GET("/chats/members/:chatId", b.chatMembers)
	authed.GET("/chat-roles", b.listChatRoles)
	authed.GET("/chat-roles/:id", b.chatRoleByID)
	return r
}
