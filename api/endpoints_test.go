package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/MrEthical07/goTeam/model"
)

func TestRegisterThenLogin(t *testing.T) {
	at := newAPITest(t, nil)
	ctx := context.Background()

	err := at.client.Register(ctx, model.RegisterRequest{
		Username:    "bob",
		Email:       "bob@example.com",
		Password:    "pw",
		Description: "  ",
	}, &model.Upload{Name: "bob.png", Content: []byte("png")})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp, err := at.client.Login(ctx, "bob@example.com", "pw")
	if err != nil {
		t.Fatalf("login as new user: %v", err)
	}
	at.tokens.set(resp.Token)

	me, err := at.client.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.User.Username != "bob" || me.User.Description != "" {
		t.Fatalf("unexpected user %+v", me.User)
	}
	if me.User.Role == nil || me.User.Role.ID != DefaultRoleID {
		t.Fatalf("expected default role, got %+v", me.User.Role)
	}
	if me.File == nil || me.File.Name != "bob.png" {
		t.Fatalf("expected avatar file, got %+v", me.File)
	}
}

func TestTaskEndpoints(t *testing.T) {
	at := newAPITest(t, nil)
	at.login(t)
	ctx := context.Background()

	statuses, err := at.client.TaskStatuses(ctx)
	if err != nil || len(statuses) == 0 {
		t.Fatalf("statuses: %v %v", statuses, err)
	}

	created, err := at.client.CreateTask(ctx, model.CreateTaskRequest{
		Title:      "ship",
		ExecutorID: "u1",
		Files:      []model.Upload{{Name: "spec.txt", Content: []byte("hi")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.CreatorID != "u1" {
		t.Fatalf("unexpected created task %+v", created)
	}

	rows, err := at.client.UserTasks(ctx, "u1", Page{Limit: 10})
	if err != nil {
		t.Fatalf("user tasks: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != statuses[0].Name {
		t.Fatalf("unexpected rows %+v", rows)
	}

	if err := at.client.UpdateTaskStatus(ctx, created.ID, statuses[1].ID); err != nil {
		t.Fatalf("update status: %v", err)
	}
	detail, err := at.client.Task(ctx, created.ID)
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if task := detail.ToTask(); task.Status.ID != statuses[1].ID {
		t.Fatalf("status not updated: %+v", task)
	}

	if err := at.client.UpdateTaskStatus(ctx, created.ID, 999); !IsValidation(err) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestChatEndpoints(t *testing.T) {
	at := newAPITest(t, nil)
	at.login(t)
	ctx := context.Background()
	bob := at.backend.AddUser(model.User{ID: "u2", Username: "bob"}, "bob", "pw")

	created, err := at.client.CreateChat(ctx, model.CreateChatRequest{Name: "general", OwnerID: "u1", UserIDs: []string{bob.ID}})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	chats, err := at.client.UserChats(ctx, "u1")
	if err != nil || len(chats) != 1 || chats[0].ID != created.ID {
		t.Fatalf("user chats: %+v %v", chats, err)
	}

	sent, err := at.client.SendMessage(ctx, created.ID, "hello world", []model.Upload{{Name: "a.txt", Content: []byte("a")}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Content != "hello world" || len(sent.Files) != 1 {
		t.Fatalf("unexpected sent message %+v", sent)
	}
	if _, err := at.client.SendMessage(ctx, created.ID, "second", nil); err != nil {
		t.Fatalf("send second: %v", err)
	}

	page, err := at.client.Messages(ctx, created.ID, Page{Limit: 1, Offset: 1})
	if err != nil || len(page) != 1 || page[0].Content != "second" {
		t.Fatalf("messages page: %+v %v", page, err)
	}
	found, err := at.client.SearchMessages(ctx, created.ID, "world", Page{})
	if err != nil || found.Total == nil || *found.Total != 1 {
		t.Fatalf("search: %+v %v", found, err)
	}

	desc := "all hands"
	updated, err := at.client.UpdateChat(ctx, created.ID, model.UpdateChatRequest{Description: &desc, Avatar: &model.Upload{Name: "g.png", Content: []byte("g")}})
	if err != nil {
		t.Fatalf("update chat: %v", err)
	}
	if chat := updated.WithAvatar(); chat.Description != desc || chat.Avatar == nil {
		t.Fatalf("unexpected updated chat %+v", chat)
	}

	role, err := at.client.MyChatRole(ctx, created.ID)
	if err != nil || role.RoleName != "owner" {
		t.Fatalf("my role: %+v %v", role, err)
	}
	if err := at.client.ChangeUserRole(ctx, created.ID, model.ChangeChatRoleRequest{UserID: bob.ID, RoleID: 1}); err != nil {
		t.Fatalf("change role: %v", err)
	}
	members, err := at.client.ChatMembers(ctx, created.ID)
	if err != nil || len(members) != 2 || members[1].RoleName != "owner" {
		t.Fatalf("members: %+v %v", members, err)
	}
	if err := at.client.BanUser(ctx, created.ID, bob.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}

	roles, err := at.client.ChatRoles(ctx)
	if err != nil || len(roles) == 0 {
		t.Fatalf("chat roles: %v %v", roles, err)
	}
	if _, err := at.client.ChatRole(ctx, roles[0].ID); err != nil {
		t.Fatalf("chat role: %v", err)
	}

	if err := at.client.DeleteChat(ctx, created.ID); err != nil {
		t.Fatalf("delete chat: %v", err)
	}
	if got := at.backend.Calls(http.MethodDelete, "/chats/:id"); got != 1 {
		t.Fatalf("expected one delete call, got %d", got)
	}
}

func TestUserAndCatalogEndpoints(t *testing.T) {
	at := newAPITest(t, nil)
	at.login(t)
	ctx := context.Background()

	results, err := at.client.SearchUsers(ctx, "ali")
	if err != nil || len(results) != 1 || results[0].ID != "u1" {
		t.Fatalf("search users: %+v %v", results, err)
	}
	empty, err := at.client.SearchUsers(ctx, "zzz")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v %v", empty, err)
	}

	age := 30
	updated, err := at.client.UpdateMe(ctx, model.UpdateUserRequest{Description: "hi", Age: &age}, nil)
	if err != nil {
		t.Fatalf("update me: %v", err)
	}
	if updated.User.Description != "hi" || updated.User.Age == nil || *updated.User.Age != 30 {
		t.Fatalf("unexpected update result %+v", updated.User)
	}

	other, err := at.client.User(ctx, "u1")
	if err != nil || other.User.Username != "alice" {
		t.Fatalf("user by id: %+v %v", other, err)
	}
	if _, err := at.client.User(ctx, "missing"); StatusCode(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}

	roles, err := at.client.Roles(ctx)
	if err != nil || len(roles) < 2 {
		t.Fatalf("roles: %v %v", roles, err)
	}
	if err := at.client.CreateRole(ctx, model.CreateRoleRequest{Name: "auditor", PermissionIDs: []int64{2}}); err != nil {
		t.Fatalf("create role: %v", err)
	}
	perms, err := at.client.Permissions(ctx)
	if err != nil || len(perms) == 0 {
		t.Fatalf("permissions: %v %v", perms, err)
	}

	if err := at.client.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := at.client.Me(ctx); !IsUnauthorized(err) {
		t.Fatalf("revoked token should be rejected, got %v", err)
	}
}
