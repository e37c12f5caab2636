package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/MrEthical07/goTeam/model"
)

// UserChats lists the chats a user belongs to.
func (c *Client) UserChats(ctx context.Context, userID string) ([]model.Chat, error) {
	var out []model.Chat
	id, err := pathEscape(userID)
	if err != nil {
		return nil, err
	}
	err = c.do(ctx, request{
		op:     "chats.list",
		method: http.MethodGet,
		route:  "/chats/:userId",
		path:   "/chats/" + id,
	}, &out)
	return out, err
}

// CreateChat creates a chat. UserIDs travel as one comma-separated field,
// sent empty when there are none.
func (c *Client) CreateChat(ctx context.Context, req model.CreateChatRequest) (model.CreateChatResponse, error) {
	var out model.CreateChatResponse
	err := c.do(ctx, request{
		op:     "chats.create",
		method: http.MethodPost,
		route:  "/chats",
		path:   "/chats",
		form: newForm().
			field("name", req.Name).
			field("ownerID", req.OwnerID).
			csv("userIDs", req.UserIDs).
			fieldIf("description", req.Description).
			file("avatar", req.Avatar),
	}, &out)
	return out, err
}

// UpdateChat edits a chat and returns the server representation.
func (c *Client) UpdateChat(ctx context.Context, chatID string, req model.UpdateChatRequest) (model.GetChatResponse, error) {
	var out model.GetChatResponse
	id, err := pathEscape(chatID)
	if err != nil {
		return out, err
	}
	f := newForm().fieldIf("name", req.Name)
	if req.Description != nil {
		f.field("description", *req.Description)
	}
	if len(req.AddUserIDs) > 0 {
		f.csv("addUserIDs", req.AddUserIDs)
	}
	if len(req.RemoveUserIDs) > 0 {
		f.csv("removeUserIDs", req.RemoveUserIDs)
	}
	f.file("avatar", req.Avatar)

	err = c.do(ctx, request{
		op:     "chats.update",
		method: http.MethodPut,
		route:  "/chats/:id",
		path:   "/chats/" + id,
		form:   f,
	}, &out)
	return out, err
}

// DeleteChat removes a chat.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	id, err := pathEscape(chatID)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     "chats.delete",
		method: http.MethodDelete,
		route:  "/chats/:id",
		path:   "/chats/" + id,
	}, nil)
}

// BanUser bans a member from a chat.
func (c *Client) BanUser(ctx context.Context, chatID, userID string) error {
	cid, err := pathEscape(chatID)
	if err != nil {
		return err
	}
	uid, err := pathEscape(userID)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     "chats.ban",
		method: http.MethodPatch,
		route:  "/chats/:id/ban/:userId",
		path:   "/chats/" + cid + "/ban/" + uid,
	}, nil)
}

// ChangeUserRole assigns a chat role to a member.
func (c *Client) ChangeUserRole(ctx context.Context, chatID string, req model.ChangeChatRoleRequest) error {
	id, err := pathEscape(chatID)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     "chats.change_role",
		method: http.MethodPatch,
		route:  "/chats/:id/roles/change",
		path:   "/chats/" + id + "/roles/change",
		json:   req,
	}, nil)
}

// Messages returns a page of a chat's messages.
func (c *Client) Messages(ctx context.Context, chatID string, page Page) ([]model.Message, error) {
	var out []model.Message
	id, err := pathEscape(chatID)
	if err != nil {
		return nil, err
	}
	err = c.do(ctx, request{
		op:     "messages.list",
		method: http.MethodGet,
		route:  "/chats/messages/:chatId",
		path:   "/chats/messages/" + id,
		query:  page.values(),
	}, &out)
	return out, err
}

// SendMessage posts a message with optional attachments.
func (c *Client) SendMessage(ctx context.Context, chatID, content string, files []model.Upload) (model.Message, error) {
	var out model.Message
	id, err := pathEscape(chatID)
	if err != nil {
		return out, err
	}
	f := newForm().field("content", content)
	for i := range files {
		f.file("files", &files[i])
	}
	err = c.do(ctx, request{
		op:     "messages.send",
		method: http.MethodPost,
		route:  "/chats/messages/:chatId",
		path:   "/chats/messages/" + id,
		form:   f,
	}, &out)
	return out, err
}

// SearchMessages runs a full-text search inside one chat.
func (c *Client) SearchMessages(ctx context.Context, chatID, query string, page Page) (model.SearchMessagesResponse, error) {
	var out model.SearchMessagesResponse
	id, err := pathEscape(chatID)
	if err != nil {
		return out, err
	}
	q := page.values()
	q.Set("query", query)
	err = c.do(ctx, request{
		op:     "messages.search",
		method: http.MethodGet,
		route:  "/chats/search/:chatId",
		path:   "/chats/search/" + id,
		query:  q,
	}, &out)
	return out, err
}

// MyChatRole returns the caller's role in a chat.
func (c *Client) MyChatRole(ctx context.Context, chatID string) (model.MyChatRole, error) {
	var out model.MyChatRole
	id, err := pathEscape(chatID)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, request{
		op:     "chats.my_role",
		method: http.MethodGet,
		route:  "/chats/me/role/:chatId",
		path:   "/chats/me/role/" + id,
	}, &out)
	return out, err
}

// ChatMembers lists a chat's members with their roles.
func (c *Client) ChatMembers(ctx context.Context, chatID string) ([]model.ChatMember, error) {
	var out []model.ChatMember
	id, err := pathEscape(chatID)
	if err != nil {
		return nil, err
	}
	err = c.do(ctx, request{
		op:     "chats.members",
		method: http.MethodGet,
		route:  "/chats/members/:chatId",
		path:   "/chats/members/" + id,
	}, &out)
	return out, err
}

// ChatRoles lists the chat role catalog.
func (c *Client) ChatRoles(ctx context.Context) ([]model.ChatRole, error) {
	var out []model.ChatRole
	err := c.do(ctx, request{
		op:     "chat_roles.list",
		method: http.MethodGet,
		route:  "/chat-roles",
		path:   "/chat-roles",
	}, &out)
	return out, err
}

// ChatRole returns one chat role.
func (c *Client) ChatRole(ctx context.Context, roleID int64) (model.ChatRole, error) {
	var out model.ChatRole
	err := c.do(ctx, request{
		op:     "chat_roles.get",
		method: http.MethodGet,
		route:  "/chat-roles/:id",
		path:   "/chat-roles/" + strconv.FormatInt(roleID, 10),
	}, &out)
	return out, err
}
