package goTeam

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/MrEthical07/goTeam/api"
	"github.com/MrEthical07/goTeam/cache"
	"github.com/MrEthical07/goTeam/internal/notify"
	"github.com/MrEthical07/goTeam/model"
)

func cloneMessages(msgs []model.Message) []model.Message {
	return model.CloneAll(msgs, model.Message.Clone)
}

// MessagePage is one page of a chat's history.
type MessagePage struct {
	Messages []model.Message
	// NextOffset is the offset of the following page: the number of
	// messages loaded so far.
	NextOffset int
	// Done is set when the page came back shorter than the page size.
	Done bool
}

// UserChats returns the chats the signed-in user belongs to.
func (c *Client) UserChats(ctx context.Context) ([]model.Chat, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	uid, err := c.userID()
	if err != nil {
		return nil, err
	}
	chats, err := cache.Fetch(ctx, c.cache, keyChatList(uid), c.policy(ResourceChatList), func(ctx context.Context) ([]model.Chat, error) {
		return c.api.UserChats(ctx, uid)
	})
	if err != nil {
		return nil, fmt.Errorf("user chats: %w", err)
	}
	return model.CloneAll(chats, model.Chat.Clone), nil
}

func (c *Client) messageLimit(limit int) int {
	if limit <= 0 {
		return c.config.Chat.MessageLimit
	}
	return limit
}

func (c *Client) recentMessagesFetcher(chatID string, limit int) func(context.Context) ([]model.Message, error) {
	return func(ctx context.Context) ([]model.Message, error) {
		return c.api.Messages(ctx, chatID, api.Page{Limit: limit})
	}
}

// ChatMessages returns the latest messages of a chat. A non-positive limit
// uses Config.Chat.MessageLimit.
func (c *Client) ChatMessages(ctx context.Context, chatID string, limit int) ([]model.Message, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	limit = c.messageLimit(limit)
	msgs, err := cache.Fetch(ctx, c.cache, keyRecentMessages(chatID, limit), c.policy(ResourceMessages), c.recentMessagesFetcher(chatID, limit))
	if err != nil {
		return nil, fmt.Errorf("chat messages: %w", err)
	}
	return cloneMessages(msgs), nil
}

// WatchMessages keeps an open chat view current. fn receives the latest
// messages now, after every change, and on every poll until ctx ends or
// stop is called.
func (c *Client) WatchMessages(ctx context.Context, chatID string, limit int, fn func([]model.Message, error)) (stop func()) {
	if err := c.ready(); err != nil {
		fn(nil, err)
		return func() {}
	}
	if strings.TrimSpace(chatID) == "" {
		fn(nil, api.ErrEmptyID)
		return func() {}
	}
	limit = c.messageLimit(limit)
	return c.cache.Watch(ctx, keyRecentMessages(chatID, limit), c.policy(ResourceMessages),
		cache.Adapt(c.recentMessagesFetcher(chatID, limit)), watchOf(fn, cloneMessages))
}

// LoadMessagePage loads the history page starting at offset. Pass the
// previous page's NextOffset to continue.
func (c *Client) LoadMessagePage(ctx context.Context, chatID string, offset int) (MessagePage, error) {
	if err := c.ready(); err != nil {
		return MessagePage{}, err
	}
	if offset < 0 {
		offset = 0
	}
	size := c.config.Chat.PageSize
	msgs, err := cache.Fetch(ctx, c.cache, keyMessagePage(chatID, offset, size), c.policy(ResourceMessagePages), func(ctx context.Context) ([]model.Message, error) {
		return c.api.Messages(ctx, chatID, api.Page{Limit: size, Offset: offset})
	})
	if err != nil {
		return MessagePage{}, fmt.Errorf("message page: %w", err)
	}
	return MessagePage{
		Messages:   cloneMessages(msgs),
		NextOffset: offset + len(msgs),
		Done:       len(msgs) < size,
	}, nil
}

// SendMessage posts a message. The returned message is appended to every
// cached recent-messages view of the chat, which is then marked stale.
// Sends are never retried.
func (c *Client) SendMessage(ctx context.Context, chatID, content string, files []model.Upload) (model.Message, error) {
	if err := c.ready(); err != nil {
		return model.Message{}, err
	}
	msg, err := c.api.SendMessage(ctx, chatID, content, files)
	if err != nil {
		return model.Message{}, c.fail(ctx, "send_message", "Message not sent", err)
	}

	recent := keyMessages(chatID).Append("recent")
	for _, key := range c.cache.Keys() {
		if !key.HasPrefix(recent) {
			continue
		}
		cache.UpdateOf(c.cache, key, func(msgs []model.Message) ([]model.Message, bool) {
			if slices.ContainsFunc(msgs, func(m model.Message) bool { return m.ID == msg.ID }) {
				return msgs, false
			}
			return append(slices.Clip(msgs), msg.Clone()), true
		})
	}
	c.cache.Invalidate(keyMessages(chatID))
	return msg, nil
}

// SearchMessages searches one chat. Queries shorter than
// Config.Search.MinQueryLength fail with ErrQueryTooShort without a request.
func (c *Client) SearchMessages(ctx context.Context, chatID, query string) (model.SearchMessagesResponse, error) {
	if err := c.ready(); err != nil {
		return model.SearchMessagesResponse{}, err
	}
	query = strings.TrimSpace(query)
	if !c.searchable(query) {
		return model.SearchMessagesResponse{}, ErrQueryTooShort
	}
	resp, err := cache.Fetch(ctx, c.cache, keyMessageSearch(chatID, query), c.policy(ResourceMessageSearch), func(ctx context.Context) (model.SearchMessagesResponse, error) {
		return c.api.SearchMessages(ctx, chatID, query, api.Page{})
	})
	if err != nil {
		return model.SearchMessagesResponse{}, fmt.Errorf("search messages: %w", err)
	}
	return resp.Clone(), nil
}

// CreateChat creates a chat and marks every cached chat list stale.
func (c *Client) CreateChat(ctx context.Context, req model.CreateChatRequest) (model.CreateChatResponse, error) {
	if err := c.ready(); err != nil {
		return model.CreateChatResponse{}, err
	}
	if req.OwnerID == "" {
		req.OwnerID = c.store.UserID()
	}
	resp, err := c.api.CreateChat(ctx, req)
	if err != nil {
		return model.CreateChatResponse{}, c.fail(ctx, "create_chat", "Chat not created", err)
	}
	c.cache.Invalidate(keyChatLists())
	c.notify(ctx, notify.LevelSuccess, "create_chat", "Chat created", resp.Name)
	return resp, nil
}

// UpdateChat saves chat settings. The server's copy replaces the cached
// chat detail and chat lists are marked stale.
func (c *Client) UpdateChat(ctx context.Context, chatID string, req model.UpdateChatRequest) (model.Chat, error) {
	if err := c.ready(); err != nil {
		return model.Chat{}, err
	}
	resp, err := c.api.UpdateChat(ctx, chatID, req)
	if err != nil {
		return model.Chat{}, c.fail(ctx, "update_chat", "Chat not saved", err)
	}
	chat := resp.WithAvatar()
	c.cache.Set(keyChatDetail(chatID), chat.Clone())
	c.cache.Invalidate(keyChatLists())
	if len(req.AddUserIDs) > 0 || len(req.RemoveUserIDs) > 0 {
		c.cache.Invalidate(keyChatMembers(chatID))
	}
	return chat, nil
}

// DeleteChat deletes a chat, drops everything cached under it and marks
// chat lists stale.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.api.DeleteChat(ctx, chatID); err != nil {
		return c.fail(ctx, "delete_chat", "Chat not deleted", err)
	}
	c.cache.Remove(keyChatDetail(chatID))
	c.cache.Invalidate(keyChatLists())
	return nil
}

// BanUser removes a member from a chat.
func (c *Client) BanUser(ctx context.Context, chatID, userID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.api.BanUser(ctx, chatID, userID); err != nil {
		return c.fail(ctx, "ban_user", "User not banned", err)
	}
	c.cache.Invalidate(keyChatDetail(chatID))
	return nil
}

// ChangeUserRole changes a member's role inside a chat.
func (c *Client) ChangeUserRole(ctx context.Context, chatID string, req model.ChangeChatRoleRequest) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.api.ChangeUserRole(ctx, chatID, req); err != nil {
		return c.fail(ctx, "change_user_role", "Role not changed", err)
	}
	c.cache.Invalidate(keyChatDetail(chatID))
	return nil
}

// MyChatRole returns the signed-in user's role in a chat.
func (c *Client) MyChatRole(ctx context.Context, chatID string) (model.MyChatRole, error) {
	if err := c.ready(); err != nil {
		return model.MyChatRole{}, err
	}
	role, err := cache.Fetch(ctx, c.cache, keyMyChatRole(chatID), c.policy(ResourceMyChatRole), func(ctx context.Context) (model.MyChatRole, error) {
		return c.api.MyChatRole(ctx, chatID)
	})
	if err != nil {
		return model.MyChatRole{}, fmt.Errorf("my chat role: %w", err)
	}
	return role.Clone(), nil
}

// HasChatPermission reports whether the signed-in user's role in chatID
// grants name.
func (c *Client) HasChatPermission(ctx context.Context, chatID, name string) (bool, error) {
	role, err := c.MyChatRole(ctx, chatID)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(role.Permissions, func(p model.ChatPermission) bool { return p.Name == name }), nil
}

func (c *Client) ChatMembers(ctx context.Context, chatID string) ([]model.ChatMember, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	members, err := cache.Fetch(ctx, c.cache, keyChatMembers(chatID), c.policy(ResourceChatMembers), func(ctx context.Context) ([]model.ChatMember, error) {
		return c.api.ChatMembers(ctx, chatID)
	})
	if err != nil {
		return nil, fmt.Errorf("chat members: %w", err)
	}
	return slices.Clone(members), nil
}

// ChatRoles returns the chat role catalog.
func (c *Client) ChatRoles(ctx context.Context) ([]model.ChatRole, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	roles, err := cache.Fetch(ctx, c.cache, keyChatRoleList(), c.policy(ResourceCatalog), c.api.ChatRoles)
	if err != nil {
		return nil, fmt.Errorf("chat roles: %w", err)
	}
	return model.CloneAll(roles, model.ChatRole.Clone), nil
}
