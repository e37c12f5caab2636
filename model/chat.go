package model

// ChatPermission is a capability inside a single chat.
type ChatPermission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ChatRole groups chat permissions.
type ChatRole struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Permissions []ChatPermission `json:"permissions"`
}

// ChatUser is a chat membership.
type ChatUser struct {
	ChatID   string   `json:"chatId"`
	UserID   string   `json:"userId"`
	Role     ChatRole `json:"role"`
	IsBanned bool     `json:"isBanned,omitempty"`
}

// Chat is a conversation. Avatar is attached client-side from the file record
// of GetChatResponse.
type Chat struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	IsGroup      bool       `json:"isGroup"`
	Description  string     `json:"description,omitempty"`
	AvatarFileID *int64     `json:"avatarFileID,omitempty"`
	AvatarFile   *File      `json:"avatarFile,omitempty"`
	CreatedAt    string     `json:"createdAt"`
	Users        []ChatUser `json:"users,omitempty"`
	Avatar       *File      `json:"avatar,omitempty"`
}

// GetChatResponse is returned by chat update.
type GetChatResponse struct {
	Chat Chat  `json:"chat"`
	File *File `json:"file"`
}

// WithAvatar flattens the envelope.
func (r GetChatResponse) WithAvatar() Chat {
	c := r.Chat
	if r.File != nil {
		f := *r.File
		c.Avatar = &f
	}
	return c
}

// CreateChatRequest carries the multipart fields of POST /chats.
type CreateChatRequest struct {
	Name        string
	Description string
	OwnerID     string
	UserIDs     []string
	Avatar      *Upload
}

// CreateChatResponse is returned by POST /chats.
type CreateChatResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	OwnerID      string   `json:"ownerID"`
	UserIDs      []string `json:"userIDs"`
	AvatarFileID *int64   `json:"avatarFileID,omitempty"`
}

// UpdateChatRequest carries the multipart fields of PUT /chats/:id. A nil
// Description leaves it untouched.
type UpdateChatRequest struct {
	Name          string
	Description   *string
	AddUserIDs    []string
	RemoveUserIDs []string
	Avatar        *Upload
}

// Message is a chat message.
type Message struct {
	ID        string  `json:"id"`
	ChatID    string  `json:"chatID"`
	SenderID  *string `json:"senderID,omitempty"`
	Content   string  `json:"content"`
	UpdatedAt *string `json:"updatedAt,omitempty"`
	CreatedAt string  `json:"createdAt"`
	Files     []File  `json:"files,omitempty"`
}

// SearchMessagesResponse is returned by GET /chats/search/:chatId.
type SearchMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    *int      `json:"total"`
}

// MyChatRole is the caller's role inside one chat.
type MyChatRole struct {
	RoleID      int64            `json:"roleId"`
	RoleName    string           `json:"roleName"`
	Permissions []ChatPermission `json:"permissions"`
}

// ChatMember is a row of GET /chats/members/:chatId.
type ChatMember struct {
	UserID   string `json:"userId"`
	RoleID   int64  `json:"roleId"`
	RoleName string `json:"roleName"`
}

// ChangeChatRoleRequest is the body of PATCH /chats/:id/roles/change.
type ChangeChatRoleRequest struct {
	UserID string `json:"user_id"`
	RoleID int64  `json:"role_id"`
}
