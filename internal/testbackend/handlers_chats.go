package testbackend

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MrEthical07/goTeam/model"
)

func splitCSV(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (b *Backend) isMemberLocked(chatID, userID string) bool {
	for _, m := range b.members[chatID] {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (b *Backend) userChats(c *gin.Context) {
	userID := c.Param("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []model.Chat{}
	for _, id := range b.chatIDs {
		if chat, ok := b.chats[id]; ok && b.isMemberLocked(id, userID) {
			out = append(out, *chat)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createChat(c *gin.Context) {
	name := c.PostForm("name")
	owner := c.PostForm("ownerID")
	if name == "" || owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and ownerID are required"})
		return
	}
	userIDs := splitCSV(c.PostForm("userIDs"))

	b.mu.Lock()
	defer b.mu.Unlock()
	chat := &model.Chat{
		ID:          uuid.NewString(),
		Name:        name,
		IsGroup:     len(userIDs) > 1,
		Description: c.PostForm("description"),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	b.chats[chat.ID] = chat
	b.chatIDs = append(b.chatIDs, chat.ID)
	b.owners[chat.ID] = owner
	b.members[chat.ID] = []model.ChatMember{{UserID: owner, RoleID: 1, RoleName: "owner"}}
	for _, id := range userIDs {
		if id != owner {
			b.members[chat.ID] = append(b.members[chat.ID], model.ChatMember{UserID: id, RoleID: 2, RoleName: "member"})
		}
	}
	c.JSON(http.StatusCreated, model.CreateChatResponse{
		ID:          chat.ID,
		Name:        chat.Name,
		Description: chat.Description,
		OwnerID:     owner,
		UserIDs:     userIDs,
	})
}

func (b *Backend) updateChat(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chat, ok := b.chats[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	if b.owners[chat.ID] != c.GetString("uid") {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can edit the chat"})
		return
	}
	if name := c.PostForm("name"); name != "" {
		chat.Name = name
	}
	if desc, ok := c.GetPostForm("description"); ok {
		chat.Description = desc
	}
	for _, id := range splitCSV(c.PostForm("addUserIDs")) {
		if !b.isMemberLocked(chat.ID, id) {
			b.members[chat.ID] = append(b.members[chat.ID], model.ChatMember{UserID: id, RoleID: 2, RoleName: "member"})
		}
	}
	if remove := splitCSV(c.PostForm("removeUserIDs")); len(remove) > 0 {
		kept := b.members[chat.ID][:0]
		for _, m := range b.members[chat.ID] {
			drop := false
			for _, id := range remove {
				drop = drop || m.UserID == id
			}
			if !drop {
				kept = append(kept, m)
			}
		}
		b.members[chat.ID] = kept
	}
	var avatar *model.File
	if fh, err := c.FormFile("avatar"); err == nil {
		avatar = &model.File{ID: time.Now().UnixNano(), Name: fh.Filename, URL: "/files/" + fh.Filename}
		chat.AvatarFileID = &avatar.ID
	}
	c.JSON(http.StatusOK, model.GetChatResponse{Chat: *chat, File: avatar})
}

func (b *Backend) deleteChat(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := c.Param("id")
	if _, ok := b.chats[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	if b.owners[id] != c.GetString("uid") {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can delete the chat"})
		return
	}
	delete(b.chats, id)
	delete(b.messages, id)
	delete(b.members, id)
	c.Status(http.StatusNoContent)
}

func (b *Backend) banUser(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chatID, userID := c.Param("id"), c.Param("userId")
	if !b.isMemberLocked(chatID, userID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	kept := b.members[chatID][:0]
	for _, m := range b.members[chatID] {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	b.members[chatID] = kept
	c.JSON(http.StatusOK, gin.H{"message": "user banned"})
}

func (b *Backend) changeRole(c *gin.Context) {
	var req model.ChangeChatRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	chatID := c.Param("id")
	for i, m := range b.members[chatID] {
		if m.UserID != req.UserID {
			continue
		}
		for _, r := range b.chatRole {
			if r.ID == req.RoleID {
				b.members[chatID][i].RoleID = r.ID
				b.members[chatID][i].RoleName = r.Name
				c.JSON(http.StatusOK, gin.H{"message": "role changed"})
				return
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
}

func (b *Backend) listMessages(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.messages[c.Param("chatId")]
	start, end := pageBounds(c, len(msgs))
	out := append([]model.Message{}, msgs[start:end]...)
	c.JSON(http.StatusOK, out)
}

func (b *Backend) sendMessage(c *gin.Context) {
	content := c.PostForm("content")
	b.mu.Lock()
	defer b.mu.Unlock()
	chatID := c.Param("chatId")
	if _, ok := b.chats[chatID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	msg := b.appendMessageLocked(chatID, c.GetString("uid"), content)
	if form, err := c.MultipartForm(); err == nil {
		for i, fh := range form.File["files"] {
			msg.Files = append(msg.Files, model.File{ID: int64(i + 1), Name: fh.Filename, URL: "/files/" + fh.Filename})
		}
		msgs := b.messages[chatID]
		msgs[len(msgs)-1] = msg
	}
	c.JSON(http.StatusCreated, msg)
}

func (b *Backend) searchMessages(c *gin.Context) {
	query := strings.ToLower(c.Query("query"))
	b.mu.Lock()
	defer b.mu.Unlock()
	var hits []model.Message
	for _, m := range b.messages[c.Param("chatId")] {
		if query != "" && strings.Contains(strings.ToLower(m.Content), query) {
			hits = append(hits, m)
		}
	}
	total := len(hits)
	start, end := pageBounds(c, total)
	c.JSON(http.StatusOK, model.SearchMessagesResponse{Messages: hits[start:end], Total: &total})
}

func (b *Backend) myRole(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	uid := c.GetString("uid")
	for _, m := range b.members[c.Param("chatId")] {
		if m.UserID != uid {
			continue
		}
		for _, r := range b.chatRole {
			if r.ID == m.RoleID {
				c.JSON(http.StatusOK, model.MyChatRole{RoleID: r.ID, RoleName: r.Name, Permissions: r.Permissions})
				return
			}
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
}

func (b *Backend) chatMembers(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]model.ChatMember{}, b.members[c.Param("chatId")]...)
	c.JSON(http.StatusOK, out)
}

func (b *Backend) listChatRoles(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.chatRole)
}

func (b *Backend) chatRoleByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role id"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.chatRole {
		if r.ID == id {
			c.JSON(http.StatusOK, r)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
}
