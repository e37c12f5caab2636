package goTeam

import (
	"time"

	"github.com/MrEthical07/goTeam/cache"
)

// Resource is a class of server data sharing one cache policy.
type Resource uint8

const (
	ResourceCurrentUser Resource = iota
	ResourceUser
	ResourceUserSearch
	ResourceChatList
	ResourceMessages
	ResourceMessagePages
	ResourceMessageSearch
	ResourceMyChatRole
	ResourceChatMembers
	ResourceCatalog
	ResourceTaskList
	ResourceTaskDetail
	resourceCount
)

var resourceNames = [resourceCount]string{
	"current_user",
	"user",
	"user_search",
	"chat_list",
	"messages",
	"message_pages",
	"message_search",
	"my_chat_role",
	"chat_members",
	"catalog",
	"task_list",
	"task_detail",
}

func (r Resource) String() string {
	if r >= resourceCount {
		return "unknown"
	}
	return resourceNames[r]
}

// defaultPolicies is the freshness table. Retry is filled from
// CacheConfig.QueryRetry when the client is built.
func defaultPolicies() map[Resource]cache.Policy {
	return map[Resource]cache.Policy{
		ResourceCurrentUser:   {StaleTime: 5 * time.Minute},
		ResourceUser:          {StaleTime: 5 * time.Minute},
		ResourceUserSearch:    {StaleTime: 30 * time.Second},
		ResourceChatList:      {StaleTime: 30 * time.Second},
		ResourceMessages:      {StaleTime: 10 * time.Second, RefetchInterval: 5 * time.Second},
		ResourceMessagePages:  {StaleTime: 10 * time.Second},
		ResourceMessageSearch: {StaleTime: 60 * time.Second},
		ResourceMyChatRole:    {StaleTime: 5 * time.Minute},
		ResourceChatMembers:   {StaleTime: 2 * time.Minute},
		ResourceCatalog:       {StaleTime: 10 * time.Minute},
		ResourceTaskList:      {StaleTime: 30 * time.Second, RefetchInterval: 60 * time.Second},
		ResourceTaskDetail:    {StaleTime: 30 * time.Second},
	}
}

// Key taxonomy. Every key starts with its domain so that a domain prefix
// addresses all of its entries.
var (
	keyUsers     = cache.NewKey("users")
	keyChats     = cache.NewKey("chats")
	keyChatRoles = cache.NewKey("chatRoles")
	keyTasks     = cache.NewKey("tasks")
)

func keyMe() cache.Key { return keyUsers.Append("me") }
func keyUser(id string) cache.Key { return keyUsers.Append("detail", id) }
func keyUserSearch(q string) cache.Key { return keyUsers.Append("search", q) }
func keyRoles() cache.Key { return keyUsers.Append("roles") }
func keyPermissions() cache.Key { return keyUsers.Append("permissions") }
func keyChatLists() cache.Key { return keyChats.Append("list") }
func keyChatList(uid string) cache.Key { return keyChatLists().Append(uid) }
func keyChatDetail(id string) cache.Key { return keyChats.Append("detail", id) }
func keyMessages(chatID string) cache.Key {
	return keyChatDetail(chatID).Append("messages")
}
func keyRecentMessages(chatID string, limit int) cache.Key {
	return keyMessages(chatID).Append("recent", limit)
}
func keyMessagePage(chatID string, offset, limit int) cache.Key {
	return keyMessages(chatID).Append("page", offset, limit)
}
func keyMessageSearch(chatID, q string) cache.Key {
	return keyChatDetail(chatID).Append("search", q)
}
func keyMyChatRole(chatID string) cache.Key { return keyChatDetail(chatID).Append("myRole") }
func keyChatMembers(chatID string) cache.Key {
	return keyChatDetail(chatID).Append("members")
}
func keyChatRoleList() cache.Key { return keyChatRoles.Append("list") }
func keyTaskLists() cache.Key { return keyTasks.Append("list") }
func keyTaskList(uid string) cache.Key { return keyTaskLists().Append(uid) }
func keyTaskPage(uid string, p TaskListParams) cache.Key {
	return keyTaskList(uid).Append(p.Limit, p.Offset)
}
func keyTaskDetail(id int64) cache.Key { return keyTasks.Append("detail", id) }
func keyTaskStatuses() cache.Key { return keyTasks.Append("statuses") }
