package permission

// Name is a permission identifier known to this client.
type Name string

// System permissions carried on user roles.
const (
	ProcessYourAccount      Name = "process_your_acc"
	WatchUsers              Name = "watch_users"
	ProcessChats            Name = "process_chats"
	ProcessTasks            Name = "process_tasks"
	GetPermissions          Name = "get_permissions"
	ProcessRoles            Name = "process_roles"
	ProcessChatsRoles       Name = "process_chats_roles"
	ProcessChatsPermissions Name = "process_chats_permissions"
	ProcessTasksStatuses    Name = "process_tasks_statuses"
)

// Chat permissions carried on chat roles.
const (
	EditChat    Name = "edit_chat"
	DeleteChat  Name = "delete_chat"
	BanUser     Name = "ban_user"
	ChangeRole  Name = "change_role"
	SendMessage Name = "send_message"
)

var known = []Name{
	ProcessYourAccount,
	WatchUsers,
	ProcessChats,
	ProcessTasks,
	GetPermissions,
	ProcessRoles,
	ProcessChatsRoles,
	ProcessChatsPermissions,
	ProcessTasksStatuses,
	EditChat,
	DeleteChat,
	BanUser,
	ChangeRole,
	SendMessage,
}

// Known returns every permission name compiled into this client.
func Known() []Name {
	out := make([]Name, len(known))
	copy(out, known)
	return out
}

// IsKnown reports whether name is one of [Known]. It is a typing aid, not an
// authorization check.
func IsKnown(name string) bool {
	for _, k := range known {
		if string(k) == name {
			return true
		}
	}
	return false
}

func (n Name) String() string { return string(n) }
