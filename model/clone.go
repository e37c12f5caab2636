package model

// CloneAll deep-copies s element by element. A nil slice stays nil.
func CloneAll[T any](s []T, clone func(T) T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	for i, v := range s {
		out[i] = clone(v)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func (r Role) Clone() Role {
	r.Permissions = cloneSlice(r.Permissions)
	return r
}

func (r ChatRole) Clone() ChatRole {
	r.Permissions = cloneSlice(r.Permissions)
	return r
}

func (r MyChatRole) Clone() MyChatRole {
	r.Permissions = cloneSlice(r.Permissions)
	return r
}

func (c Chat) Clone() Chat {
	c.AvatarFileID = clonePtr(c.AvatarFileID)
	c.AvatarFile = clonePtr(c.AvatarFile)
	c.Avatar = clonePtr(c.Avatar)
	c.Users = CloneAll(c.Users, func(u ChatUser) ChatUser {
		u.Role = u.Role.Clone()
		return u
	})
	return c
}

func (m Message) Clone() Message {
	m.SenderID = clonePtr(m.SenderID)
	m.UpdatedAt = clonePtr(m.UpdatedAt)
	m.Files = cloneSlice(m.Files)
	return m
}

func (r SearchMessagesResponse) Clone() SearchMessagesResponse {
	r.Messages = CloneAll(r.Messages, Message.Clone)
	r.Total = clonePtr(r.Total)
	return r
}

func (u UserSearchResult) Clone() UserSearchResult {
	u.AvatarFile = clonePtr(u.AvatarFile)
	return u
}
