package model

// Permission is a named capability granted through a Role. Authorization
// checks compare permissions by Name, never by ID.
type Permission struct {
	ID          int64  `json:"ID"`
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
}

// Role groups an ordered list of permissions.
type Role struct {
	ID          int64        `json:"ID"`
	Name        string       `json:"Name"`
	Description string       `json:"Description,omitempty"`
	Permissions []Permission `json:"Permissions"`
}

// User is the profile of an account. Avatar is attached client-side from the
// file record delivered next to the user.
type User struct {
	ID          string `json:"ID"`
	Username    string `json:"Username"`
	Email       string `json:"Email"`
	Description string `json:"Description,omitempty"`
	Gender      string `json:"Gender,omitempty"`
	Age         *int   `json:"Age,omitempty"`
	Role        *Role  `json:"Role,omitempty"`
	Avatar      *File  `json:"avatar,omitempty"`
}

// Clone returns a deep copy of u. A nil user clones to nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Age != nil {
		age := *u.Age
		out.Age = &age
	}
	if u.Role != nil {
		role := *u.Role
		role.Permissions = append([]Permission(nil), u.Role.Permissions...)
		out.Role = &role
	}
	if u.Avatar != nil {
		avatar := *u.Avatar
		out.Avatar = &avatar
	}
	return &out
}

// UserResponse is the envelope returned by GET /users/me and GET /users/:id.
type UserResponse struct {
	File *File `json:"file"`
	User User  `json:"user"`
}

// AuthUser flattens the envelope into the user record kept by the session.
func (r UserResponse) AuthUser() *User {
	u := r.User
	out := u.Clone()
	if r.File != nil {
		f := *r.File
		out.Avatar = &f
	}
	return out
}

// UserSearchResult is one row of GET /users/search.
type UserSearchResult struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	AvatarFile *File  `json:"avatarFile,omitempty"`
}

// UserSearchResponse wraps user search results.
type UserSearchResponse struct {
	Users []UserSearchResult `json:"users"`
}

// CreateRoleRequest is the body of POST /roles.
type CreateRoleRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	PermissionIDs []int64 `json:"permissionIds,omitempty"`
}
