package model

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userID"`
}

// RegisterRequest is the JSON "data" part of POST /auth/register.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Description string `json:"description,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Age         *int   `json:"age,omitempty"`
	RoleID      int64  `json:"roleID,omitempty"`
}

// UpdateUserRequest is the JSON "data" part of PUT /users/me.
type UpdateUserRequest struct {
	Username    string `json:"username,omitempty"`
	Description string `json:"description,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Age         *int   `json:"age,omitempty"`
	RoleID      *int64 `json:"roleID,omitempty"`
}

// ErrorBody is the generic error shape returned by every endpoint.
type ErrorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
