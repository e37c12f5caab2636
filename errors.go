package goTeam

import "errors"

var (
	// ErrNotAuthenticated is returned by operations that need a session token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUserNotLoaded is returned when an operation needs the current user's
	// id and the profile has not been fetched yet.
	ErrUserNotLoaded = errors.New("user profile not loaded")
	// ErrClientNotReady is returned by a nil or closed Client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrClientClosed is returned after Close.
	ErrClientClosed = errors.New("client closed")
	// ErrTaskNotFound is returned when a task id is unknown to the server.
	ErrTaskNotFound = errors.New("task not found")
	// ErrQueryTooShort is returned by searches below the minimum query length.
	ErrQueryTooShort = errors.New("search query too short")
	// ErrStatusesUnavailable is returned by the task list while the status
	// catalog is empty.
	ErrStatusesUnavailable = errors.New("task status catalog unavailable")
	// ErrBuilderUsed is returned when Build is called twice.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
)
