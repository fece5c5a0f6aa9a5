package models

import "time"

// User is a chat user as tracked for usage attribution. There is no
// authentication here; user ids are free-form identifiers picked by the
// operator or generated on create.
type User struct {
	UserID    string    `json:"user_id"`
	Alias     string    `json:"alias,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest is the payload for POST /api/users.
type CreateUserRequest struct {
	UserID string `json:"user_id"`
	Alias  string `json:"alias,omitempty"`
}

// ErrorResponse is the error body returned by every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is the success body for admin mutations.
type MessageResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}
