package model

import "time"

// Todo represents a todo item in the database. OwnerID is set once at creation.
type Todo struct {
	ID          int64
	Title       string
	Description string
	Priority    int
	Complete    bool
	OwnerID     int64
	CreatedAt   time.Time
}

// TodoRequest carries the client-editable fields of a todo.
type TodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
}

// TodoResponse is the API representation of a todo.
type TodoResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
	OwnerID     int64  `json:"owner_id"`
}
