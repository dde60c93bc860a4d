package models

import "time"

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "user.login", "file.upload"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	Username  *string   `json:"username,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
