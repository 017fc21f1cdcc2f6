package model

import "time"

// Event log levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event log categories.
const (
	EventCategoryAuth    = "auth"
	EventCategoryContent = "content"
	EventCategoryUsage   = "usage"
	EventCategoryCache   = "cache"
	EventCategoryWebhook = "webhook"
	EventCategorySystem  = "system"
)

// Event is a persisted audit/event log entry.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
