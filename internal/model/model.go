// Package model contains the domain types shared across packages.
package model

import (
	"time"
)

// Role is the single role tag attached to a profile. The set is closed:
// anything outside it parses to RoleUnknown and gets the minimal menu.
type Role string

const (
	RoleSales   Role = "sales"
	RolePM      Role = "pm"
	RoleDev     Role = "dev"
	RoleUnknown Role = ""
)

// ParseRole maps a stored role string onto the closed set.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSales, RolePM, RoleDev:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// Valid reports whether the role is one of the three known tags.
func (r Role) Valid() bool {
	return r == RoleSales || r == RolePM || r == RoleDev
}

// Principal is the authenticated identity performing a request. It is
// resolved per request from the bearer token and never persisted.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile is the completed user profile row, including the role tag.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UploadStatus tracks an audio upload through the processing lifecycle.
type UploadStatus string

const (
	StatusUploaded     UploadStatus = "uploaded"
	StatusTranscribing UploadStatus = "transcribing"
	StatusCompleted    UploadStatus = "completed"
	StatusError        UploadStatus = "error"
)

// UploadRecord is a row in the audio_uploads table. FilePath is the storage
// key, always "<owner id>/<original filename>". Records are never mutated
// after insert except for the status column.
type UploadRecord struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	FilePath  string       `json:"filePath"`
	Status    UploadStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// SignedAccessURL grants time-limited read access to one stored object.
// Derived on every read, never persisted.
type SignedAccessURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Summary is the AI-generated summary for one processed upload. The service
// only stores placeholder content; real summarization lives elsewhere.
type Summary struct {
	ID           string    `json:"id"`
	AudioID      string    `json:"audioId"`
	SummaryText  string    `json:"summaryText"`
	ActionPoints []string  `json:"actionPoints"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TaskStatus enumerates the task workflow states.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

// TaskPriority enumerates the task priority levels.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Task is a work item derived from a call summary.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	AssignedTo  string       `json:"assignedTo"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	CreatedAt   time.Time    `json:"createdAt"`
}
