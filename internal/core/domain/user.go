package domain

import "time"

// User represents an account owner. The core only needs identity and
// username for ownership checks; profile data lives outside this module.
type User struct {
	UserID   string `json:"userID"` // Primary Key (UUID)
	Username string `json:"username"`
	Name     string `json:"name"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"` // Used for soft delete
}
