package models

import "time"

// User is the storage representation of an account owner.
type User struct {
	UserID   string `db:"user_id"`
	Username string `db:"username"`
	Name     string `db:"name"`
	AuditFields
	DeletedAt *time.Time `db:"deleted_at"`
}
