package models

import "time"

// AccessLog action constants for lifecycle operations.
const (
	ActionTransition      = "update_status"
	ActionArchive         = "archive_item"
	ActionRestore         = "restore_item"
	ActionPermanentDelete = "permanent_delete"
	ActionBulkOperation   = "bulk_operation"
	ActionLogin           = "login"
)

// AccessLog is an accesslog table row recording who did what. Writes are
// best-effort and never fail the primary operation.
type AccessLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Detail    string    `db:"detail" json:"detail"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
