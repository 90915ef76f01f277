package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded for account events.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionLoginFailed       = "LOGIN_FAILED"
	AuditActionAccountLocked     = "ACCOUNT_LOCKED"
	AuditActionLogout            = "LOGOUT"
	AuditActionRegister          = "REGISTER"
	AuditActionTokenRefresh      = "TOKEN_REFRESH"
	AuditActionPasswordReset     = "PASSWORD_RESET"
	AuditActionPasswordChange    = "PASSWORD_CHANGE"
	AuditActionEmailVerified     = "EMAIL_VERIFIED"
	AuditActionProfileUpdate     = "PROFILE_UPDATE"
	AuditActionPreferencesUpdate = "PREFERENCES_UPDATE"
	AuditActionAccountDeactivate = "ACCOUNT_DEACTIVATE"
	AuditActionAccountDelete     = "ACCOUNT_DELETE"
	AuditActionCharacterCreate   = "CHARACTER_CREATE"
	AuditActionCharacterUpdate   = "CHARACTER_UPDATE"
	AuditActionCharacterDelete   = "CHARACTER_DELETE"
)

// AuditResourceUser is the resource name for account events.
const AuditResourceUser = "user"

// AuditLog is one row of the optional Postgres audit trail.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	UserID     *string         `db:"user_id" json:"userId,omitempty"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resourceId,omitempty"`
	Details    json.RawMessage `db:"details" json:"details,omitempty"`
	IPAddress  string          `db:"ip_address" json:"ipAddress"`
	UserAgent  string          `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	UserID string
	Action string
	Limit  int
}
