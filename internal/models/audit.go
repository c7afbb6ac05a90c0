package models

import "time"

// Audit action tags.
const (
	AuditUserRegister        = "USER_REGISTER"
	AuditUserVerify          = "USER_VERIFY"
	AuditUserLogin           = "USER_LOGIN"
	AuditPasswordForgot      = "PASSWORD_FORGOT"
	AuditPasswordReset       = "PASSWORD_RESET"
	AuditAdminUserUpdate     = "ADMIN_USER_UPDATE"
	AuditAdminUserDeactivate = "ADMIN_USER_DEACTIVATE"
	AuditAdminUserReactivate = "ADMIN_USER_REACTIVATE"
	AuditAdminUserDelete     = "ADMIN_USER_DELETE"
)

// AuditEntry is write-only from the application's point of view. A failed
// write must never abort the operation that produced it.
type AuditEntry struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"`
	ActorID      string         `json:"actorId,omitempty"`
	TargetUserID string         `json:"targetUserId,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}
