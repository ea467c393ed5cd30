package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded against the registry. Every mutating API operation
// writes one row; token issue is logged too since it names the caller behind
// subsequent changes.
const (
	AuditActionTokenIssued        = "TOKEN_ISSUED"
	AuditActionTeacherCreated     = "TEACHER_CREATED"
	AuditActionIttOutcomeSet      = "ITT_OUTCOME_SET"
	AuditActionReviewTaskComplete = "REVIEW_TASK_COMPLETED"
)

// AuditLog is one audit trail record. ClientID is the authenticated API
// client; nil for unauthenticated endpoints.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	ClientID   *string         `db:"client_id" json:"client_id,omitempty"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resource_id,omitempty"`
	Detail     json.RawMessage `db:"detail" json:"detail,omitempty"`
	IPAddress  string          `db:"ip_address" json:"ip_address"`
	UserAgent  string          `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
