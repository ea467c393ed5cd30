package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outbox message names emitted by this service.
const (
	MessageInductionStatusSet = "induction.status-set"
	MessageTRNRequestMetadata = "trn-request.metadata"
)

// OutboxMessage is a serialized domain message. It is appended as an ordinary
// row inside the same transaction as the business mutation it describes, so
// it is durably recorded exactly when the mutation commits.
type OutboxMessage struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	MessageName  string          `db:"message_name" json:"message_name"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Dispatched   bool            `db:"dispatched" json:"dispatched"`
	DispatchedAt *time.Time      `db:"dispatched_at" json:"dispatched_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// InductionStatusSetPayload is the body of MessageInductionStatusSet.
type InductionStatusSetPayload struct {
	TeacherID uuid.UUID       `json:"teacher_id"`
	TRN       *string         `json:"trn,omitempty"`
	Status    InductionStatus `json:"status"`
	AwardDate time.Time       `json:"award_date"`
}

// TRNRequestMetadataPayload is the body of MessageTRNRequestMetadata.
type TRNRequestMetadataPayload struct {
	TeacherID      uuid.UUID `json:"teacher_id"`
	TRN            *string   `json:"trn,omitempty"`
	PendingReview  bool      `json:"pending_review"`
	CandidateCount int       `json:"candidate_count"`
}
