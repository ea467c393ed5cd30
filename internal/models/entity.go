package models

import "github.com/google/uuid"

// Store entity type names. These double as table names in the SQL-backed
// entity store; the store layer keys its mapper registry on them.
const (
	EntityTeacher         = "teachers"
	EntityTrainingRecord  = "training_records"
	EntityQTSRegistration = "qts_registrations"
	EntityQualification   = "qualifications"
	EntityInduction       = "inductions"
	EntityReviewTask      = "review_tasks"
	EntityOutboxMessage   = "outbox_messages"
)

// EntityType implements store.Entity.
func (t *Teacher) EntityType() string { return EntityTeacher }

// EntityID implements store.Entity.
func (t *Teacher) EntityID() uuid.UUID { return t.ID }

// EntityType implements store.Entity.
func (r *TrainingRecord) EntityType() string { return EntityTrainingRecord }

// EntityID implements store.Entity.
func (r *TrainingRecord) EntityID() uuid.UUID { return r.ID }

// EntityType implements store.Entity.
func (q *QTSRegistration) EntityType() string { return EntityQTSRegistration }

// EntityID implements store.Entity.
func (q *QTSRegistration) EntityID() uuid.UUID { return q.ID }

// EntityType implements store.Entity.
func (q *Qualification) EntityType() string { return EntityQualification }

// EntityID implements store.Entity.
func (q *Qualification) EntityID() uuid.UUID { return q.ID }

// EntityType implements store.Entity.
func (i *Induction) EntityType() string { return EntityInduction }

// EntityID implements store.Entity.
func (i *Induction) EntityID() uuid.UUID { return i.ID }

// EntityType implements store.Entity.
func (t *ReviewTask) EntityType() string { return EntityReviewTask }

// EntityID implements store.Entity.
func (t *ReviewTask) EntityID() uuid.UUID { return t.ID }

// EntityType implements store.Entity.
func (m *OutboxMessage) EntityType() string { return EntityOutboxMessage }

// EntityID implements store.Entity.
func (m *OutboxMessage) EntityID() uuid.UUID { return m.ID }
