package models

import (
	"time"

	"github.com/google/uuid"
)

// Teacher is the identity record for one person. A TRN is allocated once,
// only after duplicate matching confirms no existing owner; records flagged
// for manual review are created without one.
type Teacher struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	TRN               *string    `db:"trn" json:"trn,omitempty"`
	FirstName         string     `db:"first_name" json:"first_name"`
	MiddleName        *string    `db:"middle_name" json:"middle_name,omitempty"`
	LastName          string     `db:"last_name" json:"last_name"`
	StatedFirstName   *string    `db:"stated_first_name" json:"stated_first_name,omitempty"`
	StatedMiddleName  *string    `db:"stated_middle_name" json:"stated_middle_name,omitempty"`
	StatedLastName    *string    `db:"stated_last_name" json:"stated_last_name,omitempty"`
	BirthDate         *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Email             *string    `db:"email" json:"email,omitempty"`
	AddressLine1      *string    `db:"address_line1" json:"address_line1,omitempty"`
	AddressLine2      *string    `db:"address_line2" json:"address_line2,omitempty"`
	AddressLine3      *string    `db:"address_line3" json:"address_line3,omitempty"`
	City              *string    `db:"city" json:"city,omitempty"`
	Postcode          *string    `db:"postcode" json:"postcode,omitempty"`
	Gender            *string    `db:"gender" json:"gender,omitempty"`
	HUSID             *string    `db:"husid" json:"husid,omitempty"`
	SlugID            *string    `db:"slug_id" json:"slug_id,omitempty"`
	QTSDate           *time.Time `db:"qts_date" json:"qts_date,omitempty"`
	EYTSDate          *time.Time `db:"eyts_date" json:"eyts_date,omitempty"`
	ActiveSanctions   bool       `db:"active_sanctions" json:"active_sanctions"`
	AllowPIIUpdates   bool       `db:"allow_pii_updates" json:"allow_pii_updates"`
	PendingNameChange bool       `db:"pending_name_change" json:"pending_name_change"`
	PendingDOBChange  bool       `db:"pending_dob_change" json:"pending_dob_change"`
	Active            bool       `db:"active" json:"active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// HasPendingPIIChanges reports whether a name or date-of-birth change is
// awaiting manual review. Only those two categories participate today; see
// DESIGN.md before widening the set.
func (t *Teacher) HasPendingPIIChanges() bool {
	return t.PendingNameChange || t.PendingDOBChange
}
