package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewTaskCategory distinguishes why a manual review task was raised.
type ReviewTaskCategory string

const (
	ReviewCategoryDuplicateTeacher ReviewTaskCategory = "duplicate_teacher"
	ReviewCategoryUnresolvedCodes  ReviewTaskCategory = "unresolved_reference_codes"
	ReviewCategoryActiveSanctions  ReviewTaskCategory = "active_sanctions"
	ReviewCategoryNameChange       ReviewTaskCategory = "Change of Name"
	ReviewCategoryDOBChange        ReviewTaskCategory = "Change of Date of Birth"
)

// ReviewTask is a work item for the manual-review team. Duplicate matching
// raises one task per candidate; the task records which attributes matched
// and any risk flags so reviewers never re-derive them.
type ReviewTask struct {
	ID          uuid.UUID          `db:"id" json:"id"`
	TeacherID   uuid.UUID          `db:"teacher_id" json:"teacher_id"`
	Category    ReviewTaskCategory `db:"category" json:"category"`
	Title       string             `db:"title" json:"title"`
	Description string             `db:"description" json:"description"`
	Completed   bool               `db:"completed" json:"completed"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// ReviewTaskFilter captures listing options for review tasks.
type ReviewTaskFilter struct {
	Category  string
	Completed *bool
	Page      int
	PageSize  int
}
