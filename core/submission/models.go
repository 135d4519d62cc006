package submission

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

type (
	Status      string
	Result      string
	ContentKind string
)

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"

	ResultPass Result = "pass"
	ResultFail Result = "fail"

	KindFile ContentKind = "file"
	KindLink ContentKind = "link"
	KindText ContentKind = "text"
)

type Assignment struct {
	ID       int    `json:"id" db:"id"`
	CourseID int    `json:"course_id" db:"course_id"`
	Title    string `json:"title" db:"title"`
}

// Submission moves from pending to approved or rejected, once.
// Result is null while pending and set on assessment.
type Submission struct {
	ID           int         `json:"id" db:"id"`
	AssignmentID int         `json:"assignment_id" db:"assignment_id"`
	StudentID    int         `json:"student_id" db:"student_id"`
	ContentKind  ContentKind `json:"content_kind" db:"content_kind"`
	Content      string      `json:"content" db:"content"`
	Status       Status      `json:"status" db:"status"`
	Result       null.String `json:"result" db:"result"`
	Feedback     null.String `json:"feedback" db:"feedback"`
	AssessedBy   null.Int    `json:"assessed_by" db:"assessed_by"`
	AssessedAt   null.Time   `json:"assessed_at" db:"assessed_at"`
	SubmittedAt  time.Time   `json:"submitted_at" db:"submitted_at"`
}

func (s Submission) IsPending() bool { return s.Status == StatusPending }

type NewSubmission struct {
	ContentKind ContentKind `json:"content_kind" validate:"required,oneof=file link text"`
	Content     string      `json:"content" validate:"required,notblank,max=10000"`
}

func (ns *NewSubmission) Clean() {
	ns.ContentKind = ContentKind(core.CleanString(string(ns.ContentKind), true /* lower */))
	if ns.ContentKind != KindText {
		ns.Content = core.CleanString(ns.Content)
	}
}

type Assessment struct {
	Status   Status  `json:"status" validate:"required,oneof=approved rejected"`
	Result   Result  `json:"result" validate:"required,oneof=pass fail"`
	Feedback *string `json:"feedback" validate:"omitempty,max=5000"`
}

func (a *Assessment) Clean() {
	a.Status = Status(core.CleanString(string(a.Status), true /* lower */))
	a.Result = Result(core.CleanString(string(a.Result), true /* lower */))
	a.Feedback = core.CleanStringPtr(a.Feedback)
}
