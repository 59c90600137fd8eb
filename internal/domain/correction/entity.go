package correction

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
)

type Kind string

const (
	KindMissingPunchIn    Kind = "MISSING_PUNCH_IN"
	KindMissingPunchOut   Kind = "MISSING_PUNCH_OUT"
	KindIncorrectPunchIn  Kind = "INCORRECT_PUNCH_IN"
	KindIncorrectPunchOut Kind = "INCORRECT_PUNCH_OUT"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindMissingPunchIn, KindMissingPunchOut, KindIncorrectPunchIn, KindIncorrectPunchOut:
		return true
	}
	return false
}

// PunchType is the punch type the correction targets.
func (k Kind) PunchType() attendance.PunchType {
	if k == KindMissingPunchIn || k == KindIncorrectPunchIn {
		return attendance.PunchTypeIn
	}
	return attendance.PunchTypeOut
}

func (k Kind) IsIncorrect() bool {
	return k == KindIncorrectPunchIn || k == KindIncorrectPunchOut
}

type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusInReview  Status = "IN_REVIEW"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusEscalated Status = "ESCALATED"
)

// IsOpen reports SUBMITTED or IN_REVIEW. Only one open request may exist per record.
func (s Status) IsOpen() bool {
	return s == StatusSubmitted || s == StatusInReview
}

// BlocksPayroll reports whether a request in this status keeps its record
// from being finalised.
func (s Status) BlocksPayroll() bool {
	return s.IsOpen() || s == StatusEscalated
}

// Detail is the structured payload of a correction. OriginalTimestamp holds
// the recorded punch an INCORRECT_* request targets, captured at submission.
type Detail struct {
	Kind               Kind
	CorrectedTimestamp time.Time
	OriginalTimestamp  *time.Time
}

type CorrectionRequest struct {
	ID                 string
	EmployeeID         string
	AttendanceRecordID string
	Status             Status
	Reason             string
	Detail             Detail
	ReviewerID         *string
	ReviewNote         *string
	SubmittedAt        time.Time
	ReviewedAt         *time.Time
	EscalatedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}
