package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by leave requests.
const DateLayout = "2006-01-02"

// ParentStatus tracks the parent approval axis.
type ParentStatus string

const (
	ParentStatusPending  ParentStatus = "PENDING"
	ParentStatusApproved ParentStatus = "APPROVED"
	ParentStatusRejected ParentStatus = "REJECTED"
)

// MentorStatus tracks the mentor approval axis.
type MentorStatus string

const (
	MentorStatusPending          MentorStatus = "PENDING"
	MentorStatusApproved         MentorStatus = "APPROVED"
	MentorStatusRejected         MentorStatus = "REJECTED"
	MentorStatusRejectedByParent MentorStatus = "REJECTED_BY_PARENT"
)

// SecurityStatus tracks the physical exit and return of the student.
type SecurityStatus string

const (
	SecurityStatusNone     SecurityStatus = "NONE"
	SecurityStatusExited   SecurityStatus = "EXITED"
	SecurityStatusReturned SecurityStatus = "RETURNED"
)

// Decision is an approve or reject verdict from a parent or mentor.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// ParseDecision accepts APPROVE/REJECT as well as the APPROVED/REJECTED forms
// used in emailed links.
func ParseDecision(raw string) (Decision, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "APPROVE", "APPROVED":
		return DecisionApprove, nil
	case "REJECT", "REJECTED":
		return DecisionReject, nil
	}
	return "", fmt.Errorf("unknown decision %q", raw)
}

// GateAction is a security gate scan.
type GateAction string

const (
	GateActionExit  GateAction = "EXIT"
	GateActionEntry GateAction = "ENTRY"
)

// ParseGateAction normalises a gate action.
func ParseGateAction(raw string) (GateAction, error) {
	switch GateAction(strings.ToUpper(strings.TrimSpace(raw))) {
	case GateActionExit:
		return GateActionExit, nil
	case GateActionEntry:
		return GateActionEntry, nil
	}
	return "", fmt.Errorf("unknown gate action %q", raw)
}

// LeaveRequest is a student's request to be away from campus.
type LeaveRequest struct {
	ID                   string         `db:"id" json:"id"`
	StudentID            string         `db:"student_id" json:"student_id"`
	LeaveType            string         `db:"leave_type" json:"leave_type"`
	FromDate             time.Time      `db:"from_date" json:"from_date"`
	ToDate               time.Time      `db:"to_date" json:"to_date"`
	Reason               string         `db:"reason" json:"reason"`
	ParentEmail          string         `db:"parent_email" json:"parent_email"`
	ParentStatus         ParentStatus   `db:"parent_status" json:"parent_status"`
	MentorStatus         MentorStatus   `db:"mentor_status" json:"mentor_status"`
	SecurityStatus       SecurityStatus `db:"security_status" json:"security_status"`
	ParentActionToken    *string        `db:"parent_action_token" json:"-"`
	ParentDecidedAt      *time.Time     `db:"parent_decided_at" json:"parent_decided_at,omitempty"`
	MentorRemarks        *string        `db:"mentor_remarks" json:"mentor_remarks,omitempty"`
	MentorDecidedAt      *time.Time     `db:"mentor_decided_at" json:"mentor_decided_at,omitempty"`
	MentorDecidedBy      *string        `db:"mentor_decided_by" json:"mentor_decided_by,omitempty"`
	ApprovalOTPHash      *string        `db:"approval_otp_hash" json:"-"`
	ApprovalOTPExpiresAt *time.Time     `db:"approval_otp_expires_at" json:"approval_otp_expires_at,omitempty"`
	ExitedAt             *time.Time     `db:"exited_at" json:"exited_at,omitempty"`
	ReturnedAt           *time.Time     `db:"returned_at" json:"returned_at,omitempty"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// FullyApproved reports whether both approval axes are APPROVED.
func (l *LeaveRequest) FullyApproved() bool {
	return l.ParentStatus == ParentStatusApproved && l.MentorStatus == MentorStatusApproved
}

// CoversDate reports whether day falls within [FromDate, ToDate]. All three are
// compared as calendar dates.
func (l *LeaveRequest) CoversDate(day time.Time) bool {
	d := day.Format(DateLayout)
	return l.FromDate.Format(DateLayout) <= d && d <= l.ToDate.Format(DateLayout)
}

// HasOutstandingOTP reports whether an approval code is still valid at now.
func (l *LeaveRequest) HasOutstandingOTP(now time.Time) bool {
	return l.ApprovalOTPHash != nil && l.ApprovalOTPExpiresAt != nil && now.Before(*l.ApprovalOTPExpiresAt)
}

// LeaveDetail enriches a leave with the student's identity for mentor and
// security views.
type LeaveDetail struct {
	LeaveRequest
	StudentName       string  `db:"student_name" json:"student_name"`
	StudentEmail      string  `db:"student_email" json:"student_email"`
	StudentRollNumber *string `db:"student_roll_number" json:"student_roll_number,omitempty"`
}

// LeaveUpdate carries the fields a student may change while the parent has not
// decided. Nil fields are left unchanged.
type LeaveUpdate struct {
	LeaveType *string
	FromDate  *time.Time
	ToDate    *time.Time
	Reason    *string
}

// MentorDecision is persisted when a mentor approves or rejects.
type MentorDecision struct {
	LeaveID   string
	MentorID  string
	Status    MentorStatus
	Remarks   *string
	DecidedAt time.Time
	// OTPHash, when set, binds the update to the verified approval code.
	OTPHash *string
}
