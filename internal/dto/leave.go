package dto

// ApplyLeaveRequest is the payload a student submits to request leave.
type ApplyLeaveRequest struct {
	LeaveType   string `json:"leave_type" validate:"required,max=64"`
	FromDate    string `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate      string `json:"to_date" validate:"required,datetime=2006-01-02"`
	Reason      string `json:"reason" validate:"required,max=2000"`
	ParentEmail string `json:"parent_email" validate:"required,email"`
}

// UpdateLeaveRequest carries optional changes while the parent has not decided.
type UpdateLeaveRequest struct {
	LeaveType *string `json:"leave_type" validate:"omitempty,max=64"`
	FromDate  *string `json:"from_date" validate:"omitempty,datetime=2006-01-02"`
	ToDate    *string `json:"to_date" validate:"omitempty,datetime=2006-01-02"`
	Reason    *string `json:"reason" validate:"omitempty,max=2000"`
}

// ParentActionRequest is posted from the emailed approval page.
type ParentActionRequest struct {
	Action string `json:"action" form:"action" validate:"required"`
}

// MentorActionRequest approves or rejects a leave directly.
type MentorActionRequest struct {
	Action  string `json:"action" validate:"required"`
	Remarks string `json:"remarks" validate:"max=2000"`
}

// VerifyOTPRequest approves a leave with the code issued for it.
type VerifyOTPRequest struct {
	OTP     string `json:"otp" validate:"required,numeric,min=4,max=10"`
	Remarks string `json:"remarks" validate:"max=2000"`
}

// OTPIssuedResponse reports a freshly issued approval code. Code is only
// populated when codes are returned to the mentor.
type OTPIssuedResponse struct {
	LeaveID   string `json:"leave_id"`
	ExpiresAt string `json:"expires_at"`
	Delivery  string `json:"delivery"`
	Code      string `json:"code,omitempty"`
}

// SecurityActionRequest records a gate scan against a leave.
type SecurityActionRequest struct {
	Action string `json:"action" validate:"required,oneof=EXIT ENTRY exit entry"`
}
