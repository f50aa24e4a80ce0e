package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-affairs-api/internal/models"
)

const leaveColumns = `id, student_id, leave_type, from_date, to_date, reason, parent_email, parent_status, mentor_status,
	security_status, parent_action_token, parent_decided_at, mentor_remarks, mentor_decided_at, mentor_decided_by,
	approval_otp_hash, approval_otp_expires_at, exited_at, returned_at, created_at, updated_at`

// LeaveRepository persists leave requests. Every state transition is a single
// conditional UPDATE; sql.ErrNoRows means the guarded state no longer holds.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create inserts a new leave request in its initial state.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = time.Now().UTC()
	}
	leave.UpdatedAt = leave.CreatedAt
	leave.ParentStatus = models.ParentStatusPending
	leave.MentorStatus = models.MentorStatusPending
	leave.SecurityStatus = models.SecurityStatusNone

	const query = `INSERT INTO leave_requests
	(id, student_id, leave_type, from_date, to_date, reason, parent_email, parent_status, mentor_status, security_status, parent_action_token, created_at, updated_at)
	VALUES (:id, :student_id, :leave_type, :from_date, :to_date, :reason, :parent_email, :parent_status, :mentor_status, :security_status, :parent_action_token, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// GetByID fetches a leave request by identifier.
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE id = $1", leaveColumns)
	return r.getOne(ctx, query, "get leave request", id)
}

// GetByToken fetches the request whose unconsumed parent token matches.
func (r *LeaveRepository) GetByToken(ctx context.Context, token string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE parent_action_token = $1 AND parent_status = 'PENDING'", leaveColumns)
	return r.getOne(ctx, query, "get leave request by token", token)
}

// ListByStudent returns a student's requests, newest first.
func (r *LeaveRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE student_id = $1 ORDER BY created_at DESC", leaveColumns)
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, studentID); err != nil {
		return nil, fmt.Errorf("list leave requests by student: %w", err)
	}
	return leaves, nil
}

// ListForMentor returns requests of the mentor's students that a parent has
// not rejected, newest first.
func (r *LeaveRepository) ListForMentor(ctx context.Context, mentorID string) ([]models.LeaveDetail, error) {
	query := fmt.Sprintf(`SELECT %s, s.full_name AS student_name, s.email AS student_email, s.roll_number AS student_roll_number
	FROM leave_requests l JOIN users s ON s.id = l.student_id
	WHERE s.mentor_id = $1 AND l.parent_status IN ('PENDING', 'APPROVED')
	ORDER BY l.created_at DESC`, prefixed("l", leaveColumns))
	var leaves []models.LeaveDetail
	if err := r.db.SelectContext(ctx, &leaves, query, mentorID); err != nil {
		return nil, fmt.Errorf("list leave requests for mentor: %w", err)
	}
	return leaves, nil
}

// ApplyParentDecision records the parent's verdict and consumes the token in
// one statement. A rejection also closes the mentor axis.
func (r *LeaveRepository) ApplyParentDecision(ctx context.Context, id, token string, status models.ParentStatus, decidedAt time.Time) (*models.LeaveRequest, error) {
	mentorSet := ""
	if status == models.ParentStatusRejected {
		mentorSet = fmt.Sprintf(", mentor_status = '%s'", models.MentorStatusRejectedByParent)
	}
	query := fmt.Sprintf(`UPDATE leave_requests
	SET parent_status = $3, parent_action_token = NULL, parent_decided_at = $4, updated_at = $4%s
	WHERE id = $1 AND parent_action_token = $2 AND parent_status = 'PENDING'
	RETURNING %s`, mentorSet, leaveColumns)
	return r.getOne(ctx, query, "apply parent decision", id, token, status, decidedAt)
}

// ApplyMentorDecision closes the mentor axis. When decision.OTPHash is set the
// update also requires that exact code to be stored and unexpired.
func (r *LeaveRepository) ApplyMentorDecision(ctx context.Context, decision models.MentorDecision) (*models.LeaveRequest, error) {
	args := []interface{}{decision.LeaveID, decision.Status, decision.Remarks, decision.MentorID, decision.DecidedAt}
	otpGuard := ""
	if decision.OTPHash != nil {
		args = append(args, *decision.OTPHash)
		otpGuard = fmt.Sprintf(" AND approval_otp_hash = $%d AND approval_otp_expires_at > $5", len(args))
	}
	query := fmt.Sprintf(`UPDATE leave_requests
	SET mentor_status = $2, mentor_remarks = $3, mentor_decided_by = $4, mentor_decided_at = $5, updated_at = $5,
		approval_otp_hash = NULL, approval_otp_expires_at = NULL
	WHERE id = $1 AND parent_status = 'APPROVED' AND mentor_status = 'PENDING'%s
	RETURNING %s`, otpGuard, leaveColumns)
	return r.getOne(ctx, query, "apply mentor decision", args...)
}

// StoreOTP saves a new approval code hash unless an unexpired one is present.
func (r *LeaveRepository) StoreOTP(ctx context.Context, id, hash string, expiresAt, now time.Time) error {
	const query = `UPDATE leave_requests
	SET approval_otp_hash = $2, approval_otp_expires_at = $3, updated_at = $4
	WHERE id = $1 AND parent_status = 'APPROVED' AND mentor_status = 'PENDING'
		AND (approval_otp_expires_at IS NULL OR approval_otp_expires_at <= $4)`
	result, err := r.db.ExecContext(ctx, query, id, hash, expiresAt, now)
	if err != nil {
		return fmt.Errorf("store approval otp: %w", err)
	}
	return requireRow(result, "store approval otp")
}

// UpdateDetails changes the student's editable fields while the parent has not
// decided.
func (r *LeaveRepository) UpdateDetails(ctx context.Context, id, studentID string, update models.LeaveUpdate, now time.Time) (*models.LeaveRequest, error) {
	args := []interface{}{id, studentID, now}
	sets := []string{"updated_at = $3"}
	if update.LeaveType != nil {
		args = append(args, *update.LeaveType)
		sets = append(sets, fmt.Sprintf("leave_type = $%d", len(args)))
	}
	if update.FromDate != nil {
		args = append(args, *update.FromDate)
		sets = append(sets, fmt.Sprintf("from_date = $%d", len(args)))
	}
	if update.ToDate != nil {
		args = append(args, *update.ToDate)
		sets = append(sets, fmt.Sprintf("to_date = $%d", len(args)))
	}
	if update.Reason != nil {
		args = append(args, *update.Reason)
		sets = append(sets, fmt.Sprintf("reason = $%d", len(args)))
	}
	query := fmt.Sprintf(`UPDATE leave_requests SET %s
	WHERE id = $1 AND student_id = $2 AND parent_status = 'PENDING'
	RETURNING %s`, strings.Join(sets, ", "), leaveColumns)
	return r.getOne(ctx, query, "update leave request", args...)
}

// Delete removes a request owned by studentID while the parent has not decided.
func (r *LeaveRepository) Delete(ctx context.Context, id, studentID string) error {
	const query = `DELETE FROM leave_requests WHERE id = $1 AND student_id = $2 AND parent_status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, studentID)
	if err != nil {
		return fmt.Errorf("delete leave request: %w", err)
	}
	return requireRow(result, "delete leave request")
}

// FindActiveForStudent returns the fully approved leave covering day. Leaves
// the student has not yet returned from come first, then the latest start.
func (r *LeaveRepository) FindActiveForStudent(ctx context.Context, studentID string, day time.Time) (*models.LeaveRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM leave_requests
	WHERE student_id = $1 AND parent_status = 'APPROVED' AND mentor_status = 'APPROVED'
		AND from_date <= $2::date AND to_date >= $2::date
	ORDER BY (security_status = 'RETURNED') ASC, from_date DESC, created_at DESC
	LIMIT 1`, leaveColumns)
	return r.getOne(ctx, query, "find active leave", studentID, day.Format(models.DateLayout))
}

// FindExitedForStudent returns the student's leave currently marked EXITED.
func (r *LeaveRepository) FindExitedForStudent(ctx context.Context, studentID string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM leave_requests
	WHERE student_id = $1 AND security_status = 'EXITED'
	ORDER BY exited_at DESC LIMIT 1`, leaveColumns)
	return r.getOne(ctx, query, "find exited leave", studentID)
}

// MarkExited moves NONE to EXITED for a fully approved leave covering day.
func (r *LeaveRepository) MarkExited(ctx context.Context, id string, day, at time.Time) (*models.LeaveRequest, error) {
	query := fmt.Sprintf(`UPDATE leave_requests
	SET security_status = 'EXITED', exited_at = $3, updated_at = $3
	WHERE id = $1 AND security_status = 'NONE' AND parent_status = 'APPROVED' AND mentor_status = 'APPROVED'
		AND from_date <= $2::date AND to_date >= $2::date
	RETURNING %s`, leaveColumns)
	return r.getOne(ctx, query, "mark leave exited", id, day.Format(models.DateLayout), at)
}

// MarkReturned moves EXITED to RETURNED.
func (r *LeaveRepository) MarkReturned(ctx context.Context, id string, at time.Time) (*models.LeaveRequest, error) {
	query := fmt.Sprintf(`UPDATE leave_requests
	SET security_status = 'RETURNED', returned_at = $2, updated_at = $2
	WHERE id = $1 AND security_status = 'EXITED'
	RETURNING %s`, leaveColumns)
	return r.getOne(ctx, query, "mark leave returned", id, at)
}

func (r *LeaveRepository) getOne(ctx context.Context, query, op string, args ...interface{}) (*models.LeaveRequest, error) {
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &leave, nil
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
