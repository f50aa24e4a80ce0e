package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-affairs-api/internal/dto"
	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/internal/service"
	"github.com/noah-isme/student-affairs-api/pkg/response"
)

type leaveService interface {
	Apply(ctx context.Context, studentUID string, req dto.ApplyLeaveRequest) (*models.LeaveRequest, error)
	ListForStudent(ctx context.Context, studentUID string) ([]models.LeaveRequest, error)
	ListPendingForMentor(ctx context.Context, mentorUID string) ([]models.LeaveDetail, error)
	MentorAction(ctx context.Context, leaveID, mentorUID string, req dto.MentorActionRequest) (*models.LeaveRequest, error)
	GenerateOTP(ctx context.Context, leaveID, mentorUID string) (*dto.OTPIssuedResponse, error)
	VerifyOTPAndApprove(ctx context.Context, leaveID, mentorUID string, req dto.VerifyOTPRequest) (*models.LeaveRequest, error)
	Update(ctx context.Context, leaveID, studentUID string, req dto.UpdateLeaveRequest) (*models.LeaveRequest, error)
	Delete(ctx context.Context, leaveID, studentUID string) error
}

type gatePassService interface {
	GatePass(ctx context.Context, leaveID string, actor *models.JWTClaims) ([]byte, string, error)
	ShareLink(ctx context.Context, leaveID string, actor *models.JWTClaims) (*service.PassLink, error)
	GatePassByLink(ctx context.Context, token string) ([]byte, string, error)
}

// LeaveHandler exposes the authenticated leave endpoints for students and mentors.
type LeaveHandler struct {
	leaves leaveService
	passes gatePassService
}

// NewLeaveHandler constructs a LeaveHandler.
func NewLeaveHandler(leaves leaveService, passes gatePassService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves, passes: passes}
}

// Apply godoc
// @Summary Apply for leave
// @Tags Leaves
// @Accept json
// @Produce json
// @Param payload body dto.ApplyLeaveRequest true "Leave application"
// @Success 201 {object} response.Envelope
// @Router /leaves/apply [post]
func (h *LeaveHandler) Apply(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	var req dto.ApplyLeaveRequest
	if !bindJSON(c, &req, "invalid leave payload") {
		return
	}
	leave, err := h.leaves.Apply(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// ListMine godoc
// @Summary List the caller's leave requests
// @Tags Leaves
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/student [get]
func (h *LeaveHandler) ListMine(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	items, err := h.leaves.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Update godoc
// @Summary Edit a leave request before the parent decides
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave ID"
// @Param payload body dto.UpdateLeaveRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id} [put]
func (h *LeaveHandler) Update(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	var req dto.UpdateLeaveRequest
	if !bindJSON(c, &req, "invalid leave payload") {
		return
	}
	leave, err := h.leaves.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}

// Delete godoc
// @Summary Withdraw a leave request before the parent decides
// @Tags Leaves
// @Param id path string true "Leave ID"
// @Success 204
// @Router /leaves/{id} [delete]
func (h *LeaveHandler) Delete(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	if err := h.leaves.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForMentor godoc
// @Summary List leave requests awaiting the mentor
// @Tags Leaves
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/mentor [get]
func (h *LeaveHandler) ListForMentor(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	items, err := h.leaves.ListPendingForMentor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// MentorAction godoc
// @Summary Approve or reject a leave directly
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave ID"
// @Param payload body dto.MentorActionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /leaves/mentor-action/{id} [post]
func (h *LeaveHandler) MentorAction(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	var req dto.MentorActionRequest
	if !bindJSON(c, &req, "invalid mentor action") {
		return
	}
	leave, err := h.leaves.MentorAction(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}

// GenerateOTP godoc
// @Summary Issue an approval code for a leave
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave ID"
// @Success 201 {object} response.Envelope
// @Router /leaves/{id}/generate-otp [post]
func (h *LeaveHandler) GenerateOTP(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	issued, err := h.leaves.GenerateOTP(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issued)
}

// VerifyOTP godoc
// @Summary Approve a leave with its approval code
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave ID"
// @Param payload body dto.VerifyOTPRequest true "Code"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id}/verify-otp [post]
func (h *LeaveHandler) VerifyOTP(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	var req dto.VerifyOTPRequest
	if !bindJSON(c, &req, "invalid approval code payload") {
		return
	}
	leave, err := h.leaves.VerifyOTPAndApprove(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}

// GatePass godoc
// @Summary Download the gate pass PDF
// @Tags Leaves
// @Produce application/pdf
// @Param id path string true "Leave ID"
// @Success 200 {file} file
// @Router /leaves/{id}/pass [get]
func (h *LeaveHandler) GatePass(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	pdf, name, err := h.passes.GatePass(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.PDF(c, name, pdf)
}

// PassLink godoc
// @Summary Create a signed gate pass link
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave ID"
// @Success 201 {object} response.Envelope
// @Router /leaves/{id}/pass-link [post]
func (h *LeaveHandler) PassLink(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	link, err := h.passes.ShareLink(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}
