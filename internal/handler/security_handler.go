package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-affairs-api/internal/dto"
	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/pkg/response"
)

type securityGateService interface {
	GetActiveLeaveForStudent(ctx context.Context, rollNumber string) (*models.LeaveDetail, error)
	RecordExit(ctx context.Context, rollNumber, guardUID string) (*models.LeaveDetail, error)
	RecordEntry(ctx context.Context, rollNumber, guardUID string) (*models.LeaveDetail, error)
	RecordSecurityAction(ctx context.Context, leaveID, action, guardUID string) (*models.LeaveRequest, error)
}

// SecurityHandler exposes the gate desk endpoints.
type SecurityHandler struct {
	gate securityGateService
}

// NewSecurityHandler constructs a SecurityHandler.
func NewSecurityHandler(gate securityGateService) *SecurityHandler {
	return &SecurityHandler{gate: gate}
}

// ActiveLeave godoc
// @Summary Look up today's approved leave for a student
// @Tags Security
// @Produce json
// @Param rollNumber path string true "Roll number"
// @Success 200 {object} response.Envelope
// @Router /leaves/security/active/{rollNumber} [get]
func (h *SecurityHandler) ActiveLeave(c *gin.Context) {
	leave, err := h.gate.GetActiveLeaveForStudent(c.Request.Context(), c.Param("rollNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}

// Exit godoc
// @Summary Record a student leaving campus
// @Tags Security
// @Produce json
// @Param rollNumber path string true "Roll number"
// @Success 200 {object} response.Envelope
// @Router /leaves/security/roll/{rollNumber}/exit [post]
func (h *SecurityHandler) Exit(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	leave, err := h.gate.RecordExit(c.Request.Context(), c.Param("rollNumber"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}

// Entry godoc
// @Summary Record a student returning to campus
// @Tags Security
// @Produce json
// @Param rollNumber path string true "Roll number"
// @Success 200 {object} response.Envelope
// @Router /leaves/security/roll/{rollNumber}/entry [post]
func (h *SecurityHandler) Entry(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	leave, err := h.gate.RecordEntry(c.Request.Context(), c.Param("rollNumber"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}

// Action godoc
// @Summary Record a gate scan against a leave id
// @Tags Security
// @Accept json
// @Produce json
// @Param id path string true "Leave ID"
// @Param payload body dto.SecurityActionRequest true "EXIT or ENTRY"
// @Success 200 {object} response.Envelope
// @Router /leaves/security/{id}/action [post]
func (h *SecurityHandler) Action(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	var req dto.SecurityActionRequest
	if !bindJSON(c, &req, "invalid gate action") {
		return
	}
	leave, err := h.gate.RecordSecurityAction(c.Request.Context(), c.Param("id"), req.Action, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}
