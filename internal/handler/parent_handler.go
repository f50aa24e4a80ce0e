package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-affairs-api/internal/dto"
	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
	"github.com/noah-isme/student-affairs-api/pkg/response"
)

type parentService interface {
	GetByToken(ctx context.Context, token string) (*models.LeaveDetail, error)
	ParentAction(ctx context.Context, token, action string) (*models.LeaveRequest, error)
}

// PublicHandler serves the unauthenticated links sent by email: the parent
// approval page and signed gate pass downloads.
type PublicHandler struct {
	parents parentService
	passes  gatePassService
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(parents parentService, passes gatePassService) *PublicHandler {
	return &PublicHandler{parents: parents, passes: passes}
}

// ParentView godoc
// @Summary Show the leave request behind a parent link
// @Tags Parent
// @Produce json
// @Param token path string true "Parent action token"
// @Success 200 {object} response.Envelope
// @Router /leaves/parent-view/{token} [get]
func (h *PublicHandler) ParentView(c *gin.Context) {
	leave, err := h.parents.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}

// ParentAction godoc
// @Summary Approve or reject a leave as the parent
// @Tags Parent
// @Accept json
// @Produce json
// @Param token path string true "Parent action token"
// @Param payload body dto.ParentActionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /leaves/parent-action/{token} [post]
func (h *PublicHandler) ParentAction(c *gin.Context) {
	var req dto.ParentActionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent action"))
		return
	}
	if req.Action == "" {
		req.Action = c.Query("action")
	}
	leave, err := h.parents.ParentAction(c.Request.Context(), c.Param("token"), req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"id":            leave.ID,
		"parent_status": leave.ParentStatus,
		"mentor_status": leave.MentorStatus,
	})
}

// PassByLink godoc
// @Summary Download a gate pass through a signed link
// @Tags Parent
// @Produce application/pdf
// @Param token path string true "Signed pass token"
// @Success 200 {file} file
// @Router /passes/{token} [get]
func (h *PublicHandler) PassByLink(c *gin.Context) {
	pdf, name, err := h.passes.GatePassByLink(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.PDF(c, name, pdf)
}
