package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-affairs-api/internal/dto"
	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, studentUID string, req dto.EnrollRequest) (*models.EnrollmentResult, error)
	ListForStudent(ctx context.Context, studentUID string) ([]models.EnrollmentDetail, error)
	ListForSection(ctx context.Context, sectionID string) ([]models.EnrollmentDetail, error)
}

// EnrollmentHandler exposes section enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll godoc
// @Summary Enroll in a section or switch to it
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.EnrollRequest true "Section"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Router /courses/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	var req dto.EnrollRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	result, err := h.enrollments.Enroll(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Outcome == models.EnrollmentCreated {
		status = http.StatusCreated
	}
	response.JSON(c, status, result)
}

// ListMine godoc
// @Summary List the caller's enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/enrollments/student [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	items, err := h.enrollments.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// ListSection godoc
// @Summary List a section's roster
// @Tags Enrollments
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /courses/sections/{id}/enrollments [get]
func (h *EnrollmentHandler) ListSection(c *gin.Context) {
	items, err := h.enrollments.ListForSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}
