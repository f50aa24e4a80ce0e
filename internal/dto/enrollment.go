package dto

// EnrollRequest asks to join or move to a section.
type EnrollRequest struct {
	SectionID string `json:"section_id" validate:"required"`
}
