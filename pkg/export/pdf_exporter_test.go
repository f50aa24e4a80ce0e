package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	out, err := NewPDFExporter().Render(Document{
		Title:    "Gate Pass",
		Subtitle: "Student Affairs Office",
		Fields: []Field{
			{Label: "Student", Value: "Asha Rao"},
			{Label: "Dates", Value: "2024-01-10 to 2024-01-12"},
		},
		Footer: "Present at the gate on exit and return.",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRequiresFields(t *testing.T) {
	_, err := NewPDFExporter().Render(Document{Title: "Empty"})
	assert.Error(t, err)
}
