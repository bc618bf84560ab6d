package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	input := "  line one  \n\n\n   line two\n   \nline three  "
	assert.Equal(t, "line one\nline two\nline three", CleanText(input))
}

func TestCleanText_Empty(t *testing.T) {
	assert.Equal(t, "", CleanText("   \n  \n"))
}

func TestExtractText_MissingFile(t *testing.T) {
	parser := NewPDFParserService()

	_, err := parser.ExtractText("/nonexistent/resume.pdf")

	assert.Error(t, err)
}
