package wbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamolkhon5/dealdesk/internal/models"
)

func strPtr(s string) *string { return &s }

func TestGenerateAlwaysIncludesTemplateRows(t *testing.T) {
	detail := &models.EstimateDetail{}
	rows := Generate(detail)

	codes := map[string]bool{}
	for _, row := range rows {
		codes[row.TaskCode] = true
		assert.GreaterOrEqual(t, row.Hours, 1.0)
		assert.NotEmpty(t, row.Description)
		assert.NotEmpty(t, row.Role)
	}
	for _, code := range []string{"DISC-101", "ARCH-110", "PLAN-210", "BACK-330", "QA-450"} {
		assert.True(t, codes[code], "missing template row %s", code)
	}
}

func TestGenerateAddsRequirementHighlights(t *testing.T) {
	detail := &models.EstimateDetail{
		Requirements: models.RequirementsRecord{
			Content: strPtr("<p>Build billing</p><p>Build reporting</p>"),
		},
	}
	rows := Generate(detail)

	var reqRows []GeneratedRow
	for _, row := range rows {
		if len(row.TaskCode) > 4 && row.TaskCode[:4] == "REQ-" {
			reqRows = append(reqRows, row)
		}
	}
	require.Len(t, reqRows, 2)
	assert.Equal(t, "Business Analyst", reqRows[0].Role)
	assert.Equal(t, "Technical Lead", reqRows[1].Role)
	assert.Contains(t, reqRows[0].Description, "Build billing")
}

func TestExtractRequirementHighlights(t *testing.T) {
	assert.Nil(t, ExtractRequirementHighlights(nil, 3))
	assert.Nil(t, ExtractRequirementHighlights(strPtr(""), 3))

	content := strPtr("<ul><li>One</li><li>Two</li><li>Three</li><li>Four</li></ul>")
	got := ExtractRequirementHighlights(content, 3)
	assert.Equal(t, []string{"One", "Two", "Three"}, got)
}

func TestSanitizeRowsDropsIncompleteRows(t *testing.T) {
	rows := []models.WbsRowInput{
		{Description: "  Build API  ", Role: " Engineer ", Hours: 10},
		{Description: "", Role: "Engineer", Hours: 5},
		{Description: "No role", Role: "   ", Hours: 5},
	}

	out := SanitizeRows(rows)
	require.Len(t, out, 1)
	assert.Equal(t, "Build API", out[0].Description)
	assert.Equal(t, "Engineer", out[0].Role)
}

func TestSanitizeRowsCoercesValues(t *testing.T) {
	rows := []models.WbsRowInput{
		{
			Description: "Task",
			Role:        "Engineer",
			Hours:       -4,
			TaskCode:    strPtr("   "),
			Assumptions: strPtr("  trimmed  "),
		},
	}

	out := SanitizeRows(rows)
	require.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0].Hours)
	assert.Nil(t, out[0].TaskCode)
	require.NotNil(t, out[0].Assumptions)
	assert.Equal(t, "trimmed", *out[0].Assumptions)
}
