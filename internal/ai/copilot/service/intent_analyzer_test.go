package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jamolkhon5/dealdesk/internal/ai/copilot/models"
)

func TestAnalyzeMessageEstimatesWorkflow(t *testing.T) {
	ia := NewIntentAnalyzer()

	cases := []struct {
		message string
		want    string
	}{
		{"Summarize the business case for me", IntentSummarizeBusinessCase},
		{"Can you summarize the requirements?", IntentSummarizeRequirements},
		{"Generate a WBS draft", IntentGenerateWbs},
		{"Build the work breakdown please", IntentGenerateWbs},
		{"What is the project total?", IntentProjectTotal},
		{"How much will this cost?", IntentProjectTotal},
		{"Create the agreements for this estimate", IntentCreateAgreements},
		{"Tell me about stage gates", IntentText},
	}

	for _, tc := range cases {
		got := ia.AnalyzeMessage(tc.message, models.WorkflowEstimates)
		assert.Equal(t, tc.want, got.Type, "message %q", tc.message)
	}
}

func TestAnalyzeMessageContractsWorkflow(t *testing.T) {
	ia := NewIntentAnalyzer()

	assert.Equal(t, IntentApplyProposals,
		ia.AnalyzeMessage("Apply the review proposals", models.WorkflowContracts).Type)
	assert.Equal(t, IntentAddNote,
		ia.AnalyzeMessage("Add a note: counterparty asked for redlines", models.WorkflowContracts).Type)
	assert.Equal(t, IntentText,
		ia.AnalyzeMessage("What does clause 4 mean?", models.WorkflowContracts).Type)
}

func TestAnalyzeMessageToolsAreWorkflowScoped(t *testing.T) {
	ia := NewIntentAnalyzer()

	// инструменты оценок не срабатывают в области договоров и наоборот
	assert.Equal(t, IntentText,
		ia.AnalyzeMessage("Generate a WBS draft", models.WorkflowContracts).Type)
	assert.Equal(t, IntentText,
		ia.AnalyzeMessage("Apply the review proposals", models.WorkflowEstimates).Type)
}
