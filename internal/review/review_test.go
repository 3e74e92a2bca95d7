package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamolkhon5/dealdesk/internal/models"
)

func TestBuildProposalsFlagsPolicyViolations(t *testing.T) {
	content := "Payment terms: Net 60. Client may terminate with 30 days notice. No change order process defined."

	got := BuildProposals(content, []models.ContractPolicy{{ID: "p1"}, {ID: "p2"}})

	require.Len(t, got.Proposals, 3)
	assert.Equal(t, "prop-1", got.Proposals[0].ID)
	assert.Equal(t, "Payment terms: Net 30", got.Proposals[0].After)
	assert.Equal(t, "prop-2", got.Proposals[1].ID)
	assert.Equal(t, "Termination", got.Proposals[1].Section)
	assert.Equal(t, "Generated 3 proposals based on 2 policies", got.Summary)
}

func TestBuildProposalsAlwaysSuggestsSomething(t *testing.T) {
	// чистый текст без нарушений всё равно получает предложение по IP
	content := "Payment terms: Net 30. Termination with 60 days notice. Change order process is defined."

	got := BuildProposals(content, nil)
	assert.GreaterOrEqual(t, len(got.Proposals), 1)
	last := got.Proposals[len(got.Proposals)-1]
	assert.Equal(t, "Intellectual Property", last.Section)
}

func TestApplyProposalsReplacesAcceptedOnly(t *testing.T) {
	content := "Payment terms: Net 60. Client may terminate with 30 days notice."
	proposals := BuildProposals(content, nil).Proposals

	updated := ApplyProposals(content, proposals, []string{"prop-1"})
	assert.Contains(t, updated, "Payment terms: Net 30")
	assert.Contains(t, updated, "30 days notice", "non-accepted proposal should not be applied")
}

func TestApplyProposalsAppendsSectionWhenBeforeMissing(t *testing.T) {
	proposals := []models.ReviewProposal{
		{ID: "prop-x", Before: "text that is not present", After: "New clause text", Section: "Special Terms"},
	}

	updated := ApplyProposals("Base contract.", proposals, []string{"prop-x"})
	assert.Contains(t, updated, "<h2>Special Terms</h2>")
	assert.Contains(t, updated, "New clause text")
}

func TestApplyProposalsNoopWithoutAccepted(t *testing.T) {
	content := "Payment terms: Net 60."
	proposals := BuildProposals(content, nil).Proposals

	assert.Equal(t, content, ApplyProposals(content, proposals, nil))
}
