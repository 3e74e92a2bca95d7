package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamolkhon5/dealdesk/internal/models"
	"github.com/Jamolkhon5/dealdesk/internal/stages"
)

func strPtr(s string) *string { return &s }

func baseDetail() *models.EstimateDetail {
	return &models.EstimateDetail{
		Estimate: models.EstimateRecord{ID: "est-1", Name: "Demo", Owner: "Alex", Stage: stages.Artifacts},
	}
}

func TestEvaluateNilDetail(t *testing.T) {
	result := Evaluate(nil, "")
	assert.Empty(t, result)
}

func TestEvaluateEmptyDetailCoversAllStages(t *testing.T) {
	result := Evaluate(baseDetail(), "")
	require.Len(t, result, len(stages.Order))
	for _, key := range stages.Order {
		_, ok := result[key]
		assert.True(t, ok, "missing stage %s", key)
	}
}

func TestArtifactsGateRequiresTwoFiles(t *testing.T) {
	detail := baseDetail()
	detail.Artifacts = []models.ArtifactRecord{{ID: "a1"}}

	result := Evaluate(detail, "")
	info := result[stages.Artifacts]
	assert.False(t, info.CanAdvance)
	assert.Equal(t, "Need 2 artifacts (currently 1)", info.ReadyToAdvance[0].Message)

	detail.Artifacts = append(detail.Artifacts, models.ArtifactRecord{ID: "a2"})
	info = Evaluate(detail, "")[stages.Artifacts]
	assert.True(t, info.CanAdvance)
	assert.Equal(t, "✓ 2 artifacts uploaded", info.ReadyToAdvance[0].Message)
}

func TestBusinessCaseGateNeedsContentAndApproval(t *testing.T) {
	detail := baseDetail()
	detail.Artifacts = []models.ArtifactRecord{{ID: "a1"}, {ID: "a2"}}

	// пустая и чисто разметочная строка не считаются содержимым
	detail.BusinessCase.Content = strPtr("<p>&nbsp; </p>")
	info := Evaluate(detail, "")[stages.BusinessCase]
	assert.False(t, info.CanAdvance)

	detail.BusinessCase.Content = strPtr("<p>Deliver the portal.</p>")
	info = Evaluate(detail, "")[stages.BusinessCase]
	assert.False(t, info.CanAdvance, "approval still missing")

	detail.BusinessCase.Approved = true
	info = Evaluate(detail, "")[stages.BusinessCase]
	assert.True(t, info.CanAdvance)
	assert.True(t, info.CanAccess)
}

func TestDownstreamAccessFollowsApprovals(t *testing.T) {
	detail := baseDetail()
	info := Evaluate(detail, "")

	assert.False(t, info[stages.BusinessCase].CanAccess)
	assert.False(t, info[stages.Requirements].CanAccess)
	assert.False(t, info[stages.SolutionArchitecture].CanAccess)
	assert.False(t, info[stages.EffortEstimate].CanAccess)
	assert.False(t, info[stages.Quote].CanAccess)

	detail.Artifacts = []models.ArtifactRecord{{ID: "a1"}, {ID: "a2"}}
	detail.BusinessCase.Content = strPtr("content")
	detail.BusinessCase.Approved = true
	detail.Requirements.Content = strPtr("reqs")
	detail.Requirements.Validated = true

	info = Evaluate(detail, "")
	assert.True(t, info[stages.Requirements].CanAccess)
	assert.True(t, info[stages.SolutionArchitecture].CanAccess)
	assert.True(t, info[stages.EffortEstimate].CanAccess)
	assert.False(t, info[stages.Quote].CanAccess, "quote requires approved effort estimate")
}

func TestQuoteChecksAreNonBlocking(t *testing.T) {
	detail := baseDetail()
	info := Evaluate(detail, "")[stages.Quote]

	require.Len(t, info.ReadyToAdvance, 2)
	for _, status := range info.ReadyToAdvance {
		assert.False(t, status.Blocking)
	}
	assert.Equal(t, "Missing rates", info.ReadyToAdvance[0].Message)
	assert.Equal(t, "Missing payment terms", info.ReadyToAdvance[1].Message)
}

func TestQuoteHonorsDraftPaymentTerms(t *testing.T) {
	detail := baseDetail()
	detail.Quote.Rates = []models.QuoteRateRecord{{Role: "Engineer", HourlyRate: 150}}
	detail.EffortEstimate.ApprovedVersion = &models.WbsVersionRecord{ID: "v1", Approved: true}

	info := Evaluate(detail, "")[stages.Quote]
	assert.False(t, info.CanAdvance)

	info = Evaluate(detail, "Net 30")[stages.Quote]
	assert.True(t, info.CanAdvance)
	assert.Equal(t, "✓ Payment terms set", info.ReadyToAdvance[1].Message)

	// одни пробелы черновиком не считаются
	info = Evaluate(detail, "   ")[stages.Quote]
	assert.False(t, info.CanAdvance)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	detail := baseDetail()
	detail.Artifacts = []models.ArtifactRecord{{ID: "a1"}, {ID: "a2"}}
	detail.BusinessCase.Content = strPtr("<p>value</p>")

	first := Evaluate(detail, "")
	second := Evaluate(detail, "")
	assert.Equal(t, first, second)
}

func TestExtractPlainText(t *testing.T) {
	assert.Equal(t, "hello world", ExtractPlainText("<p>hello</p>\n<b>world</b>"))
	assert.Equal(t, "", ExtractPlainText("<p>&nbsp;&nbsp;</p>"))
	assert.Equal(t, "a b", ExtractPlainText("  a \t b  "))
}
