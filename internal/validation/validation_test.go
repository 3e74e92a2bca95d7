package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamolkhon5/dealdesk/internal/models"
	"github.com/Jamolkhon5/dealdesk/internal/stageestimate"
)

func payload(totalHours float64, terms, timeline string, rows ...models.WbsRowRecord) stageestimate.Payload {
	return stageestimate.Payload{
		EstimateID:       "est-1",
		ProjectName:      "Demo",
		TotalHours:       totalHours,
		PaymentTerms:     terms,
		DeliveryTimeline: timeline,
		Rows:             rows,
	}
}

func findByID(t *testing.T, list []Discrepancy, id string) Discrepancy {
	t.Helper()
	for _, d := range list {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("discrepancy %s not found in %+v", id, list)
	return Discrepancy{}
}

func TestPaymentTermsMismatchIsError(t *testing.T) {
	got := ValidateSOW("Invoices due Net 60 after delivery.", payload(0, "Net 30", ""))

	d := findByID(t, got, "payment-terms-1")
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "Net 30", d.Expected)
	assert.Equal(t, "Net 60", d.Actual)
}

func TestPaymentTermsCaseInsensitiveMatch(t *testing.T) {
	got := ValidateSOW("payment due net30.", payload(0, "Net 30", ""))
	for _, d := range got {
		assert.NotEqual(t, CategoryPaymentTerms, d.Category)
	}
}

func TestPaymentTermsFirstPatternWins(t *testing.T) {
	// Net 30 проверяется раньше Net 60, даже если Net 60 стоит раньше в тексте
	got := ValidateSOW("Net 60 was discussed but we agreed on Net 30.", payload(0, "Net 30", ""))
	for _, d := range got {
		assert.NotEqual(t, CategoryPaymentTerms, d.Category)
	}
}

func TestPaymentTermsAbsentIsWarning(t *testing.T) {
	got := ValidateSOW("Payment on completion.", payload(0, "Net 45", ""))

	d := findByID(t, got, "payment-terms-2")
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, "Not specified", d.Actual)
}

func TestPaymentTermsSkippedWhenEstimateHasNone(t *testing.T) {
	got := ValidateSOW("Net 60 payment.", payload(0, "", ""))
	assert.Empty(t, got)
}

func TestHoursLargeDeltaIsError(t *testing.T) {
	got := ValidateSOW("The effort is 150 hours.", payload(100, "", ""))

	d := findByID(t, got, "hours-1")
	assert.Equal(t, SeverityError, d.Severity)
}

func TestHoursModerateDeltaIsWarning(t *testing.T) {
	got := ValidateSOW("Approximately 115 hrs of work.", payload(100, "", ""))

	d := findByID(t, got, "hours-1")
	assert.Equal(t, SeverityWarning, d.Severity)
}

func TestHoursWithinToleranceIsClean(t *testing.T) {
	got := ValidateSOW("We estimate 108 hours total.", payload(100, "", ""))
	assert.Empty(t, got)
}

func TestHoursMentionsAreSummed(t *testing.T) {
	// 60 + 48 = 108, в пределах 10% от 100
	got := ValidateSOW("Phase one takes 60 hours and phase two 48 hrs.", payload(100, "", ""))
	assert.Empty(t, got)
}

func TestHoursNotMentionedIsWarning(t *testing.T) {
	got := ValidateSOW("Scope as discussed.", payload(100, "", ""))

	d := findByID(t, got, "hours-2")
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, "Not specified", d.Actual)
}

func TestHoursSkippedWhenEstimateEmpty(t *testing.T) {
	got := ValidateSOW("Work will take 500 hours.", payload(0, "", ""))
	assert.Empty(t, got)
}

func TestScopeMissingRowsWarning(t *testing.T) {
	rows := []models.WbsRowRecord{
		{Description: "Implement billing pipeline", Hours: 24},
		{Description: "Ship the dashboard", Hours: 4}, // мелкая задача не проверяется
	}
	got := ValidateSOW("Generic scope text without specifics, 24 hours.", payload(24, "", "", rows...))

	d := findByID(t, got, "scope-1")
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Contains(t, d.Message, "Implement billing pipeline")
}

func TestScopeMentionedRowsAreClean(t *testing.T) {
	rows := []models.WbsRowRecord{{Description: "Implement billing pipeline", Hours: 24}}
	got := ValidateSOW("We will implement the billing system, 24 hours.", payload(24, "", "", rows...))
	for _, d := range got {
		assert.NotEqual(t, CategoryScope, d.Category)
	}
}

func TestScopeManyMissingListsRepresentatives(t *testing.T) {
	rows := []models.WbsRowRecord{
		{Description: "Alpha workstream setup", Hours: 20},
		{Description: "Bravo integration build", Hours: 20},
		{Description: "Charlie migration effort", Hours: 20},
		{Description: "Delta hardening sprint", Hours: 20},
	}
	got := ValidateSOW("Nothing here matches, 80 hours.", payload(80, "", "", rows...))

	d := findByID(t, got, "scope-1")
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Contains(t, d.Message, "Charlie migration effort")
	assert.Contains(t, d.Message, "and 1 more")
	assert.NotContains(t, d.Message, "Delta hardening sprint")
	assert.Equal(t, "4 task(s) not clearly referenced", d.Actual)
}

func TestTimelineInfoWhenUnreferenced(t *testing.T) {
	got := ValidateSOW("Scope only.", payload(0, "", "6 weeks"))

	d := findByID(t, got, "timeline-1")
	assert.Equal(t, SeverityInfo, d.Severity)
}

func TestTimelineKeywordSuffices(t *testing.T) {
	got := ValidateSOW("Delivery schedule attached.", payload(0, "", "6 weeks"))
	assert.Empty(t, got)
}

func TestValidateSOWIsIdempotent(t *testing.T) {
	est := payload(100, "Net 30", "6 weeks")
	first := ValidateSOW("Some draft, Net 60, 150 hours.", est)
	second := ValidateSOW("Some draft, Net 60, 150 hours.", est)
	assert.Equal(t, first, second)
}

func TestBuildResultValidity(t *testing.T) {
	clean := BuildResult([]Discrepancy{{Severity: SeverityWarning}, {Severity: SeverityInfo}})
	assert.True(t, clean.Valid)
	assert.Equal(t, "SOW aligns with estimate. No critical discrepancies found.", clean.Summary)
	assert.NotEmpty(t, clean.ValidatedAt)

	failed := BuildResult([]Discrepancy{{Severity: SeverityWarning}, {Severity: SeverityError}})
	require.False(t, failed.Valid)
	assert.Equal(t, "Found 2 discrepancy(ies) requiring attention.", failed.Summary)
}

func TestBuildResultNilSerializesAsEmptyList(t *testing.T) {
	result := BuildResult(nil)
	require.NotNil(t, result.Discrepancies)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"discrepancies":[]`)
}
