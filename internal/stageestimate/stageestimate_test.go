package stageestimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamolkhon5/dealdesk/internal/models"
)

func strPtr(s string) *string { return &s }

func TestBuildComputesTotalsAndRoleSummary(t *testing.T) {
	detail := &models.EstimateDetail{
		Estimate: models.EstimateRecord{ID: "est-1", Name: "Demo", Stage: "Effort Estimate"},
		EffortEstimate: models.EffortEstimate{
			Rows: []models.WbsRowRecord{
				{Role: "Engineer", Hours: 30, UpdatedAt: "2026-08-01T00:00:00Z"},
				{Role: "Engineer", Hours: 10, UpdatedAt: "2026-08-02T00:00:00Z"},
				{Role: "QA Lead", Hours: 8, UpdatedAt: "2026-08-03T00:00:00Z"},
				{Role: "", Hours: 2, UpdatedAt: "2026-08-04T00:00:00Z"},
			},
		},
	}

	payload := Build(detail)

	assert.Equal(t, "est-1", payload.EstimateID)
	assert.Equal(t, 50.0, payload.TotalHours)
	assert.Equal(t, 40.0, payload.RoleSummary["Engineer"])
	assert.Equal(t, 8.0, payload.RoleSummary["QA Lead"])
	_, hasEmptyRole := payload.RoleSummary[""]
	assert.False(t, hasEmptyRole)

	require.NotNil(t, payload.LastUpdated)
	assert.Equal(t, "2026-08-04T00:00:00Z", *payload.LastUpdated)
}

func TestBuildWithoutRowsFallsBackToEstimateTimestamp(t *testing.T) {
	updated := "2026-07-15T10:00:00Z"
	detail := &models.EstimateDetail{
		Estimate: models.EstimateRecord{ID: "est-1", UpdatedAt: &updated},
	}

	payload := Build(detail)
	assert.Equal(t, 0.0, payload.TotalHours)
	assert.Empty(t, payload.Rows)
	require.NotNil(t, payload.LastUpdated)
	assert.Equal(t, updated, *payload.LastUpdated)
}

func TestBuildCarriesApprovedVersionAndQuoteTerms(t *testing.T) {
	actor := "Alex"
	detail := &models.EstimateDetail{
		Estimate: models.EstimateRecord{ID: "est-1"},
		EffortEstimate: models.EffortEstimate{
			ApprovedVersion: &models.WbsVersionRecord{
				VersionNumber: 3,
				Actor:         &actor,
				CreatedAt:     "2026-08-01T00:00:00Z",
			},
		},
		Quote: models.Quote{
			Record: models.QuoteRecord{
				PaymentTerms:     strPtr("Net 30"),
				DeliveryTimeline: strPtr("6 weeks"),
			},
		},
	}

	payload := Build(detail)
	require.NotNil(t, payload.ApprovedVersion)
	assert.Equal(t, 3, payload.ApprovedVersion.Version)
	assert.Equal(t, "Net 30", payload.PaymentTerms)
	assert.Equal(t, "6 weeks", payload.DeliveryTimeline)
}
