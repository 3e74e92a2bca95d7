package stageestimate

import "github.com/Jamolkhon5/dealdesk/internal/models"

type ApprovedVersion struct {
	Version   int     `json:"version"`
	Actor     *string `json:"actor"`
	CreatedAt string  `json:"created_at"`
	Notes     *string `json:"notes"`
}

// Payload — срез оценки для валидации SOW и для копайлота
type Payload struct {
	EstimateID       string                `json:"estimateId"`
	ProjectName      string                `json:"projectName"`
	CurrentStage     string                `json:"currentStage"`
	TotalHours       float64               `json:"totalHours"`
	RoleSummary      map[string]float64    `json:"roleSummary"`
	ApprovedVersion  *ApprovedVersion      `json:"approvedVersion"`
	Rows             []models.WbsRowRecord `json:"rows"`
	PaymentTerms     string                `json:"paymentTerms"`
	DeliveryTimeline string                `json:"deliveryTimeline"`
	LastUpdated      *string               `json:"lastUpdated"`
}

// Build собирает срез из полного агрегата оценки
func Build(detail *models.EstimateDetail) Payload {
	rows := detail.EffortEstimate.Rows
	var totalHours float64
	roleSummary := make(map[string]float64)
	for _, row := range rows {
		totalHours += row.Hours
		if row.Role != "" {
			roleSummary[row.Role] += row.Hours
		}
	}

	var approved *ApprovedVersion
	if v := detail.EffortEstimate.ApprovedVersion; v != nil {
		approved = &ApprovedVersion{
			Version:   v.VersionNumber,
			Actor:     v.Actor,
			CreatedAt: v.CreatedAt,
			Notes:     v.Notes,
		}
	}

	var lastUpdated *string
	if len(rows) > 0 {
		lastUpdated = &rows[len(rows)-1].UpdatedAt
	} else {
		lastUpdated = detail.Estimate.UpdatedAt
	}

	paymentTerms := ""
	if detail.Quote.Record.PaymentTerms != nil {
		paymentTerms = *detail.Quote.Record.PaymentTerms
	}
	deliveryTimeline := ""
	if detail.Quote.Record.DeliveryTimeline != nil {
		deliveryTimeline = *detail.Quote.Record.DeliveryTimeline
	}

	return Payload{
		EstimateID:       detail.Estimate.ID,
		ProjectName:      detail.Estimate.Name,
		CurrentStage:     detail.Estimate.Stage,
		TotalHours:       totalHours,
		RoleSummary:      roleSummary,
		ApprovedVersion:  approved,
		Rows:             rows,
		PaymentTerms:     paymentTerms,
		DeliveryTimeline: deliveryTimeline,
		LastUpdated:      lastUpdated,
	}
}
