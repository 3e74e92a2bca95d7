package service

import (
	"strings"

	"github.com/Jamolkhon5/dealdesk/internal/ai/copilot/models"
)

type Intent struct {
	Type    string
	Content string
}

const (
	IntentSummarizeBusinessCase = "summarize_business_case"
	IntentSummarizeRequirements = "summarize_requirements"
	IntentGenerateWbs           = "generate_wbs"
	IntentProjectTotal          = "project_total"
	IntentAddNote               = "add_note"
	IntentApplyProposals        = "apply_proposals"
	IntentCreateAgreements      = "create_agreements"
	IntentText                  = "text"
)

type IntentAnalyzer struct {
	summarizeWords []string
	totalWords     []string
	wbsWords       []string
}

func NewIntentAnalyzer() *IntentAnalyzer {
	return &IntentAnalyzer{
		summarizeWords: []string{"summarize", "summary", "recap", "tl;dr"},
		totalWords:     []string{"total", "how much", "cost", "price", "amount"},
		wbsWords:       []string{"wbs", "work breakdown", "breakdown structure", "generate tasks"},
	}
}

// AnalyzeMessage сопоставляет сообщение с инструментом. Область workflow
// определяет, какие инструменты доступны
func (ia *IntentAnalyzer) AnalyzeMessage(message, workflow string) Intent {
	lower := strings.ToLower(message)

	switch workflow {
	case models.WorkflowEstimates:
		if ia.containsAny(lower, ia.summarizeWords) {
			if strings.Contains(lower, "requirement") {
				return Intent{Type: IntentSummarizeRequirements, Content: message}
			}
			if strings.Contains(lower, "business case") || strings.Contains(lower, "business-case") {
				return Intent{Type: IntentSummarizeBusinessCase, Content: message}
			}
		}
		if ia.containsAny(lower, ia.wbsWords) {
			return Intent{Type: IntentGenerateWbs, Content: message}
		}
		if ia.containsAny(lower, ia.totalWords) {
			return Intent{Type: IntentProjectTotal, Content: message}
		}
		if strings.Contains(lower, "create") && (strings.Contains(lower, "agreement") || strings.Contains(lower, "contract")) {
			return Intent{Type: IntentCreateAgreements, Content: message}
		}

	case models.WorkflowContracts:
		if strings.Contains(lower, "apply") && strings.Contains(lower, "proposal") {
			return Intent{Type: IntentApplyProposals, Content: message}
		}
		if strings.Contains(lower, "note") || strings.HasPrefix(lower, "remember") {
			return Intent{Type: IntentAddNote, Content: message}
		}
	}

	return Intent{Type: IntentText, Content: message}
}

func (ia *IntentAnalyzer) containsAny(message string, words []string) bool {
	for _, word := range words {
		if strings.Contains(message, word) {
			return true
		}
	}
	return false
}
