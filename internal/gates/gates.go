package gates

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Jamolkhon5/dealdesk/internal/models"
	"github.com/Jamolkhon5/dealdesk/internal/stages"
)

// GateStatus — результат проверки одного условия этапа
type GateStatus struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	// Blocking: провал этого условия запрещает переход дальше
	Blocking bool `json:"blocking"`
}

type StageGateInfo struct {
	Stage          string       `json:"stage"`
	EntryCriteria  []GateStatus `json:"entryCriteria"`
	ReadyToAdvance []GateStatus `json:"readyToAdvance"`
	CanAdvance     bool         `json:"canAdvance"`
	CanAccess      bool         `json:"canAccess"`
}

// StageGates — состояние ворот по всем этапам
type StageGates = map[string]StageGateInfo

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// ExtractPlainText убирает разметку и схлопывает пробелы
func ExtractPlainText(html string) string {
	text := htmlTagRe.ReplaceAllString(html, "")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

func hasContent(content *string) bool {
	if content == nil {
		return false
	}
	return len(ExtractPlainText(*content)) > 0
}

// Evaluate вычисляет состояние ворот для каждого этапа по снимку оценки.
// detail == nil даёт пустую карту; отсутствующие под-документы читаются как
// невыполненные условия. Черновик платёжных условий (ещё не сохранённый в UI)
// учитывается наравне с сохранённым значением.
func Evaluate(detail *models.EstimateDetail, draftPaymentTerms string) StageGates {
	result := StageGates{}
	if detail == nil {
		return result
	}

	artifactCount := len(detail.Artifacts)
	artifactsReady := artifactCount >= 2

	artifactsMsg := fmt.Sprintf("Need 2 artifacts (currently %d)", artifactCount)
	if artifactsReady {
		artifactsMsg = fmt.Sprintf("✓ %d artifacts uploaded", artifactCount)
	}
	result[stages.Artifacts] = StageGateInfo{
		Stage:         stages.Artifacts,
		EntryCriteria: []GateStatus{},
		ReadyToAdvance: []GateStatus{
			{Passed: artifactsReady, Message: artifactsMsg, Blocking: true},
		},
		CanAdvance: artifactsReady,
		CanAccess:  true,
	}

	businessCaseHasContent := hasContent(detail.BusinessCase.Content)
	businessCaseApproved := detail.BusinessCase.Approved

	result[stages.BusinessCase] = StageGateInfo{
		Stage: stages.BusinessCase,
		EntryCriteria: []GateStatus{
			{
				Passed: artifactsReady,
				Message: pick(artifactsReady,
					"✓ 2+ artifacts uploaded",
					"Need 2 artifacts to unlock Business Case"),
				Blocking: true,
			},
		},
		ReadyToAdvance: []GateStatus{
			{
				Passed: businessCaseHasContent,
				Message: pick(businessCaseHasContent,
					"✓ Business Case generated/edited",
					"Business Case needs to be generated or edited"),
				Blocking: true,
			},
			{
				Passed: businessCaseApproved,
				Message: pick(businessCaseApproved,
					"✓ Business Case approved",
					"Business Case needs approval"),
				Blocking: true,
			},
		},
		CanAdvance: businessCaseHasContent && businessCaseApproved,
		CanAccess:  artifactsReady,
	}

	requirementsHasContent := hasContent(detail.Requirements.Content)
	requirementsValidated := detail.Requirements.Validated

	result[stages.Requirements] = StageGateInfo{
		Stage: stages.Requirements,
		EntryCriteria: []GateStatus{
			{
				Passed: businessCaseApproved,
				Message: pick(businessCaseApproved,
					"✓ Business Case approved",
					"Business Case must be approved first"),
				Blocking: true,
			},
		},
		ReadyToAdvance: []GateStatus{
			{
				Passed: requirementsHasContent,
				Message: pick(requirementsHasContent,
					"✓ Requirements generated/edited",
					"Requirements need to be generated or edited"),
				Blocking: true,
			},
			{
				Passed: requirementsValidated,
				Message: pick(requirementsValidated,
					"✓ Requirements validated",
					"Requirements need validation"),
				Blocking: true,
			},
		},
		CanAdvance: requirementsHasContent && requirementsValidated,
		CanAccess:  businessCaseApproved,
	}

	solutionHasContent := hasContent(detail.SolutionArchitecture.Content)
	solutionApproved := detail.SolutionArchitecture.Approved

	result[stages.SolutionArchitecture] = StageGateInfo{
		Stage: stages.SolutionArchitecture,
		EntryCriteria: []GateStatus{
			{
				Passed: requirementsValidated,
				Message: pick(requirementsValidated,
					"✓ Requirements validated",
					"Requirements must be validated first"),
				Blocking: true,
			},
		},
		ReadyToAdvance: []GateStatus{
			{
				Passed: solutionHasContent,
				Message: pick(solutionHasContent,
					"✓ Solution & Architecture documented",
					"Solution & Architecture needs to be generated or edited"),
				Blocking: true,
			},
			{
				Passed: solutionApproved,
				Message: pick(solutionApproved,
					"✓ Solution & Architecture approved",
					"Solution & Architecture needs approval"),
				Blocking: true,
			},
		},
		CanAdvance: solutionHasContent && solutionApproved,
		CanAccess:  requirementsValidated,
	}

	hasWbsRows := len(detail.EffortEstimate.Rows) > 0
	effortApproved := detail.EffortEstimate.ApprovedVersion != nil

	result[stages.EffortEstimate] = StageGateInfo{
		Stage: stages.EffortEstimate,
		EntryCriteria: []GateStatus{
			{
				Passed: requirementsValidated,
				Message: pick(requirementsValidated,
					"✓ Requirements validated",
					"Requirements must be validated first"),
				Blocking: true,
			},
		},
		ReadyToAdvance: []GateStatus{
			{
				Passed: hasWbsRows,
				Message: pick(hasWbsRows,
					"✓ WBS generated/edited",
					"WBS needs to be generated"),
				Blocking: true,
			},
			{
				Passed: effortApproved,
				Message: pick(effortApproved,
					"✓ Effort Estimate approved",
					"Effort Estimate needs approval"),
				Blocking: true,
			},
		},
		CanAdvance: hasWbsRows && effortApproved,
		CanAccess:  requirementsValidated,
	}

	hasRates := len(detail.Quote.Rates) > 0
	savedTerms := ""
	if detail.Quote.Record.PaymentTerms != nil {
		savedTerms = strings.TrimSpace(*detail.Quote.Record.PaymentTerms)
	}
	// Учитываем и сохранённые условия, и несохранённый черновик из UI
	hasPaymentTerms := savedTerms != "" || strings.TrimSpace(draftPaymentTerms) != ""

	result[stages.Quote] = StageGateInfo{
		Stage: stages.Quote,
		EntryCriteria: []GateStatus{
			{
				Passed: effortApproved,
				Message: pick(effortApproved,
					"✓ Effort Estimate approved",
					"Effort Estimate must be approved first"),
				Blocking: true,
			},
		},
		ReadyToAdvance: []GateStatus{
			{
				Passed:   hasRates,
				Message:  pick(hasRates, "✓ Rates configured", "Missing rates"),
				Blocking: false,
			},
			{
				Passed:   hasPaymentTerms,
				Message:  pick(hasPaymentTerms, "✓ Payment terms set", "Missing payment terms"),
				Blocking: false,
			},
		},
		CanAdvance: hasRates && hasPaymentTerms,
		CanAccess:  effortApproved,
	}

	return result
}

func pick(ok bool, passed, failed string) string {
	if ok {
		return passed
	}
	return failed
}
