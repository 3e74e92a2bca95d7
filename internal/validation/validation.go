package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Jamolkhon5/dealdesk/internal/stageestimate"
)

type Severity = string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

const (
	CategoryPaymentTerms = "payment_terms"
	CategoryHours        = "hours"
	CategoryScope        = "scope"
	CategoryTimeline     = "timeline"
)

// Discrepancy — одно расхождение между текстом SOW и оценкой
type Discrepancy struct {
	ID        string   `json:"id"`
	Category  string   `json:"category"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Reference string   `json:"reference,omitempty"`
	Expected  string   `json:"expected,omitempty"`
	Actual    string   `json:"actual,omitempty"`
}

type Result struct {
	Valid         bool          `json:"valid"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	Summary       string        `json:"summary"`
	ValidatedAt   string        `json:"validated_at"`
}

var (
	netTermPatterns = []struct {
		re   *regexp.Regexp
		term string
	}{
		{regexp.MustCompile(`(?i)net\s*30`), "Net 30"},
		{regexp.MustCompile(`(?i)net\s*45`), "Net 45"},
		{regexp.MustCompile(`(?i)net\s*60`), "Net 60"},
		{regexp.MustCompile(`(?i)net\s*90`), "Net 90"},
	}
	hoursRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours?|hrs?)`)
	wordRe  = regexp.MustCompile(`\s+`)
)

// ValidateSOW сверяет текст SOW со структурированной оценкой.
// Детеминированный просмотр текста без побочных эффектов: одно расхождение
// на категорию, регистр не учитывается.
func ValidateSOW(sowContent string, estimate stageestimate.Payload) []Discrepancy {
	discrepancies := []Discrepancy{}
	contentLower := strings.ToLower(sowContent)

	// Платёжные условия: первый сработавший паттерн выигрывает, 30 проверяется раньше
	if estimate.PaymentTerms != "" {
		estimateTerms := strings.ToLower(estimate.PaymentTerms)
		sowTerms := ""
		for _, p := range netTermPatterns {
			if p.re.MatchString(sowContent) {
				sowTerms = p.term
				break
			}
		}

		if sowTerms != "" && strings.ToLower(sowTerms) != estimateTerms {
			discrepancies = append(discrepancies, Discrepancy{
				ID:       "payment-terms-1",
				Category: CategoryPaymentTerms,
				Severity: SeverityError,
				Message: fmt.Sprintf(
					"Payment terms mismatch: SOW specifies %q but estimate quote requires %q",
					sowTerms, estimate.PaymentTerms),
				Reference: "Payment Terms section",
				Expected:  estimate.PaymentTerms,
				Actual:    sowTerms,
			})
		} else if sowTerms == "" && strings.Contains(estimateTerms, "net") {
			discrepancies = append(discrepancies, Discrepancy{
				ID:       "payment-terms-2",
				Category: CategoryPaymentTerms,
				Severity: SeverityWarning,
				Message: fmt.Sprintf(
					"SOW does not specify payment terms, but estimate quote requires %q",
					estimate.PaymentTerms),
				Reference: "Payment Terms section",
				Expected:  estimate.PaymentTerms,
				Actual:    "Not specified",
			})
		}
	}

	// Часы: суммируем все упоминания и сравниваем с итогом WBS
	var mentionedHours float64
	for _, m := range hoursRe.FindAllStringSubmatch(contentLower, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		mentionedHours += v
	}

	if mentionedHours > 0 && estimate.TotalHours > 0 {
		delta := mentionedHours - estimate.TotalHours
		if delta < 0 {
			delta = -delta
		}
		percentDelta := delta / estimate.TotalHours * 100
		if percentDelta > 10 {
			severity := SeverityWarning
			if percentDelta > 20 {
				severity = SeverityError
			}
			discrepancies = append(discrepancies, Discrepancy{
				ID:       "hours-1",
				Category: CategoryHours,
				Severity: severity,
				Message: fmt.Sprintf(
					"Hour discrepancy: SOW mentions approximately %g hours, but WBS totals %g hours (%.1f%% difference)",
					mentionedHours, estimate.TotalHours, percentDelta),
				Reference: "Scope/Effort section",
				Expected:  fmt.Sprintf("%g hours", estimate.TotalHours),
				Actual:    fmt.Sprintf("~%g hours", mentionedHours),
			})
		}
	} else if mentionedHours == 0 && estimate.TotalHours > 0 {
		discrepancies = append(discrepancies, Discrepancy{
			ID:       "hours-2",
			Category: CategoryHours,
			Severity: SeverityWarning,
			Message: fmt.Sprintf(
				"SOW does not clearly specify total hours, but WBS totals %g hours",
				estimate.TotalHours),
			Reference: "Scope/Effort section",
			Expected:  fmt.Sprintf("Mention ~%g hours", estimate.TotalHours),
			Actual:    "Not specified",
		})
	}

	// Покрытие скоупа: значимые задачи WBS должны упоминаться в тексте
	var missingTasks []string
	for _, row := range estimate.Rows {
		if row.Description == "" || row.Hours <= 8 {
			continue
		}
		found := false
		for _, keyword := range wordRe.Split(strings.ToLower(row.Description), -1) {
			if len(keyword) > 4 && strings.Contains(contentLower, keyword) {
				found = true
				break
			}
		}
		if !found {
			missingTasks = append(missingTasks, row.Description)
		}
	}

	if len(missingTasks) > 0 {
		preview := missingTasks
		suffix := ""
		if len(preview) > 3 {
			preview = preview[:3]
			suffix = fmt.Sprintf(" and %d more", len(missingTasks)-3)
		}
		discrepancies = append(discrepancies, Discrepancy{
			ID:       "scope-1",
			Category: CategoryScope,
			Severity: SeverityWarning,
			Message: fmt.Sprintf(
				"SOW may be missing references to WBS tasks: %s%s",
				strings.Join(preview, ", "), suffix),
			Reference: "Scope/Deliverables section",
			Expected:  "Include all approved WBS tasks",
			Actual:    fmt.Sprintf("%d task(s) not clearly referenced", len(missingTasks)),
		})
	}

	// Сроки поставки
	if estimate.DeliveryTimeline != "" {
		timelineMentioned := strings.Contains(contentLower, "deliver") ||
			strings.Contains(contentLower, "timeline") ||
			strings.Contains(contentLower, "schedule")
		if !timelineMentioned {
			discrepancies = append(discrepancies, Discrepancy{
				ID:       "timeline-1",
				Category: CategoryTimeline,
				Severity: SeverityInfo,
				Message: fmt.Sprintf(
					"SOW does not explicitly reference delivery timeline, but estimate specifies: %q",
					estimate.DeliveryTimeline),
				Reference: "Delivery/Timeline section",
				Expected:  estimate.DeliveryTimeline,
				Actual:    "Not specified",
			})
		}
	}

	return discrepancies
}

// BuildResult превращает список расхождений в итог валидации
func BuildResult(discrepancies []Discrepancy) Result {
	if discrepancies == nil {
		discrepancies = []Discrepancy{}
	}
	valid := true
	for _, d := range discrepancies {
		if d.Severity == SeverityError {
			valid = false
			break
		}
	}
	summary := "SOW aligns with estimate. No critical discrepancies found."
	if !valid {
		summary = fmt.Sprintf("Found %d discrepancy(ies) requiring attention.", len(discrepancies))
	}
	return Result{
		Valid:         valid,
		Discrepancies: discrepancies,
		Summary:       summary,
		ValidatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}
