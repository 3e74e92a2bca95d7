package drafts

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/Jamolkhon5/dealdesk/internal/extraction"
	"github.com/Jamolkhon5/dealdesk/internal/models"
)

// drafts собирает черновики Business Case и Requirements из извлечённого
// содержимого артефактов. Генерация детерминированная, без обращений к LLM

var (
	objectiveRe = regexp.MustCompile(`(?is)(?:objective|goal|purpose)[:\-]?\s*(.+?)(?:\n\n|\n##|$)`)
	metricsRe   = regexp.MustCompile(`(?is)(?:success metrics?|metrics?)[:\-]?\s*([\s\S]+?)(?:\n\n|\n##|$)`)
	numberedRe  = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)
	bulletRe    = regexp.MustCompile(`(?m)^[-*•]\s+(.+)$`)
	sectionRe   = regexp.MustCompile(`(?i)(requirement|functional|feature|workflow|stage|screen|must-have|deliverable)`)
)

func readyArtifacts(detail *models.EstimateDetail) (ready, pending []models.ArtifactRecord) {
	for _, a := range detail.Artifacts {
		if a.ExtractionStatus == models.ExtractionStatusReady && a.ContentText != nil && *a.ContentText != "" {
			ready = append(ready, a)
		} else {
			pending = append(pending, a)
		}
	}
	return ready, pending
}

// ComposeBusinessCase строит черновой Business Case: цели и метрики из
// артефактов, сводка по файлам и стандартные следующие шаги
func ComposeBusinessCase(detail *models.EstimateDetail) string {
	if detail == nil {
		return "<p>No project context available.</p>"
	}

	ready, pending := readyArtifacts(detail)

	var objectives, metrics []string
	for _, a := range ready {
		cleaned := extraction.CleanMetadata(*a.ContentText)

		if m := objectiveRe.FindStringSubmatch(cleaned); m != nil {
			objective := strings.TrimSpace(strings.SplitN(m[1], ".", 2)[0])
			if len(objective) > 20 && len(objective) < 200 {
				objectives = append(objectives, objective)
			}
		}
		if m := metricsRe.FindStringSubmatch(cleaned); m != nil {
			for _, item := range splitListItems(m[1]) {
				if len(item) > 10 && len(item) < 150 && len(metrics) < 5 {
					metrics = append(metrics, item)
				}
			}
		}
	}

	var artifactItems strings.Builder
	for i, a := range ready {
		if i >= 5 {
			break
		}
		preview := ""
		if a.Summary != nil {
			preview = *a.Summary
		}
		if len(preview) < 50 {
			preview = extraction.Summarize(extraction.CleanMetadata(*a.ContentText), 300)
		}
		fmt.Fprintf(&artifactItems, "<li><strong>%s</strong><br>%s</li>",
			html.EscapeString(a.Filename), html.EscapeString(preview))
	}
	for i, a := range pending {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&artifactItems, "<li><strong>%s</strong> (extraction %s)</li>",
			html.EscapeString(a.Filename), html.EscapeString(a.ExtractionStatus))
	}
	if artifactItems.Len() == 0 {
		artifactItems.WriteString("<li>No supporting artifacts uploaded yet.</li>")
	}

	goals := objectives
	if len(goals) == 0 {
		goals = metrics
	}
	goalsHTML := "<ul><li>Deliver a high-confidence proposal with clear ROI evidence.</li>" +
		"<li>Align stakeholders on scope, constraints, and success metrics.</li>" +
		"<li>Ensure approvals are auditable via the stage timeline.</li></ul>"
	if len(goals) > 0 {
		var b strings.Builder
		b.WriteString("<ul>")
		for _, g := range goals {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(g))
		}
		b.WriteString("</ul>")
		goalsHTML = b.String()
	}

	parts := []string{
		"<h3>Executive Summary</h3>",
		fmt.Sprintf("<p>Project <strong>%s</strong> led by <strong>%s</strong> is currently tracking through the <em>%s</em> stage.</p>",
			html.EscapeString(detail.Estimate.Name), html.EscapeString(detail.Estimate.Owner), html.EscapeString(detail.Estimate.Stage)),
		"<h3>Goals &amp; Outcomes</h3>",
		goalsHTML,
		"<h3>Supporting Artifacts</h3>",
		"<ul>" + artifactItems.String() + "</ul>",
		"<h3>Next Steps</h3>",
		"<ol><li>Review this draft with delivery and finance stakeholders.</li>" +
			"<li>Capture final edits directly in the editor.</li>" +
			"<li>Approve to unlock the Requirements stage.</li></ol>",
	}
	return strings.Join(parts, "")
}

// ComposeRequirements строит нумерованный список требований из артефактов
func ComposeRequirements(detail *models.EstimateDetail) string {
	if detail == nil {
		return "<p>No requirement data available yet.</p>"
	}

	ready, pending := readyArtifacts(detail)

	var items strings.Builder
	index := 1

	for _, a := range ready {
		cleaned := extraction.CleanMetadata(*a.ContentText)
		for _, req := range parseRequirements(cleaned) {
			fmt.Fprintf(&items, "<li><strong>R%d.</strong> From <strong>%s</strong>: %s</li>",
				index, html.EscapeString(a.Filename), html.EscapeString(req))
			index++
		}
	}
	for _, a := range pending {
		fmt.Fprintf(&items, "<li><strong>R%d.</strong> Align insights from %s with stakeholder acceptance criteria. (extraction %s)</li>",
			index, html.EscapeString(a.Filename), html.EscapeString(a.ExtractionStatus))
		index++
	}
	if items.Len() == 0 {
		items.WriteString("<li><strong>R1.</strong> Capture baseline requirements once artifacts have been uploaded.</li>")
	}

	return "<h3>Functional Requirements</h3><ol>" + items.String() + "</ol>" +
		"<h3>Non-Functional Considerations</h3>" +
		"<ul><li>Security: Enforce principle of least privilege and log every approval.</li>" +
		"<li>Performance: Target sub-second responses for common approval actions.</li>" +
		"<li>Reliability: Provide a rollback path for every stage transition.</li></ul>"
}

func splitListItems(text string) []string {
	var items []string
	for _, part := range regexp.MustCompile(`[-•*]\s+`).Split(text, -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// parseRequirements извлекает отдельные требования: сначала нумерованные
// списки, затем маркеры внутри релевантных секций
func parseRequirements(content string) []string {
	var requirements []string
	seen := map[string]bool{}

	add := func(text string) {
		text = strings.TrimSpace(text)
		if len(text) > 20 && len(text) < 500 && !seen[text] && len(requirements) < 20 {
			seen[text] = true
			requirements = append(requirements, text)
		}
	}

	for _, m := range numberedRe.FindAllStringSubmatch(content, 15) {
		add(m[1])
	}

	if len(requirements) < 5 {
		inRelevant := false
		for _, line := range strings.Split(content, "\n") {
			if strings.HasPrefix(line, "##") {
				inRelevant = sectionRe.MatchString(line)
				continue
			}
			if inRelevant {
				if m := bulletRe.FindStringSubmatch(line); m != nil {
					add(m[1])
				}
			}
		}
	}

	if len(requirements) == 0 {
		for _, m := range bulletRe.FindAllStringSubmatch(content, 10) {
			add(m[1])
		}
	}

	return requirements
}
