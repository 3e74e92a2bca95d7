package wbs

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/Jamolkhon5/dealdesk/internal/models"
)

type GeneratedRow struct {
	TaskCode    string  `json:"taskCode"`
	Description string  `json:"description"`
	Role        string  `json:"role"`
	Hours       float64 `json:"hours"`
	Assumptions string  `json:"assumptions"`
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// ExtractRequirementHighlights берёт первые осмысленные строки требований
func ExtractRequirementHighlights(content *string, maxCount int) []string {
	if content == nil || *content == "" {
		return nil
	}
	plain := tagRe.ReplaceAllString(*content, "\n")
	plain = strings.ReplaceAll(plain, "&nbsp;", " ")
	var highlights []string
	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		highlights = append(highlights, line)
		if len(highlights) >= maxCount {
			break
		}
	}
	return highlights
}

// Generate строит черновой WBS из артефактов и требований оценки.
// Шаблонные строки фиксированы, чтобы черновик всегда был пригоден к правке.
func Generate(detail *models.EstimateDetail) []GeneratedRow {
	highlights := ExtractRequirementHighlights(detail.Requirements.Content, 3)

	var rows []GeneratedRow
	artifacts := detail.Artifacts
	if len(artifacts) > 2 {
		artifacts = artifacts[:2]
	}
	for _, artifact := range artifacts {
		prefix := strings.ToUpper(artifact.Filename)
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
		rows = append(rows, GeneratedRow{
			TaskCode:    fmt.Sprintf("ART-%s-%d", prefix, rand.Intn(900)+100),
			Description: fmt.Sprintf("Ingest %s and capture key deliverables.", artifact.Filename),
			Role:        "Discovery Lead",
			Hours:       6,
			Assumptions: "Focus on scope and constraints documented in the artifact.",
		})
	}

	rows = append(rows,
		GeneratedRow{
			TaskCode:    "DISC-101",
			Description: "Run discovery + alignment workshop with stakeholders.",
			Role:        "Engagement Lead",
			Hours:       12,
			Assumptions: "Stakeholders available for two 90-min sessions.",
		},
		GeneratedRow{
			TaskCode:    "ARCH-110",
			Description: "Draft solution approach covering architecture, risks, and dependencies.",
			Role:        "Solutions Architect",
			Hours:       16,
			Assumptions: "Re-use previous architectures referenced in Business Case where applicable.",
		},
		GeneratedRow{
			TaskCode:    "PLAN-210",
			Description: "Translate requirements into role-based task plan with sequencing.",
			Role:        "Project Planner",
			Hours:       10,
			Assumptions: "Requirements are validated and signed off.",
		},
		GeneratedRow{
			TaskCode:    "BACK-330",
			Description: "Estimate backend/API build tasks aligned to requirements.",
			Role:        "Backend Engineer",
			Hours:       32,
			Assumptions: "Includes CRUD endpoints and integrations already scoped.",
		},
		GeneratedRow{
			TaskCode:    "QA-450",
			Description: "Define QA strategy, write smoke/regression plan, and size effort.",
			Role:        "QA Lead",
			Hours:       14,
			Assumptions: "Automation not in scope for initial delivery.",
		},
	)

	for i, highlight := range highlights {
		role := "Business Analyst"
		if i%2 == 1 {
			role = "Technical Lead"
		}
		rows = append(rows, GeneratedRow{
			TaskCode:    fmt.Sprintf("REQ-%d", i+1),
			Description: fmt.Sprintf("Deep dive requirement: %s", highlight),
			Role:        role,
			Hours:       float64(6 + i*2),
			Assumptions: "Assumes requirement remains in scope for current release.",
		})
	}

	for i := range rows {
		if rows[i].TaskCode == "" {
			rows[i].TaskCode = fmt.Sprintf("WBS-%03d", i+1)
		}
		if rows[i].Hours < 1 {
			rows[i].Hours = 1
		}
	}
	return rows
}

// SanitizeRows отбрасывает пустые строки и приводит часы к числу
func SanitizeRows(rows []models.WbsRowInput) []models.WbsRowInput {
	var out []models.WbsRowInput
	for _, row := range rows {
		row.Description = strings.TrimSpace(row.Description)
		row.Role = strings.TrimSpace(row.Role)
		if row.Hours < 0 {
			row.Hours = 0
		}
		if row.TaskCode != nil {
			code := strings.TrimSpace(*row.TaskCode)
			if code == "" {
				row.TaskCode = nil
			} else {
				row.TaskCode = &code
			}
		}
		if row.Assumptions != nil {
			a := strings.TrimSpace(*row.Assumptions)
			if a == "" {
				row.Assumptions = nil
			} else {
				row.Assumptions = &a
			}
		}
		if row.Description == "" || row.Role == "" {
			continue
		}
		out = append(out, row)
	}
	return out
}
