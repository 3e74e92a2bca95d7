package quote

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/Jamolkhon5/dealdesk/internal/models"
)

type LineItem struct {
	TaskCode    string  `json:"taskCode"`
	Description string  `json:"description"`
	Role        string  `json:"role"`
	Hours       float64 `json:"hours"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
	Overridden  bool    `json:"overridden"`
}

type Totals struct {
	Currency    string             `json:"currency"`
	Lines       []LineItem         `json:"lines"`
	RoleSummary map[string]float64 `json:"roleSummary"`
	TotalHours  float64            `json:"totalHours"`
	TotalAmount float64            `json:"totalAmount"`
}

// CalculateTotals считает стоимость по строкам WBS: часы × ставка роли,
// с поштучными переопределениями суммы по task_code
func CalculateTotals(effort models.EffortEstimate, q models.Quote) Totals {
	rates := make(map[string]float64, len(q.Rates))
	for _, rate := range q.Rates {
		rates[rate.Role] = rate.HourlyRate
	}
	overrides := make(map[string]*float64, len(q.Overrides))
	for _, o := range q.Overrides {
		overrides[o.TaskCode] = o.Amount
	}

	totals := Totals{
		Currency:    q.Record.Currency,
		RoleSummary: make(map[string]float64),
	}
	for _, row := range effort.Rows {
		rate := rates[row.Role]
		amount := row.Hours * rate
		overridden := false
		taskCode := ""
		if row.TaskCode != nil {
			taskCode = *row.TaskCode
		}
		if ov, ok := overrides[taskCode]; ok && ov != nil {
			amount = *ov
			overridden = true
		}
		totals.Lines = append(totals.Lines, LineItem{
			TaskCode:    taskCode,
			Description: row.Description,
			Role:        row.Role,
			Hours:       row.Hours,
			Rate:        rate,
			Amount:      amount,
			Overridden:  overridden,
		})
		totals.RoleSummary[row.Role] += row.Hours
		totals.TotalHours += row.Hours
		totals.TotalAmount += amount
	}
	return totals
}

// BuildCSV формирует выгрузку квоты для скачивания
func BuildCSV(detail *models.EstimateDetail, totals Totals) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"Project", detail.Estimate.Name},
		{"Stage", detail.Estimate.Stage},
		{"Currency", totals.Currency},
		{},
		{"Task Code", "Description", "Role", "Hours", "Rate", "Amount"},
	}
	for _, line := range totals.Lines {
		rows = append(rows, []string{
			line.TaskCode,
			line.Description,
			line.Role,
			strconv.FormatFloat(line.Hours, 'f', -1, 64),
			strconv.FormatFloat(line.Rate, 'f', 2, 64),
			strconv.FormatFloat(line.Amount, 'f', 2, 64),
		})
	}
	rows = append(rows, []string{})

	roles := make([]string, 0, len(totals.RoleSummary))
	for role := range totals.RoleSummary {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		rows = append(rows, []string{
			fmt.Sprintf("Hours (%s)", role), "", "",
			strconv.FormatFloat(totals.RoleSummary[role], 'f', -1, 64), "", "",
		})
	}
	rows = append(rows,
		[]string{"Total Hours", "", "", strconv.FormatFloat(totals.TotalHours, 'f', -1, 64), "", ""},
		[]string{"Total Amount", "", "", "", "", strconv.FormatFloat(totals.TotalAmount, 'f', 2, 64)},
	)

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write quote csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush quote csv: %w", err)
	}
	return buf.Bytes(), nil
}
