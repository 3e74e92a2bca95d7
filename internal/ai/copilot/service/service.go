package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	aimodels "github.com/Jamolkhon5/dealdesk/internal/ai/copilot/models"
	"github.com/Jamolkhon5/dealdesk/internal/extraction"
	"github.com/Jamolkhon5/dealdesk/internal/gates"
	"github.com/Jamolkhon5/dealdesk/internal/models"
	"github.com/Jamolkhon5/dealdesk/internal/quote"
	"github.com/Jamolkhon5/dealdesk/internal/repository"
	"github.com/Jamolkhon5/dealdesk/internal/review"
	"github.com/Jamolkhon5/dealdesk/internal/stageestimate"
	"github.com/Jamolkhon5/dealdesk/internal/wbs"
)

type Copilot struct {
	repo          *repository.Repository
	analyzer      *IntentAnalyzer
	mistralApiKey string
	modelName     string
}

func NewCopilot(repo *repository.Repository, mistralApiKey, modelName string) *Copilot {
	return &Copilot{
		repo:          repo,
		analyzer:      NewIntentAnalyzer(),
		mistralApiKey: mistralApiKey,
		modelName:     modelName,
	}
}

// HandleMessage разбирает сообщение, выполняет подходящий инструмент,
// иначе отдаёт запрос модели вместе со снимком сущности
func (c *Copilot) HandleMessage(req aimodels.ChatRequest) (*aimodels.ChatResponse, error) {
	ctx := req.Context
	if ctx.Workflow != aimodels.WorkflowEstimates && ctx.Workflow != aimodels.WorkflowContracts {
		return nil, fmt.Errorf("unknown workflow %q", ctx.Workflow)
	}
	if ctx.EntityID == "" {
		return nil, fmt.Errorf("entity_id is required")
	}

	intent := c.analyzer.AnalyzeMessage(req.Message, ctx.Workflow)

	switch intent.Type {
	case IntentSummarizeBusinessCase:
		return c.summarizeSection(ctx.EntityID, "Business Case")
	case IntentSummarizeRequirements:
		return c.summarizeSection(ctx.EntityID, "Requirements")
	case IntentGenerateWbs:
		return c.generateWbs(ctx.EntityID)
	case IntentProjectTotal:
		return c.projectTotal(ctx.EntityID)
	case IntentCreateAgreements:
		return c.createAgreements(ctx.EntityID)
	case IntentAddNote:
		return c.addNote(ctx.EntityID, req.Message)
	case IntentApplyProposals:
		return c.applyProposals(ctx.EntityID)
	}

	return c.fallback(req)
}

func (c *Copilot) summarizeSection(estimateID, section string) (*aimodels.ChatResponse, error) {
	detail, err := c.repo.FetchEstimateDetail(estimateID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("estimate %s not found", estimateID)
	}

	var content *string
	switch section {
	case "Business Case":
		content = detail.BusinessCase.Content
	case "Requirements":
		content = detail.Requirements.Content
	}

	if content == nil || gates.ExtractPlainText(*content) == "" {
		return &aimodels.ChatResponse{
			Message: fmt.Sprintf("The %s for %s is still empty. Generate or write a draft first.", section, detail.Estimate.Name),
		}, nil
	}

	summary := extraction.Summarize(gates.ExtractPlainText(*content), 400)
	return &aimodels.ChatResponse{
		Message: fmt.Sprintf("%s summary for %s: %s", section, detail.Estimate.Name, summary),
	}, nil
}

func (c *Copilot) generateWbs(estimateID string) (*aimodels.ChatResponse, error) {
	detail, err := c.repo.FetchEstimateDetail(estimateID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("estimate %s not found", estimateID)
	}

	generated := wbs.Generate(detail)
	inputs := make([]models.WbsRowInput, 0, len(generated))
	for _, row := range generated {
		row := row
		inputs = append(inputs, models.WbsRowInput{
			TaskCode:    &row.TaskCode,
			Description: row.Description,
			Role:        row.Role,
			Hours:       row.Hours,
			Assumptions: &row.Assumptions,
		})
	}

	if err := c.repo.ReplaceWbsRows(estimateID, wbs.SanitizeRows(inputs)); err != nil {
		return nil, err
	}
	if err := c.repo.TouchEstimate(estimateID); err != nil {
		return nil, err
	}

	return &aimodels.ChatResponse{
		Message: fmt.Sprintf("Drafted %d WBS rows for %s. Review and adjust hours before approving.", len(inputs), detail.Estimate.Name),
		Action:  "wbs_generated",
		Data:    generated,
	}, nil
}

func (c *Copilot) projectTotal(estimateID string) (*aimodels.ChatResponse, error) {
	detail, err := c.repo.FetchEstimateDetail(estimateID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("estimate %s not found", estimateID)
	}

	totals := quote.CalculateTotals(detail.EffortEstimate, detail.Quote)
	if totals.TotalHours == 0 {
		return &aimodels.ChatResponse{
			Message: fmt.Sprintf("%s has no estimated hours yet. Build the WBS first.", detail.Estimate.Name),
		}, nil
	}

	return &aimodels.ChatResponse{
		Message: fmt.Sprintf("%s totals %.1f hours at %.2f %s.",
			detail.Estimate.Name, totals.TotalHours, totals.TotalAmount, totals.Currency),
		Action: "project_total",
		Data:   totals,
	}, nil
}

// createAgreements заводит пару MSA + SOW, привязанную к оценке
func (c *Copilot) createAgreements(estimateID string) (*aimodels.ChatResponse, error) {
	detail, err := c.repo.FetchEstimateDetail(estimateID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("estimate %s not found", estimateID)
	}

	payload := stageestimate.Build(detail)
	sowContent := composeSowContent(payload)

	msa, err := c.repo.CreateAgreement(models.AgreementTypeMSA, detail.Estimate.Name, "", &estimateID)
	if err != nil {
		return nil, err
	}
	sow, err := c.repo.CreateAgreement(models.AgreementTypeSOW, detail.Estimate.Name, sowContent, &estimateID)
	if err != nil {
		return nil, err
	}

	return &aimodels.ChatResponse{
		Message: fmt.Sprintf("Created an MSA and a SOW for %s, both linked to this estimate.", detail.Estimate.Name),
		Action:  "agreements_created",
		Data:    []models.AgreementRecord{*msa, *sow},
	}, nil
}

func composeSowContent(payload stageestimate.Payload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Statement of Work for %s.\n\n", payload.ProjectName)
	fmt.Fprintf(&b, "Estimated effort: %.1f hours.\n", payload.TotalHours)
	if payload.PaymentTerms != "" {
		fmt.Fprintf(&b, "Payment terms: %s.\n", payload.PaymentTerms)
	}
	if payload.DeliveryTimeline != "" {
		fmt.Fprintf(&b, "Delivery timeline: %s.\n", payload.DeliveryTimeline)
	}
	if len(payload.Rows) > 0 {
		b.WriteString("\nScope of work:\n")
		for _, row := range payload.Rows {
			fmt.Fprintf(&b, "- %s (%s, %.1f hours)\n", row.Description, row.Role, row.Hours)
		}
	}
	return b.String()
}

func (c *Copilot) addNote(agreementID, message string) (*aimodels.ChatResponse, error) {
	detail, err := c.repo.FetchAgreementDetail(agreementID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("agreement %s not found", agreementID)
	}

	author := "Copilot"
	note, err := c.repo.AddAgreementNote(agreementID, message, nil, &author)
	if err != nil {
		return nil, err
	}

	return &aimodels.ChatResponse{
		Message: fmt.Sprintf("Noted on the %s with %s.", detail.Type, detail.Counterparty),
		Action:  "note_added",
		Data:    note,
	}, nil
}

// applyProposals прогоняет ревью по последнему черновику и фиксирует
// принятый текст новой версией договора
func (c *Copilot) applyProposals(agreementID string) (*aimodels.ChatResponse, error) {
	detail, err := c.repo.FetchAgreementDetail(agreementID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("agreement %s not found", agreementID)
	}

	content := detail.Content
	draft, err := c.repo.LatestReviewDraft(agreementID)
	if err != nil {
		return nil, err
	}
	if draft != nil && draft.Content != nil && *draft.Content != "" {
		content = *draft.Content
	}

	policies, err := c.repo.ListPolicies()
	if err != nil {
		return nil, err
	}
	plain := make([]models.ContractPolicy, 0, len(policies))
	for _, p := range policies {
		plain = append(plain, p.ContractPolicy)
	}

	response := review.BuildProposals(content, plain)
	accepted := make([]string, 0, len(response.Proposals))
	for _, p := range response.Proposals {
		accepted = append(accepted, p.ID)
	}
	updated := review.ApplyProposals(content, response.Proposals, accepted)

	author := "Copilot"
	version, err := c.repo.CreateAgreementVersion(agreementID, models.VersionPayload{
		Content:          updated,
		CreatedBy:        &author,
		ProposalsApplied: accepted,
	})
	if err != nil {
		return nil, err
	}

	return &aimodels.ChatResponse{
		Message: fmt.Sprintf("Applied %d proposal(s) and saved version %d.", len(accepted), version.VersionNumber),
		Action:  "proposals_applied",
		Data:    version,
	}, nil
}

// fallback передаёт вопрос модели, добавляя снимок сущности системным сообщением
func (c *Copilot) fallback(req aimodels.ChatRequest) (*aimodels.ChatResponse, error) {
	snapshot, err := c.entitySnapshot(req.Context)
	if err != nil {
		return nil, err
	}

	messages := []aimodels.AssistantMessage{
		{
			Role: "system",
			Content: "You are the deal desk copilot. Answer questions about the current " +
				req.Context.Workflow + " entity using the JSON snapshot below. Be concise.\n\n" + snapshot,
		},
		{Role: "user", Content: req.Message},
	}

	answer, err := c.SendMistralRequest(messages)
	if err != nil {
		return nil, err
	}
	return &aimodels.ChatResponse{Message: answer}, nil
}

func (c *Copilot) entitySnapshot(ctx aimodels.CopilotContext) (string, error) {
	var entity interface{}
	switch ctx.Workflow {
	case aimodels.WorkflowEstimates:
		detail, err := c.repo.FetchEstimateDetail(ctx.EntityID)
		if err != nil {
			return "", err
		}
		if detail == nil {
			return "", fmt.Errorf("estimate %s not found", ctx.EntityID)
		}
		entity = stageestimate.Build(detail)
	case aimodels.WorkflowContracts:
		detail, err := c.repo.FetchAgreementDetail(ctx.EntityID)
		if err != nil {
			return "", err
		}
		if detail == nil {
			return "", fmt.Errorf("agreement %s not found", ctx.EntityID)
		}
		entity = detail
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Copilot) SendMistralRequest(messages []aimodels.AssistantMessage) (string, error) {
	requestBody := map[string]interface{}{
		"model":    c.modelName,
		"messages": messages,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("ошибка при маршалинге запроса: %w", err)
	}

	req, err := http.NewRequest("POST", "https://api.mistral.ai/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.mistralApiKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка при отправке запроса: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ошибка при декодировании ответа: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("пустой ответ от API")
	}

	return result.Choices[0].Message.Content, nil
}
