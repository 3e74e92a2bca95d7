package models

// Workflow — рабочая область, к которой привязан запрос копайлота
const (
	WorkflowEstimates = "estimates"
	WorkflowContracts = "contracts"
)

// CopilotContext передаётся клиентом с каждым запросом, никакого
// серверного состояния между сообщениями нет
type CopilotContext struct {
	Workflow string `json:"workflow"`
	EntityID string `json:"entity_id"`
}

type ChatRequest struct {
	Message string         `json:"message"`
	Context CopilotContext `json:"context"`
}

type ChatResponse struct {
	Message string      `json:"message"`
	Action  string      `json:"action,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type AssistantMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
