package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Jamolkhon5/dealdesk/internal/ai/copilot/models"
	"github.com/Jamolkhon5/dealdesk/internal/ai/copilot/service"
	"github.com/Jamolkhon5/dealdesk/internal/repository"
)

type CopilotHandler struct {
	copilot *service.Copilot
}

func NewCopilotHandler(repo *repository.Repository, mistralApiKey, modelName string) *CopilotHandler {
	return &CopilotHandler{
		copilot: service.NewCopilot(repo, mistralApiKey, modelName),
	}
}

func (h *CopilotHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	response, err := h.copilot.HandleMessage(req)
	if err != nil {
		log.Printf("copilot: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("copilot: encode response: %v", err)
	}
}

// RegisterRoutes регистрирует маршруты копайлота
func (h *CopilotHandler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/ai/copilot/chat", h.Chat)
}
