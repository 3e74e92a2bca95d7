package handler

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Jamolkhon5/dealdesk/internal/drafts"
	"github.com/Jamolkhon5/dealdesk/internal/extraction"
	"github.com/Jamolkhon5/dealdesk/internal/gates"
	"github.com/Jamolkhon5/dealdesk/internal/models"
	"github.com/Jamolkhon5/dealdesk/internal/quote"
	"github.com/Jamolkhon5/dealdesk/internal/stageestimate"
	"github.com/Jamolkhon5/dealdesk/internal/stages"
	"github.com/Jamolkhon5/dealdesk/internal/storage"
	"github.com/Jamolkhon5/dealdesk/internal/wbs"
)

const maxArtifactSize = 20 << 20 // 20 MB

type estimateDetailResponse struct {
	*models.EstimateDetail
	StageGates gates.StageGates `json:"stage_gates"`
}

func (h *Handler) ListEstimates(w http.ResponseWriter, r *http.Request) {
	estimates, err := h.repo.ListEstimates()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]models.EstimateListItem, 0, len(estimates))
	for _, e := range estimates {
		items = append(items, models.EstimateListItem{
			ID:          e.ID,
			Name:        e.Name,
			Owner:       e.Owner,
			Stage:       e.Stage,
			LastUpdated: e.UpdatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Owner string `json:"owner"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Owner = strings.TrimSpace(req.Owner)
	if req.Name == "" || req.Owner == "" {
		h.writeError(w, http.StatusBadRequest, "name and owner are required")
		return
	}

	est, err := h.repo.CreateEstimate(req.Name, req.Owner)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.repo.LogTimeline(est.ID, stages.Artifacts, "Estimate created", req.Owner, nil); err != nil {
		log.Printf("log timeline: %v", err)
	}
	h.invalidateDashboard(r.Context())

	h.writeJSON(w, http.StatusCreated, est)
}

func (h *Handler) GetEstimate(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, estimateDetailResponse{
		EstimateDetail: detail,
		StageGates:     gates.Evaluate(detail, ""),
	})
}

// PatchEstimate обрабатывает действия advance, approve и changeStage
func (h *Handler) PatchEstimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action            string  `json:"action"`
		Actor             string  `json:"actor"`
		TargetStage       string  `json:"targetStage"`
		Notes             *string `json:"notes"`
		DraftPaymentTerms string  `json:"draftPaymentTerms"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Actor == "" {
		req.Actor = DefaultActor
	}

	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}
	current := detail.Estimate.Stage

	switch req.Action {
	case "advance":
		if !stages.IsValid(current) {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Estimate is in unknown stage %q", current))
			return
		}
		if stages.IsFinal(current) {
			h.writeError(w, http.StatusBadRequest, "Estimate is already at the final stage")
			return
		}
		gateState := gates.Evaluate(detail, req.DraftPaymentTerms)
		if info, found := gateState[current]; found && !info.CanAdvance {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Stage gates for %s are not satisfied", current))
			return
		}
		next := stages.Next(current)
		if err := h.repo.UpdateEstimateStage(detail.Estimate.ID, next); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		action := fmt.Sprintf("Advanced to %s", next)
		if err := h.repo.LogTimeline(detail.Estimate.ID, next, action, req.Actor, req.Notes); err != nil {
			log.Printf("log timeline: %v", err)
		}

	case "approve":
		action := fmt.Sprintf("%s approved", current)
		if err := h.repo.LogTimeline(detail.Estimate.ID, current, action, req.Actor, req.Notes); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

	case "changeStage":
		if !stages.IsValid(req.TargetStage) {
			h.writeError(w, http.StatusBadRequest, "Unknown stage")
			return
		}
		// назад можно всегда, вперёд только через advance
		if stages.Index(req.TargetStage) >= stages.Index(current) {
			h.writeError(w, http.StatusBadRequest, "Use advance to move forward")
			return
		}
		if err := h.repo.UpdateEstimateStage(detail.Estimate.ID, req.TargetStage); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		action := fmt.Sprintf("Returned to %s", req.TargetStage)
		if err := h.repo.LogTimeline(detail.Estimate.ID, req.TargetStage, action, req.Actor, req.Notes); err != nil {
			log.Printf("log timeline: %v", err)
		}

	default:
		h.writeError(w, http.StatusBadRequest, "Unknown action")
		return
	}

	h.invalidateDashboard(r.Context())
	h.respondWithDetail(w, detail.Estimate.ID)
}

func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}
	artifacts := detail.Artifacts
	for i := range artifacts {
		artifacts[i].PublicURL = h.store.PublicURL(artifacts[i].StoragePath)
	}
	h.writeJSON(w, http.StatusOK, artifacts)
}

func (h *Handler) UploadArtifact(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxArtifactSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxArtifactSize+1))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(data) > maxArtifactSize {
		h.writeError(w, http.StatusRequestEntityTooLarge, "File exceeds 20 MB limit")
		return
	}

	uploadedBy := r.FormValue("uploadedBy")
	if uploadedBy == "" {
		uploadedBy = DefaultActor
	}

	key := storage.ArtifactPrefix + detail.Estimate.ID + "/" + header.Filename
	contentType := header.Header.Get("Content-Type")
	if err := h.store.Upload(r.Context(), key, data, contentType); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	size := int64(len(data))
	artifact := models.ArtifactRecord{
		EstimateID:  detail.Estimate.ID,
		Filename:    header.Filename,
		StoragePath: key,
		SizeBytes:   &size,
		UploadedBy:  &uploadedBy,
	}
	if extraction.DetectFileType(header.Filename, contentType) == extraction.FileTypeUnknown {
		artifact.ExtractionStatus = models.ExtractionStatusSkipped
	}
	if err := h.repo.InsertArtifact(&artifact); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.repo.LogTimeline(detail.Estimate.ID, stages.Artifacts,
		fmt.Sprintf("Artifact %s uploaded", header.Filename), uploadedBy, nil); err != nil {
		log.Printf("log timeline: %v", err)
	}
	if err := h.repo.TouchEstimate(detail.Estimate.ID); err != nil {
		log.Printf("touch estimate: %v", err)
	}

	// извлечение текста идёт в фоне, со своим таймаутом
	if artifact.ExtractionStatus != models.ExtractionStatusSkipped {
		go h.extractArtifact(artifact.ID, data, header.Filename, contentType)
	}

	artifact.PublicURL = h.store.PublicURL(key)
	h.writeJSON(w, http.StatusCreated, artifact)
}

func (h *Handler) extractArtifact(artifactID string, data []byte, filename, contentType string) {
	result, err := extraction.Extract(data, filename, contentType)
	if err != nil {
		msg := err.Error()
		if updErr := h.repo.UpdateArtifactExtraction(artifactID, models.ExtractionStatusFailed, nil, nil, nil, &msg); updErr != nil {
			log.Printf("mark extraction failed for %s: %v", artifactID, updErr)
		}
		return
	}

	err = h.repo.UpdateArtifactExtraction(artifactID, models.ExtractionStatusReady,
		&result.ContentText, &result.ContentHTML, &result.Summary, nil)
	if err != nil {
		log.Printf("save extraction for %s: %v", artifactID, err)
	}
}

func (h *Handler) GetBusinessCase(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, detail.BusinessCase)
}

func (h *Handler) PatchBusinessCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  *string `json:"content"`
		Approved *bool   `json:"approved"`
		Actor    string  `json:"actor"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Actor == "" {
		req.Actor = DefaultActor
	}

	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}

	if err := h.repo.UpsertBusinessCase(detail.Estimate.ID, req.Content, req.Approved, &req.Actor); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.Approved != nil && *req.Approved {
		if err := h.repo.LogTimeline(detail.Estimate.ID, stages.BusinessCase, "Business Case approved", req.Actor, nil); err != nil {
			log.Printf("log timeline: %v", err)
		}
	}
	h.respondWithDetail(w, detail.Estimate.ID)
}

func (h *Handler) GenerateBusinessCase(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}

	content := drafts.ComposeBusinessCase(detail)
	approved := false
	if err := h.repo.UpsertBusinessCase(detail.Estimate.ID, &content, &approved, nil); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.repo.LogTimeline(detail.Estimate.ID, stages.BusinessCase, "Business Case generated by Copilot", "Copilot", nil); err != nil {
		log.Printf("log timeline: %v", err)
	}
	h.respondWithDetail(w, detail.Estimate.ID)
}

func (h *Handler) GetRequirements(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, detail.Requirements)
}

func (h *Handler) PatchRequirements(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content   *string `json:"content"`
		Validated *bool   `json:"validated"`
		Actor     string  `json:"actor"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Actor == "" {
		req.Actor = DefaultActor
	}

	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}

	if err := h.repo.UpsertRequirements(detail.Estimate.ID, req.Content, req.Validated, &req.Actor); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.Validated != nil && *req.Validated {
		if err := h.repo.LogTimeline(detail.Estimate.ID, stages.Requirements, "Requirements validated", req.Actor, nil); err != nil {
			log.Printf("log timeline: %v", err)
		}
	}
	h.respondWithDetail(w, detail.Estimate.ID)
}

func (h *Handler) GenerateRequirements(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}

	content := drafts.ComposeRequirements(detail)
	validated := false
	if err := h.repo.UpsertRequirements(detail.Estimate.ID, &content, &validated, nil); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.repo.LogTimeline(detail.Estimate.ID, stages.Requirements, "Requirements generated by Copilot", "Copilot", nil); err != nil {
		log.Printf("log timeline: %v", err)
	}
	h.respondWithDetail(w, detail.Estimate.ID)
}

func (h *Handler) PatchSolutionArchitecture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  *string `json:"content"`
		Approved *bool   `json:"approved"`
		Actor    string  `json:"actor"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Actor == "" {
		req.Actor = DefaultActor
	}

	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}

	if err := h.repo.UpsertSolutionArchitecture(detail.Estimate.ID, req.Content, req.Approved, &req.Actor); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.Approved != nil && *req.Approved {
		if err := h.repo.LogTimeline(detail.Estimate.ID, stages.SolutionArchitecture, "Solution & Architecture approved", req.Actor, nil); err != nil {
			log.Printf("log timeline: %v", err)
		}
	}
	h.respondWithDetail(w, detail.Estimate.ID)
}

func (h *Handler) GetEffort(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, detail.EffortEstimate)
}

// PatchEffort заменяет строки WBS; action=approve фиксирует утверждённую версию
func (h *Handler) PatchEffort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows   []models.WbsRowInput `json:"rows"`
		Action string               `json:"action"`
		Actor  string               `json:"actor"`
		Notes  *string              `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Actor == "" {
		req.Actor = DefaultActor
	}

	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}

	if req.Rows != nil {
		if err := h.repo.ReplaceWbsRows(detail.Estimate.ID, wbs.SanitizeRows(req.Rows)); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if req.Action == "approve" {
		version, err := h.repo.CreateWbsVersion(detail.Estimate.ID, &req.Actor, req.Notes)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		action := fmt.Sprintf("Effort estimate v%d approved", version.VersionNumber)
		if err := h.repo.LogTimeline(detail.Estimate.ID, stages.EffortEstimate, action, req.Actor, req.Notes); err != nil {
			log.Printf("log timeline: %v", err)
		}
	}

	if err := h.repo.TouchEstimate(detail.Estimate.ID); err != nil {
		log.Printf("touch estimate: %v", err)
	}
	h.respondWithDetail(w, detail.Estimate.ID)
}

func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}
	totals := quote.CalculateTotals(detail.EffortEstimate, detail.Quote)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"quote":  detail.Quote,
		"totals": totals,
	})
}

// PatchQuote меняет условия, ставки и переопределения. После delivered
// правки закрыты, если не передан adminOverride
func (h *Handler) PatchQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency         *string                      `json:"currency"`
		PaymentTerms     *string                      `json:"paymentTerms"`
		DeliveryTimeline *string                      `json:"deliveryTimeline"`
		Rates            []models.QuoteRateInput      `json:"rates"`
		Overrides        []models.QuoteOverrideInput  `json:"overrides"`
		Delivered        *bool                        `json:"delivered"`
		AdminOverride    bool                         `json:"adminOverride"`
		Actor            string                       `json:"actor"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Actor == "" {
		req.Actor = DefaultActor
	}

	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}

	if detail.Quote.Record.Delivered && !req.AdminOverride {
		h.writeError(w, http.StatusConflict, "Quote has been delivered and is locked")
		return
	}

	if req.Currency != nil || req.PaymentTerms != nil || req.DeliveryTimeline != nil {
		if err := h.repo.UpdateQuoteRecord(detail.Estimate.ID, req.Currency, req.PaymentTerms, req.DeliveryTimeline); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.Rates != nil {
		if err := h.repo.ReplaceQuoteRates(detail.Estimate.ID, req.Rates); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.Overrides != nil {
		if err := h.repo.ReplaceQuoteOverrides(detail.Estimate.ID, req.Overrides); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.Delivered != nil && *req.Delivered {
		if err := h.repo.MarkQuoteDelivered(detail.Estimate.ID, req.Actor); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := h.repo.LogTimeline(detail.Estimate.ID, stages.Quote, "Quote delivered", req.Actor, nil); err != nil {
			log.Printf("log timeline: %v", err)
		}
	}

	if err := h.repo.TouchEstimate(detail.Estimate.ID); err != nil {
		log.Printf("touch estimate: %v", err)
	}
	h.respondWithDetail(w, detail.Estimate.ID)
}

func (h *Handler) ExportQuoteCSV(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}

	totals := quote.CalculateTotals(detail.EffortEstimate, detail.Quote)
	data, err := quote.BuildCSV(detail, totals)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("quote-%s.csv", detail.Estimate.ID)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("write csv: %v", err)
	}
}

func (h *Handler) StageEstimate(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchDetail(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, stageestimate.Build(detail))
}

func (h *Handler) fetchDetail(w http.ResponseWriter, r *http.Request) (*models.EstimateDetail, bool) {
	id := chi.URLParam(r, "id")
	detail, err := h.repo.FetchEstimateDetail(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if detail == nil {
		h.writeError(w, http.StatusNotFound, "Estimate not found")
		return nil, false
	}
	return detail, true
}

func (h *Handler) respondWithDetail(w http.ResponseWriter, estimateID string) {
	detail, err := h.repo.FetchEstimateDetail(estimateID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, estimateDetailResponse{
		EstimateDetail: detail,
		StageGates:     gates.Evaluate(detail, ""),
	})
}
