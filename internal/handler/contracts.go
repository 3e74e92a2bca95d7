package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Jamolkhon5/dealdesk/internal/extraction"
	"github.com/Jamolkhon5/dealdesk/internal/gates"
	"github.com/Jamolkhon5/dealdesk/internal/models"
	"github.com/Jamolkhon5/dealdesk/internal/repository"
	"github.com/Jamolkhon5/dealdesk/internal/review"
	"github.com/Jamolkhon5/dealdesk/internal/stageestimate"
	"github.com/Jamolkhon5/dealdesk/internal/storage"
	"github.com/Jamolkhon5/dealdesk/internal/validation"
)

func (h *Handler) ListAgreements(w http.ResponseWriter, r *http.Request) {
	agreements, err := h.repo.ListAgreements()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, agreements)
}

func (h *Handler) CreateAgreement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type             string  `json:"type"`
		Counterparty     string  `json:"counterparty"`
		Content          string  `json:"content"`
		LinkedEstimateID *string `json:"linked_estimate_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if !models.IsValidAgreementType(req.Type) {
		h.writeError(w, http.StatusBadRequest, "type must be one of MSA, SOW, NDA, Addendum")
		return
	}
	req.Counterparty = strings.TrimSpace(req.Counterparty)
	if req.Counterparty == "" {
		h.writeError(w, http.StatusBadRequest, "counterparty is required")
		return
	}

	if req.LinkedEstimateID != nil && *req.LinkedEstimateID != "" {
		est, err := h.repo.GetEstimate(*req.LinkedEstimateID)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if est == nil {
			h.writeError(w, http.StatusBadRequest, "Linked estimate not found")
			return
		}
	} else {
		req.LinkedEstimateID = nil
	}

	agreement, err := h.repo.CreateAgreement(req.Type, req.Counterparty, req.Content, req.LinkedEstimateID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.invalidateDashboard(r.Context())
	h.writeJSON(w, http.StatusCreated, agreement)
}

func (h *Handler) GetAgreement(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchAgreement(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) PatchAgreement(w http.ResponseWriter, r *http.Request) {
	var payload models.AgreementPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if payload.Type != nil && !models.IsValidAgreementType(*payload.Type) {
		h.writeError(w, http.StatusBadRequest, "type must be one of MSA, SOW, NDA, Addendum")
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.repo.UpdateAgreement(id, payload)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if updated == nil {
		h.writeError(w, http.StatusNotFound, "Agreement not found")
		return
	}

	h.invalidateDashboard(r.Context())
	h.respondWithAgreement(w, id)
}

// AutosaveAgreement сохраняет черновик с оптимистичной блокировкой.
// Устаревшая версия получает 409 и текущее состояние для пересинхронизации
func (h *Handler) AutosaveAgreement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentHTML string `json:"content_html"`
		ContentText string `json:"content_text"`
		BaseVersion int    `json:"base_version"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.ContentText == "" && req.ContentHTML != "" {
		req.ContentText = gates.ExtractPlainText(req.ContentHTML)
	}

	id := chi.URLParam(r, "id")
	agreement, err := h.repo.AutosaveAgreement(id, req.ContentHTML, req.ContentText, req.BaseVersion)
	if errors.Is(err, repository.ErrVersionConflict) {
		h.writeJSON(w, http.StatusConflict, map[string]interface{}{
			"conflict":  true,
			"agreement": agreement,
		})
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if agreement == nil {
		h.writeError(w, http.StatusNotFound, "Agreement not found")
		return
	}
	h.writeJSON(w, http.StatusOK, agreement)
}

func (h *Handler) CreateAgreementVersion(w http.ResponseWriter, r *http.Request) {
	var payload models.VersionPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Content) == "" {
		h.writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	id := chi.URLParam(r, "id")
	version, err := h.repo.CreateAgreementVersion(id, payload)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if version == nil {
		h.writeError(w, http.StatusNotFound, "Agreement not found")
		return
	}

	if len(payload.ProposalsApplied) > 0 {
		note := fmt.Sprintf("Version %d applied %d review proposal(s)", version.VersionNumber, len(payload.ProposalsApplied))
		if _, err := h.repo.AddAgreementNote(id, note, &version.ID, nil); err != nil {
			log.Printf("add version note: %v", err)
		}
	}

	h.writeJSON(w, http.StatusCreated, version)
}

func (h *Handler) AddAgreementNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NoteText  string  `json:"note_text"`
		VersionID *string `json:"version_id"`
		CreatedBy *string `json:"created_by"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.NoteText) == "" {
		h.writeError(w, http.StatusBadRequest, "note_text is required")
		return
	}

	detail, ok := h.fetchAgreement(w, r)
	if !ok {
		return
	}

	note, err := h.repo.AddAgreementNote(detail.ID, req.NoteText, req.VersionID, req.CreatedBy)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, note)
}

// UploadReviewDraft принимает файл клиента (multipart) или вставленный текст (JSON)
func (h *Handler) UploadReviewDraft(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchAgreement(w, r)
	if !ok {
		return
	}

	var content, filename string
	var uploadedBy *string
	var data []byte

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
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

		data, err = io.ReadAll(io.LimitReader(file, maxArtifactSize+1))
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		filename = header.Filename
		if by := r.FormValue("uploadedBy"); by != "" {
			uploadedBy = &by
		}

		if result, err := extraction.Extract(data, filename, header.Header.Get("Content-Type")); err == nil {
			content = result.ContentText
		} else {
			content = string(data)
		}
	} else {
		var req struct {
			Content    string  `json:"content"`
			Filename   string  `json:"filename"`
			UploadedBy *string `json:"uploadedBy"`
		}
		if !h.decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			h.writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		content = req.Content
		filename = req.Filename
		if filename == "" {
			filename = "pasted-draft.txt"
		}
		uploadedBy = req.UploadedBy
		data = []byte(req.Content)
	}

	key := storage.ContractDraftPrefix + detail.ID + "/" + filename
	if err := h.store.Upload(r.Context(), key, data, "text/plain"); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	draft, err := h.repo.SaveReviewDraft(detail.ID, key, &content, uploadedBy)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, draft)
}

func (h *Handler) ListReviewDrafts(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchAgreement(w, r)
	if !ok {
		return
	}

	drafts, err := h.repo.ListReviewDrafts(detail.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, drafts)
}

// ReviewAgreement строит предложения правок по внутренним политикам.
// Проверяется последний загруженный черновик, при его отсутствии текущее содержимое
func (h *Handler) ReviewAgreement(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchAgreement(w, r)
	if !ok {
		return
	}

	content := detail.Content
	draft, err := h.repo.LatestReviewDraft(detail.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if draft != nil && draft.Content != nil && *draft.Content != "" {
		content = *draft.Content
	}

	policies, err := h.repo.ListPolicies()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	plain := make([]models.ContractPolicy, 0, len(policies))
	for _, p := range policies {
		plain = append(plain, p.ContractPolicy)
	}

	response := review.BuildProposals(content, plain)
	h.writeJSON(w, http.StatusOK, response)
}

// ValidateAgreement сверяет SOW с привязанной оценкой
func (h *Handler) ValidateAgreement(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.fetchAgreement(w, r)
	if !ok {
		return
	}
	if detail.Type != models.AgreementTypeSOW {
		h.writeError(w, http.StatusBadRequest, "Validation is only available for SOW agreements")
		return
	}

	if detail.LinkedEstimateID == nil {
		result := validation.BuildResult(nil)
		result.Summary = "No linked estimate. Link an estimate to validate this SOW."
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	estimateDetail, err := h.repo.FetchEstimateDetail(*detail.LinkedEstimateID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if estimateDetail == nil {
		result := validation.BuildResult(nil)
		result.Summary = "No linked estimate. Link an estimate to validate this SOW."
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	content := detail.Content
	if detail.ContentText != nil && *detail.ContentText != "" {
		content = *detail.ContentText
	} else if detail.ContentHTML != nil && *detail.ContentHTML != "" {
		content = gates.ExtractPlainText(*detail.ContentHTML)
	}

	payload := stageestimate.Build(estimateDetail)
	result := validation.BuildResult(validation.ValidateSOW(content, payload))

	// результат фиксируется системной заметкой на договоре
	note := fmt.Sprintf("Validation run: %s", result.Summary)
	system := "System"
	if _, err := h.repo.AddAgreementNote(detail.ID, note, nil, &system); err != nil {
		log.Printf("add validation note: %v", err)
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) fetchAgreement(w http.ResponseWriter, r *http.Request) (*models.AgreementDetail, bool) {
	id := chi.URLParam(r, "id")
	detail, err := h.repo.FetchAgreementDetail(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if detail == nil {
		h.writeError(w, http.StatusNotFound, "Agreement not found")
		return nil, false
	}
	return detail, true
}

func (h *Handler) respondWithAgreement(w http.ResponseWriter, id string) {
	detail, err := h.repo.FetchAgreementDetail(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}
