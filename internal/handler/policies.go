package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jamolkhon5/dealdesk/internal/extraction"
	"github.com/Jamolkhon5/dealdesk/internal/models"
	"github.com/Jamolkhon5/dealdesk/internal/repository"
	"github.com/Jamolkhon5/dealdesk/internal/storage"
)

func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.repo.ListPolicies()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, policies)
}

func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.repo.GetPolicy(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if policy == nil {
		h.writeError(w, http.StatusNotFound, "Policy not found")
		return
	}
	h.writeJSON(w, http.StatusOK, policy)
}

func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var payload models.PolicyPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if payload.Title == nil || strings.TrimSpace(*payload.Title) == "" {
		h.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if payload.Body == nil || strings.TrimSpace(*payload.Body) == "" {
		h.writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	policy, err := h.repo.CreatePolicy(*payload.Title, *payload.Body,
		payload.Category, payload.Summary, repository.NormalizeTags(payload.Tags), payload.ExemplarIDs)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.invalidatePolicySummary(r.Context())
	h.writeJSON(w, http.StatusCreated, policy)
}

func (h *Handler) PatchPolicy(w http.ResponseWriter, r *http.Request) {
	var payload models.PolicyPayload
	if !h.decode(w, r, &payload) {
		return
	}

	policy, err := h.repo.UpdatePolicy(chi.URLParam(r, "id"), payload)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if policy == nil {
		h.writeError(w, http.StatusNotFound, "Policy not found")
		return
	}

	h.invalidatePolicySummary(r.Context())
	h.writeJSON(w, http.StatusOK, policy)
}

func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.repo.DeletePolicy(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "Policy not found")
		return
	}

	h.invalidatePolicySummary(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) ListExemplars(w http.ResponseWriter, r *http.Request) {
	exemplars, err := h.repo.ListExemplars()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for i := range exemplars {
		exemplars[i].PublicURL = h.store.PublicURL(exemplars[i].StoragePath)
	}
	h.writeJSON(w, http.StatusOK, exemplars)
}

// UploadExemplar принимает эталонный договор (multipart) и кладёт файл в хранилище
func (h *Handler) UploadExemplar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxArtifactSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "File upload is required.")
		return
	}
	defer file.Close()

	title := strings.TrimSpace(r.FormValue("title"))
	exemplarType := strings.TrimSpace(r.FormValue("type"))
	if title == "" || exemplarType == "" {
		h.writeError(w, http.StatusBadRequest, "Title and type are required.")
		return
	}

	var summary, uploadedBy *string
	if s := strings.TrimSpace(r.FormValue("summary")); s != "" {
		summary = &s
	}
	if by := strings.TrimSpace(r.FormValue("uploadedBy")); by != "" {
		uploadedBy = &by
	}
	tags := repository.NormalizeTags(r.FormValue("tags"))

	data, err := io.ReadAll(io.LimitReader(file, maxArtifactSize+1))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(data) > maxArtifactSize {
		h.writeError(w, http.StatusBadRequest, "File is too large")
		return
	}

	key := fmt.Sprintf("%s%s/%d-%s",
		storage.ExemplarPrefix, strings.ToLower(exemplarType), time.Now().UnixMilli(), header.Filename)
	contentType := exemplarContentType(header.Filename, header.Header.Get("Content-Type"))
	if err := h.store.Upload(r.Context(), key, data, contentType); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := h.repo.CreateExemplar(title, exemplarType, key, summary, uploadedBy, tags); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.invalidatePolicySummary(r.Context())

	// в ответ идёт обновлённый список, как и при обычном GET
	exemplars, err := h.repo.ListExemplars()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for i := range exemplars {
		exemplars[i].PublicURL = h.store.PublicURL(exemplars[i].StoragePath)
	}
	h.writeJSON(w, http.StatusCreated, exemplars)
}

// GetExemplarContent отдаёт текст эталонного договора из хранилища
func (h *Handler) GetExemplarContent(w http.ResponseWriter, r *http.Request) {
	exemplar, err := h.repo.GetExemplar(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if exemplar == nil {
		h.writeError(w, http.StatusNotFound, "Exemplar not found")
		return
	}

	data, err := h.store.Download(r.Context(), exemplar.StoragePath)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to download exemplar content")
		return
	}

	content := string(data)
	contentHTML := content
	if result, err := extraction.Extract(data, exemplar.StoragePath, ""); err == nil {
		contentHTML = result.ContentHTML
		content = extraction.PlainText(result.ContentHTML)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":           exemplar.ID,
		"type":         exemplar.Type,
		"content":      content,
		"content_html": contentHTML,
	})
}

func exemplarContentType(filename, fileType string) string {
	if fileType != "" {
		return fileType
	}
	ext := ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		ext = strings.ToLower(filename[idx+1:])
	}
	switch ext {
	case "md", "txt":
		return "text/plain"
	case "pdf":
		return "application/pdf"
	case "doc":
		return "application/msword"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

func (h *Handler) GetPolicySummary(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "dealdesk:policy-summary"

	var cached models.PolicySummary
	if h.cache.Get(r.Context(), cacheKey, &cached) {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := h.repo.PolicySummary()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.cache.Set(r.Context(), cacheKey, summary, policyCacheTTL)
	h.writeJSON(w, http.StatusOK, summary)
}
