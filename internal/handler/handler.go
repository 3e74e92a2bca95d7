package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jamolkhon5/dealdesk/internal/cache"
	"github.com/Jamolkhon5/dealdesk/internal/repository"
	"github.com/Jamolkhon5/dealdesk/internal/storage"
)

// DefaultActor используется, пока в запросе не передан actor
const DefaultActor = "Demo User"

type Handler struct {
	repo  *repository.Repository
	store *storage.Store
	cache *cache.Cache
}

func NewHandler(repo *repository.Repository, store *storage.Store, c *cache.Cache) *Handler {
	return &Handler{
		repo:  repo,
		store: store,
		cache: c,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/estimates", func(r chi.Router) {
			r.Get("/", h.ListEstimates)
			r.Post("/", h.CreateEstimate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetEstimate)
				r.Patch("/", h.PatchEstimate)

				r.Get("/artifacts", h.ListArtifacts)
				r.Post("/artifacts", h.UploadArtifact)

				r.Get("/business-case", h.GetBusinessCase)
				r.Patch("/business-case", h.PatchBusinessCase)
				r.Post("/business-case/generate", h.GenerateBusinessCase)

				r.Get("/requirements", h.GetRequirements)
				r.Patch("/requirements", h.PatchRequirements)
				r.Post("/requirements/generate", h.GenerateRequirements)

				r.Patch("/solution-architecture", h.PatchSolutionArchitecture)

				r.Get("/effort", h.GetEffort)
				r.Patch("/effort", h.PatchEffort)

				r.Get("/quote", h.GetQuote)
				r.Patch("/quote", h.PatchQuote)

				r.Get("/export", h.ExportQuoteCSV)
				r.Get("/stage/estimate", h.StageEstimate)
			})
		})

		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", h.ListAgreements)
			r.Post("/", h.CreateAgreement)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetAgreement)
				r.Patch("/", h.PatchAgreement)
				r.Patch("/autosave", h.AutosaveAgreement)
				r.Post("/versions", h.CreateAgreementVersion)
				r.Post("/notes", h.AddAgreementNote)
				r.Get("/draft", h.ListReviewDrafts)
			r.Post("/draft", h.UploadReviewDraft)
				r.Post("/review", h.ReviewAgreement)
				r.Get("/validate", h.ValidateAgreement)
			})
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Post("/", h.CreatePolicy)
			r.Get("/summary", h.GetPolicySummary)

			r.Route("/exemplars", func(r chi.Router) {
				r.Get("/", h.ListExemplars)
				r.Post("/", h.UploadExemplar)
				r.Get("/{id}/content", h.GetExemplarContent)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPolicy)
				r.Patch("/", h.PatchPolicy)
				r.Delete("/", h.DeletePolicy)
			})
		})

		r.Get("/dashboard/metrics", h.DashboardMetrics)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
