package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Jamolkhon5/dealdesk/internal/repository"
)

const (
	dashboardCacheKey = "dealdesk:dashboard-metrics"
	dashboardCacheTTL = 30 * time.Second
	policyCacheTTL    = 5 * time.Minute
)

func (h *Handler) DashboardMetrics(w http.ResponseWriter, r *http.Request) {
	var cached repository.DashboardMetrics
	if h.cache.Get(r.Context(), dashboardCacheKey, &cached) {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	metrics, err := h.repo.FetchDashboardMetrics()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.cache.Set(r.Context(), dashboardCacheKey, metrics, dashboardCacheTTL)
	h.writeJSON(w, http.StatusOK, metrics)
}

func (h *Handler) invalidateDashboard(ctx context.Context) {
	h.cache.Invalidate(ctx, dashboardCacheKey)
}

func (h *Handler) invalidatePolicySummary(ctx context.Context) {
	h.cache.Invalidate(ctx, "dealdesk:policy-summary")
}
