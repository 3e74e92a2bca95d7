package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jamolkhon5/dealdesk/internal/cache"
	"github.com/Jamolkhon5/dealdesk/internal/repository"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.NewRepository(sqlx.NewDb(db, "sqlmock"))
	return NewHandler(repo, nil, cache.New("", "")), mock
}

func serve(t *testing.T, h *Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// expectEstimateDetail регистрирует всю цепочку запросов сборки агрегата
func expectEstimateDetail(mock sqlmock.Sqlmock, id, stage string) {
	now := "2026-09-01T00:00:00Z"

	mock.ExpectQuery("FROM estimates WHERE").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner", "stage", "updated_at"}).
			AddRow(id, "Demo", "Alex", stage, now))
	mock.ExpectQuery("FROM estimate_artifacts").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "estimate_id", "filename", "storage_path", "size_bytes", "uploaded_by",
			"content_text", "content_html", "summary", "extraction_status", "extraction_error", "created_at",
		}))
	mock.ExpectQuery("FROM estimate_timeline").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "estimate_id", "stage", "action", "actor", "notes", "created_at"}))
	mock.ExpectQuery("FROM estimate_business_case").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "estimate_id", "content", "approved", "approved_by", "updated_at"}).
			AddRow("bc-1", id, nil, false, nil, now))
	mock.ExpectQuery("FROM estimate_requirements").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "estimate_id", "content", "validated", "validated_by", "updated_at"}).
			AddRow("req-1", id, nil, false, nil, now))
	mock.ExpectQuery("FROM estimate_solution_architecture").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "estimate_id", "content", "approved", "approved_by", "updated_at"}).
			AddRow("sol-1", id, nil, false, nil, now))
	mock.ExpectQuery("FROM estimate_wbs_rows").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "estimate_id", "task_code", "description", "role", "hours", "assumptions", "sort_order", "updated_at",
		}))
	mock.ExpectQuery("FROM estimate_wbs_versions").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "estimate_id", "version_number", "actor", "approved", "notes", "snapshot", "created_at",
		}))
	mock.ExpectQuery("FROM estimate_quote WHERE").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "estimate_id", "currency", "payment_terms", "delivery_timeline",
			"delivered", "delivered_by", "delivered_at", "updated_at",
		}).AddRow("q-1", id, "USD", nil, nil, false, nil, nil, now))
	mock.ExpectQuery("FROM estimate_quote_rates").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "estimate_id", "role", "hourly_rate"}))
	mock.ExpectQuery("FROM estimate_quote_overrides").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "estimate_id", "task_code", "amount", "reason"}))
}

func TestPatchEstimateAdvanceRejectsUnknownStage(t *testing.T) {
	h, mock := newTestHandler(t)
	expectEstimateDetail(mock, "est-1", "Discovery")

	rec := serve(t, h, http.MethodPatch, "/v1/estimates/est-1", `{"action":"advance"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown stage")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchEstimateAdvanceRejectsFinalStage(t *testing.T) {
	h, mock := newTestHandler(t)
	expectEstimateDetail(mock, "est-1", "Quote")

	rec := serve(t, h, http.MethodPatch, "/v1/estimates/est-1", `{"action":"advance"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "final stage")
	assert.NoError(t, mock.ExpectationsWereMet())
}
