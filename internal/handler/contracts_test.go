package handler

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func expectAgreementDetail(mock sqlmock.Sqlmock, id string) {
	now := "2026-09-01T00:00:00Z"

	mock.ExpectQuery("FROM contract_agreements WHERE").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "type", "counterparty", "content", "content_html", "content_text",
			"last_auto_saved_at", "auto_save_version", "current_version", "linked_estimate_id",
			"ready_for_signature", "signature_override_rationale", "created_at", "updated_at",
		}).AddRow(id, "SOW", "Acme", "", nil, nil, nil, 0, 1, nil, false, nil, now, now))
	mock.ExpectQuery("FROM contract_versions").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "agreement_id", "version_number", "content", "created_by", "notes", "created_at",
		}))
	mock.ExpectQuery("FROM contract_notes").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "agreement_id", "version_id", "note_text", "created_by", "created_at",
		}))
}

func TestListReviewDrafts(t *testing.T) {
	h, mock := newTestHandler(t)
	expectAgreementDetail(mock, "agr-1")
	mock.ExpectQuery("FROM contract_review_drafts").WithArgs("agr-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "agreement_id", "storage_path", "content", "uploaded_by", "created_at",
		}).AddRow("draft-2", "agr-1", "contract-drafts/agr-1/v2.md", "Updated draft", "Client", "2026-09-01T12:00:00Z").
			AddRow("draft-1", "agr-1", "contract-drafts/agr-1/v1.md", "First draft", "Client", "2026-08-20T09:00:00Z"))

	rec := serve(t, h, http.MethodGet, "/v1/contracts/agr-1/draft", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "draft-2")
	assert.Contains(t, rec.Body.String(), "Updated draft")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReviewDraftsUnknownAgreement(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.ExpectQuery("FROM contract_agreements WHERE").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := serve(t, h, http.MethodGet, "/v1/contracts/missing/draft", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
