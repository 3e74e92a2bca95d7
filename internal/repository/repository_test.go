package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func agreementColumns() []string {
	return []string{
		"id", "type", "counterparty", "content", "content_html", "content_text",
		"last_auto_saved_at", "auto_save_version", "current_version", "linked_estimate_id",
		"ready_for_signature", "signature_override_rationale", "created_at", "updated_at",
	}
}

func TestCreateEstimate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO estimates").
		WithArgs(sqlmock.AnyArg(), "Demo", "Alex", "Artifacts", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	est, err := repo.CreateEstimate("Demo", "Alex")
	require.NoError(t, err)
	assert.NotEmpty(t, est.ID)
	assert.Equal(t, "Artifacts", est.Stage)
	require.NotNil(t, est.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEstimateNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, name, owner, stage, updated_at FROM estimates").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner", "stage", "updated_at"}))

	est, err := repo.GetEstimate("missing")
	require.NoError(t, err)
	assert.Nil(t, est)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEstimateStage(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE estimates SET stage").
		WithArgs("est-1", "Business Case", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateEstimateStage("est-1", "Business Case"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogTimeline(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO estimate_timeline").
		WithArgs(sqlmock.AnyArg(), "est-1", "Artifacts", "Estimate created", "Alex", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LogTimeline("est-1", "Artifacts", "Estimate created", "Alex", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutosaveAgreement(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE contract_agreements").
		WithArgs("agr-1", "<p>draft</p>", "draft", sqlmock.AnyArg(), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM contract_agreements WHERE id").
		WithArgs("agr-1").
		WillReturnRows(sqlmock.NewRows(agreementColumns()).AddRow(
			"agr-1", "SOW", "Acme", "", "<p>draft</p>", "draft",
			"2026-09-01T00:00:00Z", 5, 1, nil,
			false, nil, "2026-08-01T00:00:00Z", "2026-09-01T00:00:00Z"))

	agreement, err := repo.AutosaveAgreement("agr-1", "<p>draft</p>", "draft", 4)
	require.NoError(t, err)
	require.NotNil(t, agreement)
	assert.Equal(t, 5, agreement.AutoSaveVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutosaveAgreementVersionConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE contract_agreements").
		WithArgs("agr-1", "<p>stale</p>", "stale", sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM contract_agreements WHERE id").
		WithArgs("agr-1").
		WillReturnRows(sqlmock.NewRows(agreementColumns()).AddRow(
			"agr-1", "SOW", "Acme", "", "<p>current</p>", "current",
			"2026-09-01T00:00:00Z", 7, 1, nil,
			false, nil, "2026-08-01T00:00:00Z", "2026-09-01T00:00:00Z"))

	agreement, err := repo.AutosaveAgreement("agr-1", "<p>stale</p>", "stale", 2)
	assert.ErrorIs(t, err, ErrVersionConflict)
	require.NotNil(t, agreement, "conflict response carries current state")
	assert.Equal(t, 7, agreement.AutoSaveVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePolicy(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM contract_policies").
		WithArgs("pol-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeletePolicy("pol-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	mock.ExpectExec("DELETE FROM contract_policies").
		WithArgs("pol-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.DeletePolicy("pol-2")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateExemplar(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO contract_exemplars").
		WithArgs(sqlmock.AnyArg(), "Standard MSA", "MSA", nil,
			"policy-exemplars/msa/msa.md", sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	exemplar, err := repo.CreateExemplar("Standard MSA", "MSA",
		"policy-exemplars/msa/msa.md", nil, nil, NormalizeTags("baseline"))
	require.NoError(t, err)
	assert.NotEmpty(t, exemplar.ID)
	assert.Equal(t, "MSA", exemplar.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetExemplar(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM contract_exemplars WHERE").WithArgs("ex-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "type", "summary", "storage_path", "tags", "uploaded_by", "created_at", "updated_at",
		}).AddRow("ex-1", "Standard MSA", "MSA", nil, "policy-exemplars/msa/msa.md",
			"{baseline}", nil, "2026-08-01T00:00:00Z", "2026-08-01T00:00:00Z"))

	exemplar, err := repo.GetExemplar("ex-1")
	require.NoError(t, err)
	require.NotNil(t, exemplar)
	assert.Equal(t, "policy-exemplars/msa/msa.md", exemplar.StoragePath)

	mock.ExpectQuery("FROM contract_exemplars WHERE").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	exemplar, err = repo.GetExemplar("missing")
	require.NoError(t, err)
	assert.Nil(t, exemplar)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"payment", "risk"},
		[]string(NormalizeTags([]interface{}{" payment ", "risk", "", 42})))
	assert.Equal(t, []string{"payment", "risk"},
		[]string(NormalizeTags("payment, risk, ,")))
	assert.Empty(t, []string(NormalizeTags(nil)))
}
