package repository

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Jamolkhon5/dealdesk/internal/models"
)

func (r *Repository) ListAgreements() ([]models.AgreementRecord, error) {
	query := `
        SELECT id, type, counterparty, content, content_html, content_text,
               last_auto_saved_at, auto_save_version, current_version, linked_estimate_id,
               ready_for_signature, signature_override_rationale, created_at, updated_at
        FROM contract_agreements
        ORDER BY updated_at DESC`

	agreements := []models.AgreementRecord{}
	err := r.db.Select(&agreements, query)
	return agreements, err
}

func (r *Repository) GetAgreement(id string) (*models.AgreementRecord, error) {
	var a models.AgreementRecord
	err := r.db.Get(&a, `
        SELECT id, type, counterparty, content, content_html, content_text,
               last_auto_saved_at, auto_save_version, current_version, linked_estimate_id,
               ready_for_signature, signature_override_rationale, created_at, updated_at
        FROM contract_agreements WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FetchAgreementDetail собирает договор вместе с версиями, заметками
// и кратким описанием привязанной оценки
func (r *Repository) FetchAgreementDetail(id string) (*models.AgreementDetail, error) {
	agreement, err := r.GetAgreement(id)
	if err != nil {
		return nil, err
	}
	if agreement == nil {
		return nil, nil
	}

	detail := models.AgreementDetail{AgreementRecord: *agreement}

	detail.Versions = []models.AgreementVersion{}
	err = r.db.Select(&detail.Versions, `
        SELECT id, agreement_id, version_number, content, created_by, notes, created_at
        FROM contract_versions
        WHERE agreement_id = $1
        ORDER BY version_number DESC`, id)
	if err != nil {
		return nil, err
	}

	detail.Notes = []models.AgreementNote{}
	err = r.db.Select(&detail.Notes, `
        SELECT id, agreement_id, version_id, note_text, created_by, created_at
        FROM contract_notes
        WHERE agreement_id = $1
        ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}

	if agreement.LinkedEstimateID != nil {
		var linked models.LinkedEstimateSummary
		err = r.db.Get(&linked, `SELECT id, name, stage FROM estimates WHERE id = $1`, *agreement.LinkedEstimateID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			detail.LinkedEstimate = &linked
		}
	}

	return &detail, nil
}

func (r *Repository) CreateAgreement(agreementType, counterparty, content string, linkedEstimateID *string) (*models.AgreementRecord, error) {
	now := nowRFC3339()
	a := models.AgreementRecord{
		ID:               uuid.New().String(),
		Type:             agreementType,
		Counterparty:     counterparty,
		Content:          content,
		CurrentVersion:   1,
		LinkedEstimateID: linkedEstimateID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        INSERT INTO contract_agreements
            (id, type, counterparty, content, current_version, linked_estimate_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, 1, $5, $6, $6)`,
		a.ID, a.Type, a.Counterparty, a.Content, a.LinkedEstimateID, now)
	if err != nil {
		return nil, err
	}

	// первая версия фиксируется сразу при создании
	_, err = tx.Exec(`
        INSERT INTO contract_versions (id, agreement_id, version_number, content, created_at)
        VALUES ($1, $2, 1, $3, $4)`,
		uuid.New().String(), a.ID, a.Content, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) UpdateAgreement(id string, payload models.AgreementPayload) (*models.AgreementRecord, error) {
	current, err := r.GetAgreement(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	if payload.Type != nil {
		current.Type = *payload.Type
	}
	if payload.Counterparty != nil {
		current.Counterparty = *payload.Counterparty
	}
	if payload.Content != nil {
		current.Content = *payload.Content
	}
	if payload.LinkedEstimateID != nil {
		if *payload.LinkedEstimateID == "" {
			current.LinkedEstimateID = nil
		} else {
			current.LinkedEstimateID = payload.LinkedEstimateID
		}
	}
	if payload.ReadyForSignature != nil {
		current.ReadyForSignature = *payload.ReadyForSignature
	}
	if payload.SignatureOverrideRationale != nil {
		current.SignatureOverrideRationale = payload.SignatureOverrideRationale
	}
	current.UpdatedAt = nowRFC3339()

	query := `
        UPDATE contract_agreements
        SET type = $2, counterparty = $3, content = $4, linked_estimate_id = $5,
            ready_for_signature = $6, signature_override_rationale = $7, updated_at = $8
        WHERE id = $1`

	_, err = r.db.Exec(query, id, current.Type, current.Counterparty, current.Content,
		current.LinkedEstimateID, current.ReadyForSignature, current.SignatureOverrideRationale, current.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return current, nil
}

// AutosaveAgreement сохраняет черновик содержимого с оптимистичной блокировкой.
// При расхождении версии возвращает ErrVersionConflict
func (r *Repository) AutosaveAgreement(id string, contentHTML, contentText string, expectedVersion int) (*models.AgreementRecord, error) {
	now := nowRFC3339()
	res, err := r.db.Exec(`
        UPDATE contract_agreements
        SET content_html = $2, content_text = $3, last_auto_saved_at = $4,
            auto_save_version = auto_save_version + 1, updated_at = $4
        WHERE id = $1 AND auto_save_version = $5`,
		id, contentHTML, contentText, now, expectedVersion)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		existing, err := r.GetAgreement(id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, nil
		}
		return existing, ErrVersionConflict
	}

	return r.GetAgreement(id)
}

// CreateAgreementVersion фиксирует новую версию и делает её текущим содержимым договора
func (r *Repository) CreateAgreementVersion(agreementID string, payload models.VersionPayload) (*models.AgreementVersion, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var currentVersion int
	err = tx.Get(&currentVersion, `SELECT current_version FROM contract_agreements WHERE id = $1`, agreementID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := nowRFC3339()
	version := models.AgreementVersion{
		ID:            uuid.New().String(),
		AgreementID:   agreementID,
		VersionNumber: currentVersion + 1,
		Content:       payload.Content,
		CreatedBy:     payload.CreatedBy,
		Notes:         payload.Notes,
		CreatedAt:     now,
	}

	_, err = tx.Exec(`
        INSERT INTO contract_versions (id, agreement_id, version_number, content, created_by, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		version.ID, version.AgreementID, version.VersionNumber, version.Content,
		version.CreatedBy, version.Notes, version.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`
        UPDATE contract_agreements
        SET content = $2, current_version = $3, updated_at = $4
        WHERE id = $1`,
		agreementID, payload.Content, version.VersionNumber, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *Repository) AddAgreementNote(agreementID, noteText string, versionID, createdBy *string) (*models.AgreementNote, error) {
	note := models.AgreementNote{
		ID:          uuid.New().String(),
		AgreementID: agreementID,
		VersionID:   versionID,
		NoteText:    noteText,
		CreatedBy:   createdBy,
		CreatedAt:   nowRFC3339(),
	}

	_, err := r.db.Exec(`
        INSERT INTO contract_notes (id, agreement_id, version_id, note_text, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		note.ID, note.AgreementID, note.VersionID, note.NoteText, note.CreatedBy, note.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *Repository) SaveReviewDraft(agreementID, storagePath string, content, uploadedBy *string) (*models.ReviewDraft, error) {
	draft := models.ReviewDraft{
		ID:          uuid.New().String(),
		AgreementID: agreementID,
		StoragePath: storagePath,
		Content:     content,
		UploadedBy:  uploadedBy,
		CreatedAt:   nowRFC3339(),
	}

	_, err := r.db.Exec(`
        INSERT INTO contract_review_drafts (id, agreement_id, storage_path, content, uploaded_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		draft.ID, draft.AgreementID, draft.StoragePath, draft.Content, draft.UploadedBy, draft.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *Repository) ListReviewDrafts(agreementID string) ([]models.ReviewDraft, error) {
	drafts := []models.ReviewDraft{}
	err := r.db.Select(&drafts, `
        SELECT id, agreement_id, storage_path, content, uploaded_by, created_at
        FROM contract_review_drafts
        WHERE agreement_id = $1
        ORDER BY created_at DESC`, agreementID)
	return drafts, err
}

func (r *Repository) LatestReviewDraft(agreementID string) (*models.ReviewDraft, error) {
	var draft models.ReviewDraft
	err := r.db.Get(&draft, `
        SELECT id, agreement_id, storage_path, content, uploaded_by, created_at
        FROM contract_review_drafts
        WHERE agreement_id = $1
        ORDER BY created_at DESC
        LIMIT 1`, agreementID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}
