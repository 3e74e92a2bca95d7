package repository

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/Jamolkhon5/dealdesk/internal/models"
)

func (r *Repository) ListEstimates() ([]models.EstimateRecord, error) {
	query := `
        SELECT id, name, owner, stage, updated_at
        FROM estimates
        ORDER BY updated_at DESC NULLS LAST, name ASC`

	estimates := []models.EstimateRecord{}
	err := r.db.Select(&estimates, query)
	return estimates, err
}

func (r *Repository) CreateEstimate(name, owner string) (*models.EstimateRecord, error) {
	est := models.EstimateRecord{
		ID:    uuid.New().String(),
		Name:  name,
		Owner: owner,
		Stage: "Artifacts",
	}
	now := nowRFC3339()
	est.UpdatedAt = &now

	query := `
        INSERT INTO estimates (id, name, owner, stage, updated_at)
        VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.Exec(query, est.ID, est.Name, est.Owner, est.Stage, now); err != nil {
		return nil, err
	}
	return &est, nil
}

// GetEstimate возвращает nil без ошибки, если оценка не найдена
func (r *Repository) GetEstimate(id string) (*models.EstimateRecord, error) {
	var est models.EstimateRecord
	err := r.db.Get(&est, `SELECT id, name, owner, stage, updated_at FROM estimates WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &est, nil
}

func (r *Repository) UpdateEstimateStage(id, stage string) error {
	_, err := r.db.Exec(`UPDATE estimates SET stage = $2, updated_at = $3 WHERE id = $1`, id, stage, nowRFC3339())
	return err
}

func (r *Repository) TouchEstimate(id string) error {
	_, err := r.db.Exec(`UPDATE estimates SET updated_at = $2 WHERE id = $1`, id, nowRFC3339())
	return err
}

// FetchEstimateDetail собирает полный агрегат оценки. Строки businessCase,
// requirements, solutionArchitecture и quote создаются лениво при первом обращении
func (r *Repository) FetchEstimateDetail(id string) (*models.EstimateDetail, error) {
	est, err := r.GetEstimate(id)
	if err != nil {
		return nil, err
	}
	if est == nil {
		return nil, nil
	}

	detail := models.EstimateDetail{Estimate: *est}

	detail.Artifacts, err = r.ListArtifacts(id)
	if err != nil {
		return nil, err
	}

	detail.Timeline = []models.TimelineRecord{}
	err = r.db.Select(&detail.Timeline, `
        SELECT id, estimate_id, stage, action, actor, notes, created_at
        FROM estimate_timeline
        WHERE estimate_id = $1
        ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}

	if err := r.ensureBusinessCase(id, &detail.BusinessCase); err != nil {
		return nil, err
	}
	if err := r.ensureRequirements(id, &detail.Requirements); err != nil {
		return nil, err
	}
	if err := r.ensureSolutionArchitecture(id, &detail.SolutionArchitecture); err != nil {
		return nil, err
	}

	detail.EffortEstimate.Rows = []models.WbsRowRecord{}
	err = r.db.Select(&detail.EffortEstimate.Rows, `
        SELECT id, estimate_id, task_code, description, role, hours, assumptions, sort_order, updated_at
        FROM estimate_wbs_rows
        WHERE estimate_id = $1
        ORDER BY sort_order ASC`, id)
	if err != nil {
		return nil, err
	}

	detail.EffortEstimate.Versions = []models.WbsVersionRecord{}
	err = r.db.Select(&detail.EffortEstimate.Versions, `
        SELECT id, estimate_id, version_number, actor, approved, notes, snapshot, created_at
        FROM estimate_wbs_versions
        WHERE estimate_id = $1
        ORDER BY version_number DESC`, id)
	if err != nil {
		return nil, err
	}
	for i := range detail.EffortEstimate.Versions {
		if detail.EffortEstimate.Versions[i].Approved {
			detail.EffortEstimate.ApprovedVersion = &detail.EffortEstimate.Versions[i]
			break
		}
	}

	if err := r.ensureQuote(id, &detail.Quote.Record); err != nil {
		return nil, err
	}

	detail.Quote.Rates = []models.QuoteRateRecord{}
	err = r.db.Select(&detail.Quote.Rates, `
        SELECT id, estimate_id, role, hourly_rate
        FROM estimate_quote_rates
        WHERE estimate_id = $1
        ORDER BY role ASC`, id)
	if err != nil {
		return nil, err
	}

	detail.Quote.Overrides = []models.QuoteOverrideRecord{}
	err = r.db.Select(&detail.Quote.Overrides, `
        SELECT id, estimate_id, task_code, amount, reason
        FROM estimate_quote_overrides
        WHERE estimate_id = $1
        ORDER BY task_code ASC`, id)
	if err != nil {
		return nil, err
	}

	return &detail, nil
}

func (r *Repository) ensureBusinessCase(estimateID string, dest *models.BusinessCaseRecord) error {
	err := r.db.Get(dest, `
        SELECT id, estimate_id, content, approved, approved_by, updated_at
        FROM estimate_business_case WHERE estimate_id = $1`, estimateID)
	if errors.Is(err, sql.ErrNoRows) {
		*dest = models.BusinessCaseRecord{ID: uuid.New().String(), EstimateID: estimateID, UpdatedAt: nowRFC3339()}
		_, err = r.db.Exec(`
            INSERT INTO estimate_business_case (id, estimate_id, approved, updated_at)
            VALUES ($1, $2, FALSE, $3)`, dest.ID, estimateID, dest.UpdatedAt)
	}
	return err
}

func (r *Repository) ensureRequirements(estimateID string, dest *models.RequirementsRecord) error {
	err := r.db.Get(dest, `
        SELECT id, estimate_id, content, validated, validated_by, updated_at
        FROM estimate_requirements WHERE estimate_id = $1`, estimateID)
	if errors.Is(err, sql.ErrNoRows) {
		*dest = models.RequirementsRecord{ID: uuid.New().String(), EstimateID: estimateID, UpdatedAt: nowRFC3339()}
		_, err = r.db.Exec(`
            INSERT INTO estimate_requirements (id, estimate_id, validated, updated_at)
            VALUES ($1, $2, FALSE, $3)`, dest.ID, estimateID, dest.UpdatedAt)
	}
	return err
}

func (r *Repository) ensureSolutionArchitecture(estimateID string, dest *models.SolutionArchitectureRecord) error {
	err := r.db.Get(dest, `
        SELECT id, estimate_id, content, approved, approved_by, updated_at
        FROM estimate_solution_architecture WHERE estimate_id = $1`, estimateID)
	if errors.Is(err, sql.ErrNoRows) {
		*dest = models.SolutionArchitectureRecord{ID: uuid.New().String(), EstimateID: estimateID, UpdatedAt: nowRFC3339()}
		_, err = r.db.Exec(`
            INSERT INTO estimate_solution_architecture (id, estimate_id, approved, updated_at)
            VALUES ($1, $2, FALSE, $3)`, dest.ID, estimateID, dest.UpdatedAt)
	}
	return err
}

func (r *Repository) ensureQuote(estimateID string, dest *models.QuoteRecord) error {
	err := r.db.Get(dest, `
        SELECT id, estimate_id, currency, payment_terms, delivery_timeline,
               delivered, delivered_by, delivered_at, updated_at
        FROM estimate_quote WHERE estimate_id = $1`, estimateID)
	if errors.Is(err, sql.ErrNoRows) {
		*dest = models.QuoteRecord{ID: uuid.New().String(), EstimateID: estimateID, Currency: "USD", UpdatedAt: nowRFC3339()}
		_, err = r.db.Exec(`
            INSERT INTO estimate_quote (id, estimate_id, currency, delivered, updated_at)
            VALUES ($1, $2, 'USD', FALSE, $3)`, dest.ID, estimateID, dest.UpdatedAt)
	}
	return err
}

func (r *Repository) InsertArtifact(a *models.ArtifactRecord) error {
	a.ID = uuid.New().String()
	a.CreatedAt = nowRFC3339()
	if a.ExtractionStatus == "" {
		a.ExtractionStatus = models.ExtractionStatusPending
	}

	query := `
        INSERT INTO estimate_artifacts
            (id, estimate_id, filename, storage_path, size_bytes, uploaded_by, extraction_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query, a.ID, a.EstimateID, a.Filename, a.StoragePath,
		a.SizeBytes, a.UploadedBy, a.ExtractionStatus, a.CreatedAt)
	return err
}

func (r *Repository) ListArtifacts(estimateID string) ([]models.ArtifactRecord, error) {
	artifacts := []models.ArtifactRecord{}
	err := r.db.Select(&artifacts, `
        SELECT id, estimate_id, filename, storage_path, size_bytes, uploaded_by,
               content_text, content_html, summary, extraction_status, extraction_error, created_at
        FROM estimate_artifacts
        WHERE estimate_id = $1
        ORDER BY created_at ASC`, estimateID)
	return artifacts, err
}

func (r *Repository) GetArtifact(id string) (*models.ArtifactRecord, error) {
	var a models.ArtifactRecord
	err := r.db.Get(&a, `
        SELECT id, estimate_id, filename, storage_path, size_bytes, uploaded_by,
               content_text, content_html, summary, extraction_status, extraction_error, created_at
        FROM estimate_artifacts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) UpdateArtifactExtraction(id, status string, contentText, contentHTML, summary, extractErr *string) error {
	query := `
        UPDATE estimate_artifacts
        SET extraction_status = $2, content_text = $3, content_html = $4, summary = $5, extraction_error = $6
        WHERE id = $1`

	_, err := r.db.Exec(query, id, status, contentText, contentHTML, summary, extractErr)
	return err
}

func (r *Repository) LogTimeline(estimateID, stage, action, actor string, notes *string) error {
	query := `
        INSERT INTO estimate_timeline (id, estimate_id, stage, action, actor, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query, uuid.New().String(), estimateID, stage, action, actor, notes, nowRFC3339())
	return err
}

func (r *Repository) UpsertBusinessCase(estimateID string, content *string, approved *bool, approvedBy *string) error {
	var current models.BusinessCaseRecord
	if err := r.ensureBusinessCase(estimateID, &current); err != nil {
		return err
	}
	if content != nil {
		current.Content = content
	}
	if approved != nil {
		current.Approved = *approved
		current.ApprovedBy = nil
		if *approved {
			current.ApprovedBy = approvedBy
		}
	}

	query := `
        UPDATE estimate_business_case
        SET content = $2, approved = $3, approved_by = $4, updated_at = $5
        WHERE estimate_id = $1`

	_, err := r.db.Exec(query, estimateID, current.Content, current.Approved, current.ApprovedBy, nowRFC3339())
	return err
}

func (r *Repository) UpsertRequirements(estimateID string, content *string, validated *bool, validatedBy *string) error {
	var current models.RequirementsRecord
	if err := r.ensureRequirements(estimateID, &current); err != nil {
		return err
	}
	if content != nil {
		current.Content = content
	}
	if validated != nil {
		current.Validated = *validated
		current.ValidatedBy = nil
		if *validated {
			current.ValidatedBy = validatedBy
		}
	}

	query := `
        UPDATE estimate_requirements
        SET content = $2, validated = $3, validated_by = $4, updated_at = $5
        WHERE estimate_id = $1`

	_, err := r.db.Exec(query, estimateID, current.Content, current.Validated, current.ValidatedBy, nowRFC3339())
	return err
}

func (r *Repository) UpsertSolutionArchitecture(estimateID string, content *string, approved *bool, approvedBy *string) error {
	var current models.SolutionArchitectureRecord
	if err := r.ensureSolutionArchitecture(estimateID, &current); err != nil {
		return err
	}
	if content != nil {
		current.Content = content
	}
	if approved != nil {
		current.Approved = *approved
		current.ApprovedBy = nil
		if *approved {
			current.ApprovedBy = approvedBy
		}
	}

	query := `
        UPDATE estimate_solution_architecture
        SET content = $2, approved = $3, approved_by = $4, updated_at = $5
        WHERE estimate_id = $1`

	_, err := r.db.Exec(query, estimateID, current.Content, current.Approved, current.ApprovedBy, nowRFC3339())
	return err
}

// ReplaceWbsRows полностью заменяет строки WBS в одной транзакции,
// sort_order соответствует порядку входного списка
func (r *Repository) ReplaceWbsRows(estimateID string, rows []models.WbsRowInput) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM estimate_wbs_rows WHERE estimate_id = $1`, estimateID); err != nil {
		return err
	}

	now := nowRFC3339()
	for i, row := range rows {
		id := uuid.New().String()
		if row.ID != nil && *row.ID != "" {
			id = *row.ID
		}
		_, err := tx.Exec(`
            INSERT INTO estimate_wbs_rows
                (id, estimate_id, task_code, description, role, hours, assumptions, sort_order, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id, estimateID, row.TaskCode, row.Description, row.Role, row.Hours, row.Assumptions, i, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CreateWbsVersion снимает снапшот текущих строк WBS и помечает его утверждённым,
// снимая флаг с предыдущих версий
func (r *Repository) CreateWbsVersion(estimateID string, actor *string, notes *string) (*models.WbsVersionRecord, error) {
	rows := []models.WbsRowRecord{}
	err := r.db.Select(&rows, `
        SELECT id, estimate_id, task_code, description, role, hours, assumptions, sort_order, updated_at
        FROM estimate_wbs_rows
        WHERE estimate_id = $1
        ORDER BY sort_order ASC`, estimateID)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var maxVersion int
	if err := tx.Get(&maxVersion, `
        SELECT COALESCE(MAX(version_number), 0)
        FROM estimate_wbs_versions WHERE estimate_id = $1`, estimateID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`UPDATE estimate_wbs_versions SET approved = FALSE WHERE estimate_id = $1`, estimateID); err != nil {
		return nil, err
	}

	version := models.WbsVersionRecord{
		ID:            uuid.New().String(),
		EstimateID:    estimateID,
		VersionNumber: maxVersion + 1,
		Actor:         actor,
		Approved:      true,
		Notes:         notes,
		Snapshot:      snapshot,
		CreatedAt:     nowRFC3339(),
	}

	_, err = tx.Exec(`
        INSERT INTO estimate_wbs_versions
            (id, estimate_id, version_number, actor, approved, notes, snapshot, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		version.ID, version.EstimateID, version.VersionNumber, version.Actor,
		version.Approved, version.Notes, version.Snapshot, version.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *Repository) UpdateQuoteRecord(estimateID string, currency, paymentTerms, deliveryTimeline *string) error {
	var current models.QuoteRecord
	if err := r.ensureQuote(estimateID, &current); err != nil {
		return err
	}
	if currency != nil {
		current.Currency = *currency
	}
	if paymentTerms != nil {
		current.PaymentTerms = paymentTerms
	}
	if deliveryTimeline != nil {
		current.DeliveryTimeline = deliveryTimeline
	}

	query := `
        UPDATE estimate_quote
        SET currency = $2, payment_terms = $3, delivery_timeline = $4, updated_at = $5
        WHERE estimate_id = $1`

	_, err := r.db.Exec(query, estimateID, current.Currency, current.PaymentTerms, current.DeliveryTimeline, nowRFC3339())
	return err
}

func (r *Repository) ReplaceQuoteRates(estimateID string, rates []models.QuoteRateInput) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM estimate_quote_rates WHERE estimate_id = $1`, estimateID); err != nil {
		return err
	}
	for _, rate := range rates {
		_, err := tx.Exec(`
            INSERT INTO estimate_quote_rates (id, estimate_id, role, hourly_rate)
            VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), estimateID, rate.Role, rate.HourlyRate)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) ReplaceQuoteOverrides(estimateID string, overrides []models.QuoteOverrideInput) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM estimate_quote_overrides WHERE estimate_id = $1`, estimateID); err != nil {
		return err
	}
	for _, o := range overrides {
		_, err := tx.Exec(`
            INSERT INTO estimate_quote_overrides (id, estimate_id, task_code, amount, reason)
            VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), estimateID, o.TaskCode, o.Amount, o.Reason)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) MarkQuoteDelivered(estimateID string, deliveredBy string) error {
	var current models.QuoteRecord
	if err := r.ensureQuote(estimateID, &current); err != nil {
		return err
	}

	now := nowRFC3339()
	query := `
        UPDATE estimate_quote
        SET delivered = TRUE, delivered_by = $2, delivered_at = $3, updated_at = $3
        WHERE estimate_id = $1`

	_, err := r.db.Exec(query, estimateID, deliveredBy, now)
	return err
}
