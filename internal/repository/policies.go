package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Jamolkhon5/dealdesk/internal/models"
)

// NormalizeTags принимает теги как JSON-массив или строку с запятыми
func NormalizeTags(raw interface{}) pq.StringArray {
	tags := pq.StringArray{}
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}
	return tags
}

func (r *Repository) ListPolicies() ([]models.PolicyWithExemplars, error) {
	policies := []models.ContractPolicy{}
	err := r.db.Select(&policies, `
        SELECT id, title, category, summary, body, tags, created_at, updated_at
        FROM contract_policies
        ORDER BY title ASC`)
	if err != nil {
		return nil, err
	}

	result := make([]models.PolicyWithExemplars, 0, len(policies))
	for _, p := range policies {
		exemplars, err := r.listPolicyExemplars(p.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.PolicyWithExemplars{ContractPolicy: p, Exemplars: exemplars})
	}
	return result, nil
}

func (r *Repository) GetPolicy(id string) (*models.PolicyWithExemplars, error) {
	var p models.ContractPolicy
	err := r.db.Get(&p, `
        SELECT id, title, category, summary, body, tags, created_at, updated_at
        FROM contract_policies WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	exemplars, err := r.listPolicyExemplars(id)
	if err != nil {
		return nil, err
	}
	return &models.PolicyWithExemplars{ContractPolicy: p, Exemplars: exemplars}, nil
}

func (r *Repository) listPolicyExemplars(policyID string) ([]models.ContractExemplar, error) {
	exemplars := []models.ContractExemplar{}
	err := r.db.Select(&exemplars, `
        SELECT e.id, e.title, e.type, e.summary, e.storage_path, e.tags, e.uploaded_by, e.created_at, e.updated_at
        FROM contract_exemplars e
        JOIN contract_policy_exemplars pe ON pe.exemplar_id = e.id
        WHERE pe.policy_id = $1
        ORDER BY e.title ASC`, policyID)
	return exemplars, err
}

func (r *Repository) CreatePolicy(title, body string, category, summary *string, tags pq.StringArray, exemplarIDs []string) (*models.ContractPolicy, error) {
	now := nowRFC3339()
	p := models.ContractPolicy{
		ID:        uuid.New().String(),
		Title:     title,
		Category:  category,
		Summary:   summary,
		Body:      body,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        INSERT INTO contract_policies (id, title, category, summary, body, tags, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		p.ID, p.Title, p.Category, p.Summary, p.Body, p.Tags, now)
	if err != nil {
		return nil, err
	}

	if err := syncPolicyExemplarsTx(tx, p.ID, exemplarIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) UpdatePolicy(id string, payload models.PolicyPayload) (*models.PolicyWithExemplars, error) {
	existing, err := r.GetPolicy(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	current := existing.ContractPolicy
	if payload.Title != nil {
		current.Title = *payload.Title
	}
	if payload.Category != nil {
		current.Category = payload.Category
	}
	if payload.Summary != nil {
		current.Summary = payload.Summary
	}
	if payload.Body != nil {
		current.Body = *payload.Body
	}
	if payload.Tags != nil {
		current.Tags = NormalizeTags(payload.Tags)
	}
	current.UpdatedAt = nowRFC3339()

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        UPDATE contract_policies
        SET title = $2, category = $3, summary = $4, body = $5, tags = $6, updated_at = $7
        WHERE id = $1`,
		id, current.Title, current.Category, current.Summary, current.Body, current.Tags, current.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if payload.ExemplarIDs != nil {
		if _, err := tx.Exec(`DELETE FROM contract_policy_exemplars WHERE policy_id = $1`, id); err != nil {
			return nil, err
		}
		if err := syncPolicyExemplarsTx(tx, id, payload.ExemplarIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetPolicy(id)
}

func syncPolicyExemplarsTx(tx *sqlx.Tx, policyID string, exemplarIDs []string) error {
	for _, exemplarID := range exemplarIDs {
		if strings.TrimSpace(exemplarID) == "" {
			continue
		}
		_, err := tx.Exec(`
            INSERT INTO contract_policy_exemplars (policy_id, exemplar_id)
            VALUES ($1, $2)
            ON CONFLICT DO NOTHING`, policyID, exemplarID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) DeletePolicy(id string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM contract_policies WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *Repository) ListExemplars() ([]models.ContractExemplar, error) {
	exemplars := []models.ContractExemplar{}
	err := r.db.Select(&exemplars, `
        SELECT id, title, type, summary, storage_path, tags, uploaded_by, created_at, updated_at
        FROM contract_exemplars
        ORDER BY title ASC`)
	return exemplars, err
}

func (r *Repository) GetExemplar(id string) (*models.ContractExemplar, error) {
	var e models.ContractExemplar
	err := r.db.Get(&e, `
        SELECT id, title, type, summary, storage_path, tags, uploaded_by, created_at, updated_at
        FROM contract_exemplars WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) CreateExemplar(title, exemplarType, storagePath string, summary, uploadedBy *string, tags pq.StringArray) (*models.ContractExemplar, error) {
	now := nowRFC3339()
	e := models.ContractExemplar{
		ID:          uuid.New().String(),
		Title:       title,
		Type:        exemplarType,
		Summary:     summary,
		StoragePath: storagePath,
		Tags:        tags,
		UploadedBy:  uploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.Exec(`
        INSERT INTO contract_exemplars (id, title, type, summary, storage_path, tags, uploaded_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		e.ID, e.Title, e.Type, e.Summary, e.StoragePath, e.Tags, e.UploadedBy, now)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) PolicySummary() (*models.PolicySummary, error) {
	var summary models.PolicySummary

	if err := r.db.Get(&summary.PolicyCount, `SELECT COUNT(*) FROM contract_policies`); err != nil {
		return nil, err
	}
	if err := r.db.Get(&summary.ExemplarCount, `SELECT COUNT(*) FROM contract_exemplars`); err != nil {
		return nil, err
	}

	var lastUpdated sql.NullString
	err := r.db.Get(&lastUpdated, `
        SELECT MAX(updated_at) FROM (
            SELECT updated_at FROM contract_policies
            UNION ALL
            SELECT updated_at FROM contract_exemplars
        ) t`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if lastUpdated.Valid {
		summary.LastUpdated = &lastUpdated.String
	}

	return &summary, nil
}
