package repository

import (
	"database/sql"
	"errors"
)

type DashboardMetrics struct {
	EstimateCount       int            `json:"estimateCount"`
	EstimatesByStage    map[string]int `json:"estimatesByStage"`
	AgreementCount      int            `json:"agreementCount"`
	AgreementsByType    map[string]int `json:"agreementsByType"`
	ReadyForSignature   int            `json:"readyForSignature"`
	LastEstimateUpdate  *string        `json:"lastEstimateUpdate"`
	LastAgreementUpdate *string        `json:"lastAgreementUpdate"`
}

func (r *Repository) FetchDashboardMetrics() (*DashboardMetrics, error) {
	metrics := DashboardMetrics{
		EstimatesByStage: map[string]int{},
		AgreementsByType: map[string]int{},
	}

	if err := r.db.Get(&metrics.EstimateCount, `SELECT COUNT(*) FROM estimates`); err != nil {
		return nil, err
	}
	if err := r.db.Get(&metrics.AgreementCount, `SELECT COUNT(*) FROM contract_agreements`); err != nil {
		return nil, err
	}
	if err := r.db.Get(&metrics.ReadyForSignature, `
        SELECT COUNT(*) FROM contract_agreements WHERE ready_for_signature = TRUE`); err != nil {
		return nil, err
	}

	stageRows := []struct {
		Stage string `db:"stage"`
		Count int    `db:"count"`
	}{}
	if err := r.db.Select(&stageRows, `
        SELECT stage, COUNT(*) AS count FROM estimates GROUP BY stage`); err != nil {
		return nil, err
	}
	for _, row := range stageRows {
		metrics.EstimatesByStage[row.Stage] = row.Count
	}

	typeRows := []struct {
		Type  string `db:"type"`
		Count int    `db:"count"`
	}{}
	if err := r.db.Select(&typeRows, `
        SELECT type, COUNT(*) AS count FROM contract_agreements GROUP BY type`); err != nil {
		return nil, err
	}
	for _, row := range typeRows {
		metrics.AgreementsByType[row.Type] = row.Count
	}

	var last sql.NullString
	if err := r.db.Get(&last, `SELECT MAX(updated_at) FROM estimates`); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if last.Valid {
		v := last.String
		metrics.LastEstimateUpdate = &v
	}

	last = sql.NullString{}
	if err := r.db.Get(&last, `SELECT MAX(updated_at) FROM contract_agreements`); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if last.Valid {
		v := last.String
		metrics.LastAgreementUpdate = &v
	}

	return &metrics, nil
}
