package repository

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrVersionConflict возвращается при конфликте оптимистичной блокировки автосохранения
var ErrVersionConflict = errors.New("version conflict")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Migrate создаёт таблицы приложения. Временные метки храним как RFC3339-текст,
// значения проставляет приложение
func (r *Repository) Migrate() error {
	_, err := r.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS estimates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    owner TEXT NOT NULL,
    stage TEXT NOT NULL DEFAULT 'Artifacts',
    updated_at TEXT
);

CREATE TABLE IF NOT EXISTS estimate_artifacts (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
    filename TEXT NOT NULL,
    storage_path TEXT NOT NULL,
    size_bytes BIGINT,
    uploaded_by TEXT,
    content_text TEXT,
    content_html TEXT,
    summary TEXT,
    extraction_status TEXT NOT NULL DEFAULT 'pending',
    extraction_error TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS estimate_timeline (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
    stage TEXT NOT NULL,
    action TEXT NOT NULL,
    actor TEXT NOT NULL,
    notes TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS estimate_business_case (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL UNIQUE REFERENCES estimates(id) ON DELETE CASCADE,
    content TEXT,
    approved BOOLEAN NOT NULL DEFAULT FALSE,
    approved_by TEXT,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS estimate_requirements (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL UNIQUE REFERENCES estimates(id) ON DELETE CASCADE,
    content TEXT,
    validated BOOLEAN NOT NULL DEFAULT FALSE,
    validated_by TEXT,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS estimate_solution_architecture (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL UNIQUE REFERENCES estimates(id) ON DELETE CASCADE,
    content TEXT,
    approved BOOLEAN NOT NULL DEFAULT FALSE,
    approved_by TEXT,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS estimate_wbs_rows (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
    task_code TEXT,
    description TEXT NOT NULL,
    role TEXT NOT NULL,
    hours DOUBLE PRECISION NOT NULL DEFAULT 0,
    assumptions TEXT,
    sort_order INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS estimate_wbs_versions (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
    version_number INTEGER NOT NULL,
    actor TEXT,
    approved BOOLEAN NOT NULL DEFAULT FALSE,
    notes TEXT,
    snapshot JSONB,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS estimate_quote (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL UNIQUE REFERENCES estimates(id) ON DELETE CASCADE,
    currency TEXT NOT NULL DEFAULT 'USD',
    payment_terms TEXT,
    delivery_timeline TEXT,
    delivered BOOLEAN NOT NULL DEFAULT FALSE,
    delivered_by TEXT,
    delivered_at TEXT,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS estimate_quote_rates (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
    role TEXT NOT NULL,
    hourly_rate DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS estimate_quote_overrides (
    id TEXT PRIMARY KEY,
    estimate_id TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
    task_code TEXT NOT NULL,
    amount DOUBLE PRECISION,
    reason TEXT
);

CREATE TABLE IF NOT EXISTS contract_agreements (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    counterparty TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    content_html TEXT,
    content_text TEXT,
    last_auto_saved_at TEXT,
    auto_save_version INTEGER NOT NULL DEFAULT 0,
    current_version INTEGER NOT NULL DEFAULT 1,
    linked_estimate_id TEXT REFERENCES estimates(id),
    ready_for_signature BOOLEAN NOT NULL DEFAULT FALSE,
    signature_override_rationale TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contract_versions (
    id TEXT PRIMARY KEY,
    agreement_id TEXT NOT NULL REFERENCES contract_agreements(id) ON DELETE CASCADE,
    version_number INTEGER NOT NULL,
    content TEXT NOT NULL,
    created_by TEXT,
    notes TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contract_notes (
    id TEXT PRIMARY KEY,
    agreement_id TEXT NOT NULL REFERENCES contract_agreements(id) ON DELETE CASCADE,
    version_id TEXT REFERENCES contract_versions(id),
    note_text TEXT NOT NULL,
    created_by TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contract_review_drafts (
    id TEXT PRIMARY KEY,
    agreement_id TEXT NOT NULL REFERENCES contract_agreements(id) ON DELETE CASCADE,
    storage_path TEXT NOT NULL,
    content TEXT,
    uploaded_by TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contract_policies (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    category TEXT,
    summary TEXT,
    body TEXT NOT NULL,
    tags TEXT[] NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contract_exemplars (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    type TEXT NOT NULL,
    summary TEXT,
    storage_path TEXT NOT NULL,
    tags TEXT[] NOT NULL DEFAULT '{}',
    uploaded_by TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contract_policy_exemplars (
    policy_id TEXT NOT NULL REFERENCES contract_policies(id) ON DELETE CASCADE,
    exemplar_id TEXT NOT NULL REFERENCES contract_exemplars(id) ON DELETE CASCADE,
    PRIMARY KEY (policy_id, exemplar_id)
);
`
