package models

import "encoding/json"

// EstimateRecord представляет строку таблицы estimates
type EstimateRecord struct {
	ID        string  `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Owner     string  `json:"owner" db:"owner"`
	Stage     string  `json:"stage" db:"stage"`
	UpdatedAt *string `json:"updated_at" db:"updated_at"`
}

type EstimateListItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Owner       string  `json:"owner"`
	Stage       string  `json:"stage"`
	LastUpdated *string `json:"lastUpdated"`
}

type ArtifactRecord struct {
	ID               string  `json:"id" db:"id"`
	EstimateID       string  `json:"estimate_id" db:"estimate_id"`
	Filename         string  `json:"filename" db:"filename"`
	StoragePath      string  `json:"storage_path" db:"storage_path"`
	SizeBytes        *int64  `json:"size_bytes" db:"size_bytes"`
	UploadedBy       *string `json:"uploaded_by" db:"uploaded_by"`
	ContentText      *string `json:"content_text" db:"content_text"`
	ContentHTML      *string `json:"content_html" db:"content_html"`
	Summary          *string `json:"summary" db:"summary"`
	ExtractionStatus string  `json:"extraction_status" db:"extraction_status"`
	ExtractionError  *string `json:"extraction_error" db:"extraction_error"`
	CreatedAt        string  `json:"created_at" db:"created_at"`
	PublicURL        string  `json:"public_url" db:"-"`
}

type TimelineRecord struct {
	ID         string  `json:"id" db:"id"`
	EstimateID string  `json:"estimate_id" db:"estimate_id"`
	Stage      string  `json:"stage" db:"stage"`
	Action     string  `json:"action" db:"action"`
	Actor      string  `json:"actor" db:"actor"`
	Notes      *string `json:"notes" db:"notes"`
	CreatedAt  string  `json:"created_at" db:"created_at"`
}

type BusinessCaseRecord struct {
	ID         string  `json:"id" db:"id"`
	EstimateID string  `json:"estimate_id" db:"estimate_id"`
	Content    *string `json:"content" db:"content"`
	Approved   bool    `json:"approved" db:"approved"`
	ApprovedBy *string `json:"approved_by" db:"approved_by"`
	UpdatedAt  string  `json:"updated_at" db:"updated_at"`
}

type RequirementsRecord struct {
	ID          string  `json:"id" db:"id"`
	EstimateID  string  `json:"estimate_id" db:"estimate_id"`
	Content     *string `json:"content" db:"content"`
	Validated   bool    `json:"validated" db:"validated"`
	ValidatedBy *string `json:"validated_by" db:"validated_by"`
	UpdatedAt   string  `json:"updated_at" db:"updated_at"`
}

type SolutionArchitectureRecord struct {
	ID         string  `json:"id" db:"id"`
	EstimateID string  `json:"estimate_id" db:"estimate_id"`
	Content    *string `json:"content" db:"content"`
	Approved   bool    `json:"approved" db:"approved"`
	ApprovedBy *string `json:"approved_by" db:"approved_by"`
	UpdatedAt  string  `json:"updated_at" db:"updated_at"`
}

type WbsRowRecord struct {
	ID          string  `json:"id" db:"id"`
	EstimateID  string  `json:"estimate_id" db:"estimate_id"`
	TaskCode    *string `json:"task_code" db:"task_code"`
	Description string  `json:"description" db:"description"`
	Role        string  `json:"role" db:"role"`
	Hours       float64 `json:"hours" db:"hours"`
	Assumptions *string `json:"assumptions" db:"assumptions"`
	SortOrder   int     `json:"sort_order" db:"sort_order"`
	UpdatedAt   string  `json:"updated_at" db:"updated_at"`
}

type WbsVersionRecord struct {
	ID            string          `json:"id" db:"id"`
	EstimateID    string          `json:"estimate_id" db:"estimate_id"`
	VersionNumber int             `json:"version_number" db:"version_number"`
	Actor         *string         `json:"actor" db:"actor"`
	Approved      bool            `json:"approved" db:"approved"`
	Notes         *string         `json:"notes" db:"notes"`
	Snapshot      json.RawMessage `json:"snapshot" db:"snapshot"`
	CreatedAt     string          `json:"created_at" db:"created_at"`
}

type EffortEstimate struct {
	Rows            []WbsRowRecord     `json:"rows"`
	Versions        []WbsVersionRecord `json:"versions"`
	ApprovedVersion *WbsVersionRecord  `json:"approvedVersion"`
}

type WbsRowInput struct {
	ID          *string `json:"id"`
	TaskCode    *string `json:"taskCode"`
	Description string  `json:"description"`
	Role        string  `json:"role"`
	Hours       float64 `json:"hours"`
	Assumptions *string `json:"assumptions"`
}

type QuoteRecord struct {
	ID               string  `json:"id" db:"id"`
	EstimateID       string  `json:"estimate_id" db:"estimate_id"`
	Currency         string  `json:"currency" db:"currency"`
	PaymentTerms     *string `json:"payment_terms" db:"payment_terms"`
	DeliveryTimeline *string `json:"delivery_timeline" db:"delivery_timeline"`
	Delivered        bool    `json:"delivered" db:"delivered"`
	DeliveredBy      *string `json:"delivered_by" db:"delivered_by"`
	DeliveredAt      *string `json:"delivered_at" db:"delivered_at"`
	UpdatedAt        string  `json:"updated_at" db:"updated_at"`
}

type QuoteRateRecord struct {
	ID         string  `json:"id" db:"id"`
	EstimateID string  `json:"estimate_id" db:"estimate_id"`
	Role       string  `json:"role" db:"role"`
	HourlyRate float64 `json:"hourly_rate" db:"hourly_rate"`
}

type QuoteOverrideRecord struct {
	ID         string   `json:"id" db:"id"`
	EstimateID string   `json:"estimate_id" db:"estimate_id"`
	TaskCode   string   `json:"task_code" db:"task_code"`
	Amount     *float64 `json:"amount" db:"amount"`
	Reason     *string  `json:"reason" db:"reason"`
}

type QuoteRateInput struct {
	Role       string  `json:"role"`
	HourlyRate float64 `json:"hourlyRate"`
}

type QuoteOverrideInput struct {
	TaskCode string   `json:"taskCode"`
	Amount   *float64 `json:"amount"`
	Reason   *string  `json:"reason"`
}

type Quote struct {
	Record    QuoteRecord           `json:"record"`
	Rates     []QuoteRateRecord     `json:"rates"`
	Overrides []QuoteOverrideRecord `json:"overrides"`
}

// EstimateDetail — агрегат всей оценки, как её видит UI и копайлот
type EstimateDetail struct {
	Estimate             EstimateRecord             `json:"estimate"`
	Artifacts            []ArtifactRecord           `json:"artifacts"`
	Timeline             []TimelineRecord           `json:"timeline"`
	BusinessCase         BusinessCaseRecord         `json:"businessCase"`
	Requirements         RequirementsRecord         `json:"requirements"`
	SolutionArchitecture SolutionArchitectureRecord `json:"solutionArchitecture"`
	EffortEstimate       EffortEstimate             `json:"effortEstimate"`
	Quote                Quote                      `json:"quote"`
}

const (
	ExtractionStatusPending = "pending"
	ExtractionStatusReady   = "ready"
	ExtractionStatusFailed  = "failed"
	ExtractionStatusSkipped = "skipped"
)
