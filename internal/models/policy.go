package models

import "github.com/lib/pq"

type ContractPolicy struct {
	ID        string         `json:"id" db:"id"`
	Title     string         `json:"title" db:"title"`
	Category  *string        `json:"category" db:"category"`
	Summary   *string        `json:"summary" db:"summary"`
	Body      string         `json:"body" db:"body"`
	Tags      pq.StringArray `json:"tags" db:"tags"`
	CreatedAt string         `json:"created_at" db:"created_at"`
	UpdatedAt string         `json:"updated_at" db:"updated_at"`
}

type ContractExemplar struct {
	ID          string         `json:"id" db:"id"`
	Title       string         `json:"title" db:"title"`
	Type        string         `json:"type" db:"type"`
	Summary     *string        `json:"summary" db:"summary"`
	StoragePath string         `json:"storage_path" db:"storage_path"`
	Tags        pq.StringArray `json:"tags" db:"tags"`
	UploadedBy  *string        `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   string         `json:"created_at" db:"created_at"`
	UpdatedAt   string         `json:"updated_at" db:"updated_at"`
	PublicURL   string         `json:"public_url" db:"-"`
}

type PolicyWithExemplars struct {
	ContractPolicy
	Exemplars []ContractExemplar `json:"exemplars"`
}

type PolicyPayload struct {
	Title       *string     `json:"title"`
	Category    *string     `json:"category"`
	Summary     *string     `json:"summary"`
	Body        *string     `json:"body"`
	Tags        interface{} `json:"tags"`
	ExemplarIDs []string    `json:"exemplarIds"`
}

type PolicySummary struct {
	PolicyCount   int     `json:"policyCount"`
	ExemplarCount int     `json:"exemplarCount"`
	LastUpdated   *string `json:"lastUpdated"`
}
