package models

type AgreementType = string

const (
	AgreementTypeMSA      AgreementType = "MSA"
	AgreementTypeSOW      AgreementType = "SOW"
	AgreementTypeNDA      AgreementType = "NDA"
	AgreementTypeAddendum AgreementType = "Addendum"
)

func IsValidAgreementType(t string) bool {
	switch t {
	case AgreementTypeMSA, AgreementTypeSOW, AgreementTypeNDA, AgreementTypeAddendum:
		return true
	}
	return false
}

type AgreementRecord struct {
	ID                          string  `json:"id" db:"id"`
	Type                        string  `json:"type" db:"type"`
	Counterparty                string  `json:"counterparty" db:"counterparty"`
	Content                     string  `json:"content" db:"content"`
	ContentHTML                 *string `json:"content_html" db:"content_html"`
	ContentText                 *string `json:"content_text" db:"content_text"`
	LastAutoSavedAt             *string `json:"last_auto_saved_at" db:"last_auto_saved_at"`
	AutoSaveVersion             int     `json:"auto_save_version" db:"auto_save_version"`
	CurrentVersion              int     `json:"current_version" db:"current_version"`
	LinkedEstimateID            *string `json:"linked_estimate_id" db:"linked_estimate_id"`
	ReadyForSignature           bool    `json:"ready_for_signature" db:"ready_for_signature"`
	SignatureOverrideRationale  *string `json:"signature_override_rationale" db:"signature_override_rationale"`
	CreatedAt                   string  `json:"created_at" db:"created_at"`
	UpdatedAt                   string  `json:"updated_at" db:"updated_at"`
}

type AgreementVersion struct {
	ID            string  `json:"id" db:"id"`
	AgreementID   string  `json:"agreement_id" db:"agreement_id"`
	VersionNumber int     `json:"version_number" db:"version_number"`
	Content       string  `json:"content" db:"content"`
	CreatedBy     *string `json:"created_by" db:"created_by"`
	Notes         *string `json:"notes" db:"notes"`
	CreatedAt     string  `json:"created_at" db:"created_at"`
}

type AgreementNote struct {
	ID          string  `json:"id" db:"id"`
	AgreementID string  `json:"agreement_id" db:"agreement_id"`
	VersionID   *string `json:"version_id" db:"version_id"`
	NoteText    string  `json:"note_text" db:"note_text"`
	CreatedBy   *string `json:"created_by" db:"created_by"`
	CreatedAt   string  `json:"created_at" db:"created_at"`
}

type ReviewDraft struct {
	ID          string  `json:"id" db:"id"`
	AgreementID string  `json:"agreement_id" db:"agreement_id"`
	StoragePath string  `json:"storage_path" db:"storage_path"`
	Content     *string `json:"content" db:"content"`
	UploadedBy  *string `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   string  `json:"created_at" db:"created_at"`
}

type LinkedEstimateSummary struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Stage string `json:"stage" db:"stage"`
}

// AgreementDetail — договор вместе с версиями, заметками и привязанной оценкой
type AgreementDetail struct {
	AgreementRecord
	Versions       []AgreementVersion     `json:"versions"`
	Notes          []AgreementNote        `json:"notes"`
	LinkedEstimate *LinkedEstimateSummary `json:"linked_estimate"`
}

type AgreementPayload struct {
	Type                       *string `json:"type"`
	Counterparty               *string `json:"counterparty"`
	Content                    *string `json:"content"`
	LinkedEstimateID           *string `json:"linked_estimate_id"`
	ReadyForSignature          *bool   `json:"ready_for_signature"`
	SignatureOverrideRationale *string `json:"signature_override_rationale"`
}

type VersionPayload struct {
	Content   string   `json:"content"`
	Notes     *string  `json:"notes"`
	CreatedBy *string  `json:"created_by"`
	// ID принятых предложений ревью
	ProposalsApplied []string `json:"proposals_applied"`
}

type ReviewProposal struct {
	ID        string `json:"id"`
	Before    string `json:"before"`
	After     string `json:"after"`
	Rationale string `json:"rationale"`
	Section   string `json:"section,omitempty"`
}

type ReviewResponse struct {
	Proposals []ReviewProposal `json:"proposals"`
	Summary   string           `json:"summary"`
}
