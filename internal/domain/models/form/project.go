package form

import (
	"time"

	"github.com/google/uuid"
)

// Actor identifies who caused an audit entry.
type Actor string

const (
	ActorUser Actor = "user"
	ActorAI   Actor = "ai"
)

// GlossaryEntry is a domain term injected into prompts when relevant.
// DefinitionFR is the working-language definition; ExplanationBM is
// the Bambara field explanation shown to enumerators.
type GlossaryEntry struct {
	ID            string `json:"id"`
	Term          string `json:"term"`
	DefinitionFR  string `json:"definition_fr"`
	ExplanationBM string `json:"explanation_bm,omitempty"`
	Category      string `json:"category,omitempty"`
	Level         string `json:"level,omitempty"`
}

// RegionalSettings adapt rendered labels to the deployment region.
type RegionalSettings struct {
	CulturalContext string   `json:"culturalContext,omitempty"`
	LocalTerms      []string `json:"localTerms,omitempty"`
}

// Branding holds presentation metadata carried with the project.
type Branding struct {
	OrgName      string `json:"orgName,omitempty"`
	LogoURL      string `json:"logoUrl,omitempty"`
	PrimaryColor string `json:"primaryColor,omitempty"`
}

// AuditEntry records one applied action. Entries are append-only and
// never mutated or reordered after creation.
type AuditEntry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     Actor                  `json:"actor"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// NewAuditEntry builds an audit entry with a fresh id and the current
// time.
func NewAuditEntry(actor Actor, action string, details map[string]interface{}) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    action,
		Details:   details,
	}
}

// Version is an immutable full snapshot of the form data, created only
// on explicit save.
type Version struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Comment   string    `json:"comment,omitempty"`
	FormData  FormData  `json:"formData"`
}

// Project is the root aggregate. Everything outside FormData is
// pass-through for the mutation pipeline: history, audit and versions
// are appended to, never rewritten.
type Project struct {
	ID                  string            `json:"id"`
	UserID              string            `json:"-"`
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	Icon                string            `json:"icon,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
	FormData            FormData          `json:"formData"`
	Glossary            []GlossaryEntry   `json:"glossary,omitempty"`
	ProjectConstitution string            `json:"projectConstitution,omitempty"`
	ChatHistory         []ChatTurn        `json:"chatHistory,omitempty"`
	AuditLog            []AuditEntry      `json:"auditLog,omitempty"`
	Versions            []Version         `json:"versions,omitempty"`
	RegionalSettings    *RegionalSettings `json:"regionalSettings,omitempty"`
	Branding            *Branding         `json:"branding,omitempty"`
}

// ProjectSummary is the listing view of a project, without the
// document payload.
type ProjectSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DefaultLanguage returns the form's default language, falling back to
// "default" when the settings leave it empty.
func (p *Project) DefaultLanguage() string {
	if p.FormData.Settings.DefaultLanguage != "" {
		return p.FormData.Settings.DefaultLanguage
	}
	return "default"
}
