package prompt

import (
	"time"

	categorydomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/category"
	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"
)

// Status values a prompt moves through. A prompt is created pending and is
// moderated exactly once into approved or rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is one of the three moderation states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// MaxTitleLength caps prompt titles server-side.
const MaxTitleLength = 100

// Prompt is the central content entity: a reusable legal-text template
// authored by a member of the prosecutor's office.
type Prompt struct {
	ID              string     `gorm:"primaryKey;size:36" json:"promptId"`            // UUID assigned on creation.
	Title           string     `gorm:"size:255;not null" json:"titulo"`               // Short display title.
	Description     string     `gorm:"type:text" json:"descricao"`                    // Optional summary shown on cards.
	Content         string     `gorm:"type:text;not null" json:"conteudo"`            // The legal text body.
	CategoryID      string     `gorm:"size:36;not null;index" json:"categoriaId"`     // Owning category.
	Public          bool       `gorm:"not null;default:false" json:"publico"`         // Visibility flag, independent of status.
	Status          string     `gorm:"size:16;not null;default:'pending';index" json:"status"`
	CreatorID       uint       `gorm:"not null;index" json:"usuarioCriadorId"`        // Set once at creation, never reassigned.
	CreatedAt       time.Time  `json:"dataCriacao"`
	UpdatedAt       *time.Time `json:"dataAtualizacao,omitempty"` // Stamped on edit only.
	ApprovedAt      *time.Time `json:"dataAprovacao,omitempty"`   // Set if and only if status is approved.
	ApproverID      *uint      `gorm:"index" json:"usuarioAprovadorId,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"motivoRejeicao,omitempty"` // Required input when rejecting.

	// Hydrated at read time, not columns on the prompt row.
	Keywords  []string                 `gorm:"-" json:"palavrasChave"`
	LikeCount int64                    `gorm:"-" json:"curtidasCount"`
	Liked     bool                     `gorm:"-" json:"curtidoPeloUsuarioAtual"`
	Favorited bool                     `gorm:"-" json:"favoritadoPeloUsuarioAtual"`
	Category  *categorydomain.Category `gorm:"-" json:"categoria,omitempty"`
	Creator   *userdomain.Brief        `gorm:"-" json:"usuarioCriador,omitempty"`
	Approver  *userdomain.Brief        `gorm:"-" json:"usuarioAprovador,omitempty"`
}

// TableName keeps the legacy table naming.
func (Prompt) TableName() string {
	return "prompts"
}

// Keyword is one free-text tag attached to a prompt. Keywords live in a side
// table, many rows per prompt, written in the same transaction as the prompt.
type Keyword struct {
	PromptID string `gorm:"primaryKey;size:36;column:prompt_id"`
	Word     string `gorm:"primaryKey;size:255;column:word"`
}

// TableName returns the keyword side table name.
func (Keyword) TableName() string {
	return "prompt_keywords"
}

// Like is one user's like of one prompt. The composite primary key is the
// uniqueness guarantee: a concurrent duplicate insert conflicts instead of
// creating a second row.
type Like struct {
	PromptID  string    `gorm:"primaryKey;size:36;column:prompt_id"`
	UserID    uint      `gorm:"primaryKey;column:user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the like join table name.
func (Like) TableName() string {
	return "prompt_likes"
}

// Favorite mirrors Like in a separate table.
type Favorite struct {
	PromptID  string    `gorm:"primaryKey;size:36;column:prompt_id"`
	UserID    uint      `gorm:"primaryKey;column:user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the favorite join table name.
func (Favorite) TableName() string {
	return "prompt_favorites"
}
