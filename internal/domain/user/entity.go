package user

import "time"

// RoleAdministrator is the role required to approve or reject prompts.
const RoleAdministrator = "Administrador"

// User represents a member of the prosecutor's office. Accounts are
// provisioned out of band; the server only authenticates and authorizes them.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"usuarioId"`
	Name         string     `gorm:"size:255;not null" json:"nome"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"` // Bcrypt hash, empty for SSO-only accounts.
	Role         string     `gorm:"size:64;index" json:"cargo,omitempty"`
	Unit         string     `gorm:"size:255" json:"unidade,omitempty"`
	Avatar       string     `gorm:"size:512" json:"avatar,omitempty"`
	Location     string     `gorm:"size:255" json:"localizacao,omitempty"`
	Active       bool       `gorm:"not null;default:true" json:"ativo"`
	LastSeenAt   *time.Time `json:"ultimoAcesso,omitempty"`
	CreatedAt    time.Time  `json:"dataCriacao"`
	UpdatedAt    *time.Time `json:"dataAtualizacao,omitempty"`
}

// TableName keeps the legacy table naming.
func (User) TableName() string {
	return "users"
}

// IsApprover reports whether the user may approve or reject prompts.
// Inactive accounts never hold the permission, whatever their role says.
func (u *User) IsApprover() bool {
	if u == nil || !u.Active {
		return false
	}
	return u.Role == RoleAdministrator
}

// Brief is the projection embedded in prompt payloads: enough for the UI to
// render an author chip without a second request.
type Brief struct {
	ID     uint   `json:"usuarioId"`
	Name   string `json:"nome"`
	Role   string `json:"cargo,omitempty"`
	Unit   string `json:"unidade,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// BriefOf builds the embedded projection from a full user row.
func BriefOf(u *User) Brief {
	if u == nil {
		return Brief{}
	}
	return Brief{
		ID:     u.ID,
		Name:   u.Name,
		Role:   u.Role,
		Unit:   u.Unit,
		Avatar: u.Avatar,
	}
}
