package category

import "time"

// Category groups prompts by legal subject area. No hierarchy.
type Category struct {
	ID          string     `gorm:"primaryKey;size:36" json:"categoriaId"`
	Name        string     `gorm:"size:255;not null;uniqueIndex" json:"nome"`
	Description string     `gorm:"type:text" json:"descricao,omitempty"`
	Active      bool       `gorm:"not null;default:true" json:"ativo"`
	CreatedAt   time.Time  `json:"dataCriacao"`
	UpdatedAt   *time.Time `json:"dataAtualizacao,omitempty"`
}

// TableName keeps the legacy table naming.
func (Category) TableName() string {
	return "categories"
}
