package models

import "time"

// Project groups documents.
type Project struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectInput is used for creating/updating projects.
type ProjectInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (p *ProjectInput) Validate() error {
	return checkStruct(p)
}

// Document is a free-form text document, optionally filed under a project.
type Document struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ProjectID *string   `json:"project_id"`
	Name      string    `json:"name"`
	Content   *string   `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentInput is used for creating/updating documents.
type DocumentInput struct {
	Name      string  `json:"name" validate:"required,max=200"`
	ProjectID *string `json:"project_id" validate:"omitempty,min=1"`
	Content   *string `json:"content"`
}

func (d *DocumentInput) Validate() error {
	return checkStruct(d)
}

// Apply copies the input onto doc.
func (d *DocumentInput) Apply(doc *Document) {
	doc.Name = d.Name
	doc.ProjectID = d.ProjectID
	doc.Content = d.Content
}
