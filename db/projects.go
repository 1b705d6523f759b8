package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/albertcolmenero/invoicehub/models"
)

const projectSelectQuery = `SELECT id, owner_id, name, created_at, updated_at FROM projects`

const documentSelectQuery = `SELECT id, owner_id, project_id, name, content, created_at, updated_at FROM documents`

func scanProject(scanner interface{ Scan(...any) error }) (models.Project, error) {
	var p models.Project
	err := scanner.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanDocument(scanner interface{ Scan(...any) error }) (models.Document, error) {
	var d models.Document
	err := scanner.Scan(&d.ID, &d.OwnerID, &d.ProjectID, &d.Name, &d.Content, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, projectSelectQuery+" WHERE owner_id = $1 ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, storeErr(err, "listing projects")
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, storeErr(err, "scanning project")
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "listing projects")
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, ownerID, projectID string) (models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, projectSelectQuery+" WHERE id = $1 AND owner_id = $2", projectID, ownerID))
	if err != nil {
		return models.Project{}, rowErr(err, "project", projectID)
	}
	return p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := s.db.QueryRowContext(ctx, `INSERT INTO projects (id, owner_id, name) VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`, p.ID, p.OwnerID, p.Name).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapErr(err, "inserting project")
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	err := s.db.QueryRowContext(ctx, `UPDATE projects SET name = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`, p.ID, p.OwnerID, p.Name).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return rowErr(err, "project", p.ID)
	}
	return nil
}

// DeleteProject removes the project. Its documents stay, detached.
func (s *Store) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = $1 AND owner_id = $2", projectID, ownerID)
	if err != nil {
		return mapErr(err, "deleting project")
	}
	return affected(res, "project", projectID)
}

// ListDocuments returns the owner's documents, only those filed under
// projectID when it is set.
func (s *Store) ListDocuments(ctx context.Context, ownerID, projectID string) ([]models.Document, error) {
	query := documentSelectQuery + " WHERE owner_id = $1"
	args := []any{ownerID}
	if projectID != "" {
		if _, err := s.GetProject(ctx, ownerID, projectID); err != nil {
			return nil, err
		}
		query += " AND project_id = $2"
		args = append(args, projectID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "listing documents")
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, storeErr(err, "scanning document")
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "listing documents")
	}
	return docs, nil
}

func (s *Store) GetDocument(ctx context.Context, ownerID, documentID string) (models.Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx, documentSelectQuery+" WHERE id = $1 AND owner_id = $2", documentID, ownerID))
	if err != nil {
		return models.Document{}, rowErr(err, "document", documentID)
	}
	return d, nil
}

// checkProject rejects a project reference the owner does not hold.
func (s *Store) checkProject(ctx context.Context, d *models.Document) error {
	if d.ProjectID == nil {
		return nil
	}
	_, err := s.GetProject(ctx, d.OwnerID, *d.ProjectID)
	return err
}

func (s *Store) CreateDocument(ctx context.Context, d *models.Document) error {
	if err := s.checkProject(ctx, d); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	err := s.db.QueryRowContext(ctx, `INSERT INTO documents (id, owner_id, project_id, name, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`, d.ID, d.OwnerID, d.ProjectID, d.Name, d.Content).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return mapErr(err, "inserting document")
	}
	return nil
}

func (s *Store) UpdateDocument(ctx context.Context, d *models.Document) error {
	if err := s.checkProject(ctx, d); err != nil {
		return err
	}
	err := s.db.QueryRowContext(ctx, `UPDATE documents SET project_id = $3, name = $4, content = $5, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`, d.ID, d.OwnerID, d.ProjectID, d.Name, d.Content).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return rowErr(err, "document", d.ID)
	}
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, ownerID, documentID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1 AND owner_id = $2", documentID, ownerID)
	if err != nil {
		return mapErr(err, "deleting document")
	}
	return affected(res, "document", documentID)
}
