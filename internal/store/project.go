package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskhive-app/apiserver/types"
)

// ProjectRepository handles persistence for projects and their teams.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project types.Project) (types.Project, error) {
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	const query = `
		INSERT INTO projects (project_name, client_name, description, manager_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		project.ProjectName,
		project.ClientName,
		project.Description,
		project.ManagerID,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID); err != nil {
		return types.Project{}, err
	}
	return project, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id int) (types.Project, error) {
	const query = `
		SELECT id, project_name, client_name, description, manager_id, created_at, updated_at
		FROM projects
		WHERE id = $1`
	var project types.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.ProjectName,
		&project.ClientName,
		&project.Description,
		&project.ManagerID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Project{}, ErrNotFound
		}
		return types.Project{}, err
	}

	team, err := r.teamIDs(ctx, id)
	if err != nil {
		return types.Project{}, err
	}
	project.Team = team
	return project, nil
}

// ListForUser returns the projects the user manages or belongs to.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID int) ([]types.Project, error) {
	const query = `
		SELECT DISTINCT p.id, p.project_name, p.client_name, p.description, p.manager_id, p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN project_members m ON m.project_id = p.id
		WHERE p.manager_id = $1 OR m.user_id = $1
		ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []types.Project{}
	for rows.Next() {
		var project types.Project
		if err := rows.Scan(
			&project.ID,
			&project.ProjectName,
			&project.ClientName,
			&project.Description,
			&project.ManagerID,
			&project.CreatedAt,
			&project.UpdatedAt,
		); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, project types.Project) (types.Project, error) {
	project.UpdatedAt = time.Now()

	const query = `
		UPDATE projects
		SET project_name = $1,
			client_name = $2,
			description = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		project.ProjectName,
		project.ClientName,
		project.Description,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return types.Project{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Project{}, err
	}
	if affected == 0 {
		return types.Project{}, ErrNotFound
	}
	return project, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM projects WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID int) error {
	const query = `
		INSERT INTO project_members (project_id, user_id)
		VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		return translateUnique(err)
	}
	return nil
}

func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID int) error {
	const query = `
		DELETE FROM project_members
		WHERE project_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMembers returns the team users of a project, manager excluded.
func (r *ProjectRepository) ListMembers(ctx context.Context, projectID int) ([]types.User, error) {
	const query = `
		SELECT u.id, u.name, u.email, u.password_hash, u.confirmed, u.created_at, u.updated_at
		FROM users u
		JOIN project_members m ON m.user_id = u.id
		WHERE m.project_id = $1
		ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []types.User{}
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Confirmed,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, user)
	}
	return members, rows.Err()
}

func (r *ProjectRepository) teamIDs(ctx context.Context, projectID int) ([]int, error) {
	const query = `
		SELECT user_id
		FROM project_members
		WHERE project_id = $1
		ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
