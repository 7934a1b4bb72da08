package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrProjectNotFound = errors.New("project not found")

type Repository interface {
	Create(ctx context.Context, project Project) (Project, error)
	Get(ctx context.Context, id int) (Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, project Project) (Project, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, project Project) (Project, error) {
	query := `INSERT INTO project (name, client, estimated_hours, total_budget)
				VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.db.QueryRow(ctx, query,
		project.Name,
		project.Client,
		project.EstimatedHours,
		project.TotalBudget,
	).Scan(&project.Id)
	if err != nil {
		log.Error(err)
		return Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Project, error) {
	query := `SELECT id, name, client, estimated_hours, total_budget FROM project WHERE id = $1`

	var p Project
	err := r.db.QueryRow(ctx, query, id).Scan(&p.Id, &p.Name, &p.Client, &p.EstimatedHours, &p.TotalBudget)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrProjectNotFound
		}
		log.Error(err)
		return Project{}, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return p, nil
}

func (r *RepositoryImpl) List(ctx context.Context) ([]Project, error) {
	query := `SELECT id, name, client, estimated_hours, total_budget FROM project ORDER BY name, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		log.Error(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Id, &p.Name, &p.Client, &p.EstimatedHours, &p.TotalBudget); err != nil {
			log.Error(err)
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, project Project) (Project, error) {
	query := `UPDATE project SET name = $1, client = $2, estimated_hours = $3, total_budget = $4 WHERE id = $5`

	tag, err := r.db.Exec(ctx, query,
		project.Name,
		project.Client,
		project.EstimatedHours,
		project.TotalBudget,
		project.Id,
	)
	if err != nil {
		log.Error(err)
		return Project{}, fmt.Errorf("failed to update project %d: %w", project.Id, err)
	}
	if tag.RowsAffected() == 0 {
		return Project{}, ErrProjectNotFound
	}
	return project, nil
}
