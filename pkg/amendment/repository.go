package amendment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrAmendmentNotFound = errors.New("amendment not found")
var ErrAmendmentNotEditable = errors.New("amendment is no longer editable")

type Repository interface {
	Create(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error)
	Get(ctx context.Context, projectId, id int) (ContractAmendment, error)
	List(ctx context.Context, projectId int) ([]ContractAmendment, error)
	Update(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error)
	SetStatus(ctx context.Context, projectId, id int, status Status) (ContractAmendment, error)
	// Approve marks the amendment approved and recomputes the project's total
	// budget from all approved amendments, atomically.
	Approve(ctx context.Context, projectId, id int, approvedBy string, approvedAt time.Time) (ContractAmendment, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const selectColumns = `id, project_id, reference, title, type, value, status, effective_date, approved_at, approved_by`

func scanAmendment(row pgx.Row) (ContractAmendment, error) {
	var a ContractAmendment
	var amendmentType, status string
	err := row.Scan(
		&a.Id,
		&a.ProjectId,
		&a.Reference,
		&a.Title,
		&amendmentType,
		&a.Value,
		&status,
		&a.EffectiveDate,
		&a.ApprovedAt,
		&a.ApprovedBy,
	)
	if err != nil {
		return ContractAmendment{}, err
	}
	a.Type = Type(amendmentType)
	a.Status = Status(status)
	return a, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error) {
	query := `INSERT INTO contract_amendment (project_id, reference, title, type, value, status, effective_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := r.db.QueryRow(ctx, query,
		amendment.ProjectId,
		amendment.Reference,
		amendment.Title,
		string(amendment.Type),
		amendment.Value,
		string(amendment.Status),
		amendment.EffectiveDate,
	).Scan(&amendment.Id)
	if err != nil {
		log.Error(err)
		return ContractAmendment{}, fmt.Errorf("failed to create amendment: %w", err)
	}
	return amendment, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, projectId, id int) (ContractAmendment, error) {
	query := `SELECT ` + selectColumns + ` FROM contract_amendment WHERE project_id = $1 AND id = $2`
	a, err := scanAmendment(r.db.QueryRow(ctx, query, projectId, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContractAmendment{}, ErrAmendmentNotFound
		}
		log.Error(err)
		return ContractAmendment{}, fmt.Errorf("failed to get amendment %d: %w", id, err)
	}
	return a, nil
}

func (r *RepositoryImpl) List(ctx context.Context, projectId int) ([]ContractAmendment, error) {
	query := `SELECT ` + selectColumns + ` FROM contract_amendment
				WHERE project_id = $1
				ORDER BY effective_date NULLS LAST, id`

	rows, err := r.db.Query(ctx, query, projectId)
	if err != nil {
		log.Error(err)
		return nil, fmt.Errorf("failed to list amendments: %w", err)
	}
	defer rows.Close()

	amendments := make([]ContractAmendment, 0)
	for rows.Next() {
		a, err := scanAmendment(rows)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		amendments = append(amendments, a)
	}
	return amendments, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error) {
	query := `UPDATE contract_amendment
				SET title = $1, type = $2, value = $3, effective_date = $4
				WHERE project_id = $5 AND id = $6 AND status IN ('draft', 'pending')`

	tag, err := r.db.Exec(ctx, query,
		amendment.Title,
		string(amendment.Type),
		amendment.Value,
		amendment.EffectiveDate,
		amendment.ProjectId,
		amendment.Id,
	)
	if err != nil {
		log.Error(err)
		return ContractAmendment{}, fmt.Errorf("failed to update amendment %d: %w", amendment.Id, err)
	}
	if tag.RowsAffected() == 0 {
		return ContractAmendment{}, r.notUpdatedReason(ctx, amendment.ProjectId, amendment.Id)
	}
	return r.Get(ctx, amendment.ProjectId, amendment.Id)
}

func (r *RepositoryImpl) SetStatus(ctx context.Context, projectId, id int, status Status) (ContractAmendment, error) {
	query := `UPDATE contract_amendment SET status = $1
				WHERE project_id = $2 AND id = $3 AND status IN ('draft', 'pending')`

	tag, err := r.db.Exec(ctx, query, string(status), projectId, id)
	if err != nil {
		log.Error(err)
		return ContractAmendment{}, fmt.Errorf("failed to set amendment %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ContractAmendment{}, r.notUpdatedReason(ctx, projectId, id)
	}
	return r.Get(ctx, projectId, id)
}

func (r *RepositoryImpl) Approve(ctx context.Context, projectId, id int, approvedBy string, approvedAt time.Time) (ContractAmendment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		log.Error(err)
		return ContractAmendment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Approvals of one project are serialized on the project row so the total below sees every committed approval.
	var lockedProject int
	err = tx.QueryRow(ctx, `SELECT id FROM project WHERE id = $1 FOR UPDATE`, projectId).Scan(&lockedProject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContractAmendment{}, ErrAmendmentNotFound
		}
		log.Error(err)
		return ContractAmendment{}, err
	}

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM contract_amendment WHERE project_id = $1 AND id = $2 FOR UPDATE`,
		projectId, id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContractAmendment{}, ErrAmendmentNotFound
		}
		log.Error(err)
		return ContractAmendment{}, err
	}
	if !(ContractAmendment{Status: Status(status)}).IsEditable() {
		return ContractAmendment{}, ErrAmendmentNotEditable
	}

	_, err = tx.Exec(ctx,
		`UPDATE contract_amendment SET status = 'approved', approved_at = $1, approved_by = $2 WHERE id = $3`,
		approvedAt, approvedBy, id,
	)
	if err != nil {
		log.Error(err)
		return ContractAmendment{}, fmt.Errorf("failed to approve amendment %d: %w", id, err)
	}

	_, err = tx.Exec(ctx, `UPDATE project SET total_budget = (
			SELECT COALESCE(SUM(value), 0) FROM contract_amendment WHERE project_id = $1 AND status = 'approved'
		) WHERE id = $1`, projectId)
	if err != nil {
		log.Error(err)
		return ContractAmendment{}, fmt.Errorf("failed to update project %d total budget: %w", projectId, err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error(err)
		return ContractAmendment{}, fmt.Errorf("failed to commit amendment approval: %w", err)
	}
	return r.Get(ctx, projectId, id)
}

func (r *RepositoryImpl) notUpdatedReason(ctx context.Context, projectId, id int) error {
	if _, err := r.Get(ctx, projectId, id); err != nil {
		return err
	}
	return ErrAmendmentNotEditable
}
