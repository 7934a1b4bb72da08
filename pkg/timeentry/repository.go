package timeentry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrTimeEntryNotFound = errors.New("time entry not found")
var ErrTimeEntryLocked = errors.New("time entry is locked")

type Repository interface {
	List(ctx context.Context, projectId int) ([]TimeEntry, error)
	Get(ctx context.Context, projectId, id int) (TimeEntry, error)
	Create(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	// Update and Delete only touch unlocked entries and return ErrTimeEntryLocked otherwise.
	Update(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	Delete(ctx context.Context, projectId, id int) error
	Lock(ctx context.Context, projectId, id int) (TimeEntry, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const selectColumns = `id, project_id, person_id, entry_date, hours, billing_rate, cost_rate,
	is_billable, is_locked, workstream, stage, description`

func scanEntry(row pgx.Row) (TimeEntry, error) {
	var e TimeEntry
	err := row.Scan(
		&e.Id,
		&e.ProjectId,
		&e.PersonId,
		&e.Date,
		&e.Hours,
		&e.BillingRate,
		&e.CostRate,
		&e.IsBillable,
		&e.IsLocked,
		&e.Workstream,
		&e.Stage,
		&e.Description,
	)
	if err != nil {
		return TimeEntry{}, err
	}
	e.Date = dateOnly(e.Date)
	return e, nil
}

func (r *RepositoryImpl) List(ctx context.Context, projectId int) ([]TimeEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM time_entry WHERE project_id = $1 ORDER BY entry_date DESC, id`

	rows, err := r.db.Query(ctx, query, projectId)
	if err != nil {
		log.Error(err)
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()

	entries := make([]TimeEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *RepositoryImpl) Get(ctx context.Context, projectId, id int) (TimeEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM time_entry WHERE project_id = $1 AND id = $2`
	e, err := scanEntry(r.db.QueryRow(ctx, query, projectId, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TimeEntry{}, ErrTimeEntryNotFound
		}
		log.Error(err)
		return TimeEntry{}, fmt.Errorf("failed to get time entry %d: %w", id, err)
	}
	return e, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, entry TimeEntry) (TimeEntry, error) {
	query := `INSERT INTO time_entry (project_id, person_id, entry_date, hours, billing_rate, cost_rate,
					is_billable, is_locked, workstream, stage, description)
				VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, $10) RETURNING id`

	err := r.db.QueryRow(ctx, query,
		entry.ProjectId,
		entry.PersonId,
		entry.Date,
		entry.Hours,
		entry.BillingRate,
		entry.CostRate,
		entry.IsBillable,
		entry.Workstream,
		entry.Stage,
		entry.Description,
	).Scan(&entry.Id)
	if err != nil {
		log.Error(err)
		return TimeEntry{}, fmt.Errorf("failed to create time entry: %w", err)
	}
	entry.IsLocked = false
	return entry, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, entry TimeEntry) (TimeEntry, error) {
	query := `UPDATE time_entry
				SET person_id = $1, entry_date = $2, hours = $3, billing_rate = $4, cost_rate = $5,
					is_billable = $6, workstream = $7, stage = $8, description = $9
				WHERE project_id = $10 AND id = $11 AND NOT is_locked`

	tag, err := r.db.Exec(ctx, query,
		entry.PersonId,
		entry.Date,
		entry.Hours,
		entry.BillingRate,
		entry.CostRate,
		entry.IsBillable,
		entry.Workstream,
		entry.Stage,
		entry.Description,
		entry.ProjectId,
		entry.Id,
	)
	if err != nil {
		log.Error(err)
		return TimeEntry{}, fmt.Errorf("failed to update time entry %d: %w", entry.Id, err)
	}
	if tag.RowsAffected() == 0 {
		return TimeEntry{}, r.notChangedReason(ctx, entry.ProjectId, entry.Id)
	}
	return r.Get(ctx, entry.ProjectId, entry.Id)
}

func (r *RepositoryImpl) Delete(ctx context.Context, projectId, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM time_entry WHERE project_id = $1 AND id = $2 AND NOT is_locked`, projectId, id)
	if err != nil {
		log.Error(err)
		return fmt.Errorf("failed to delete time entry %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return r.notChangedReason(ctx, projectId, id)
	}
	return nil
}

func (r *RepositoryImpl) Lock(ctx context.Context, projectId, id int) (TimeEntry, error) {
	tag, err := r.db.Exec(ctx, `UPDATE time_entry SET is_locked = TRUE WHERE project_id = $1 AND id = $2`, projectId, id)
	if err != nil {
		log.Error(err)
		return TimeEntry{}, fmt.Errorf("failed to lock time entry %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return TimeEntry{}, ErrTimeEntryNotFound
	}
	return r.Get(ctx, projectId, id)
}

func (r *RepositoryImpl) notChangedReason(ctx context.Context, projectId, id int) error {
	e, err := r.Get(ctx, projectId, id)
	if err != nil {
		return err
	}
	if e.IsLocked {
		return ErrTimeEntryLocked
	}
	return fmt.Errorf("time entry %d was not changed", id)
}
