package expense

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrExpenseNotFound = errors.New("expense not found")

type Repository interface {
	List(ctx context.Context, projectId int) ([]Expense, error)
	Get(ctx context.Context, projectId, id int) (Expense, error)
	Create(ctx context.Context, expense Expense) (Expense, error)
	Update(ctx context.Context, expense Expense) (Expense, error)
	Delete(ctx context.Context, projectId, id int) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const selectColumns = `id, project_id, expense_date, amount, category, description, is_billable, billed,
	expense_report_id, has_receipt, reimbursement_status, assigned_resource_id, author_id`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	var status string
	err := row.Scan(
		&e.Id,
		&e.ProjectId,
		&e.Date,
		&e.Amount,
		&e.Category,
		&e.Description,
		&e.IsBillable,
		&e.Billed,
		&e.ExpenseReportId,
		&e.HasReceipt,
		&status,
		&e.AssignedResourceId,
		&e.AuthorId,
	)
	if err != nil {
		return Expense{}, err
	}
	e.ReimbursementStatus = ReimbursementStatus(status)
	return e, nil
}

func (r *RepositoryImpl) List(ctx context.Context, projectId int) ([]Expense, error) {
	query := `SELECT ` + selectColumns + ` FROM expense WHERE project_id = $1 ORDER BY expense_date DESC, id`

	rows, err := r.db.Query(ctx, query, projectId)
	if err != nil {
		log.Error(err)
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *RepositoryImpl) Get(ctx context.Context, projectId, id int) (Expense, error) {
	query := `SELECT ` + selectColumns + ` FROM expense WHERE project_id = $1 AND id = $2`
	e, err := scanExpense(r.db.QueryRow(ctx, query, projectId, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrExpenseNotFound
		}
		log.Error(err)
		return Expense{}, fmt.Errorf("failed to get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, expense Expense) (Expense, error) {
	query := `INSERT INTO expense (project_id, expense_date, amount, category, description, is_billable, billed,
					expense_report_id, has_receipt, reimbursement_status, assigned_resource_id, author_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`

	err := r.db.QueryRow(ctx, query,
		expense.ProjectId,
		expense.Date,
		expense.Amount,
		expense.Category,
		expense.Description,
		expense.IsBillable,
		expense.Billed,
		expense.ExpenseReportId,
		expense.HasReceipt,
		string(expense.ReimbursementStatus),
		expense.AssignedResourceId,
		expense.AuthorId,
	).Scan(&expense.Id)
	if err != nil {
		log.Error(err)
		return Expense{}, fmt.Errorf("failed to create expense: %w", err)
	}
	return expense, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, expense Expense) (Expense, error) {
	query := `UPDATE expense
				SET expense_date = $1, amount = $2, category = $3, description = $4, is_billable = $5, billed = $6,
					expense_report_id = $7, has_receipt = $8, reimbursement_status = $9, assigned_resource_id = $10
				WHERE project_id = $11 AND id = $12`

	tag, err := r.db.Exec(ctx, query,
		expense.Date,
		expense.Amount,
		expense.Category,
		expense.Description,
		expense.IsBillable,
		expense.Billed,
		expense.ExpenseReportId,
		expense.HasReceipt,
		string(expense.ReimbursementStatus),
		expense.AssignedResourceId,
		expense.ProjectId,
		expense.Id,
	)
	if err != nil {
		log.Error(err)
		return Expense{}, fmt.Errorf("failed to update expense %d: %w", expense.Id, err)
	}
	if tag.RowsAffected() == 0 {
		return Expense{}, ErrExpenseNotFound
	}
	return r.Get(ctx, expense.ProjectId, expense.Id)
}

func (r *RepositoryImpl) Delete(ctx context.Context, projectId, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expense WHERE project_id = $1 AND id = $2`, projectId, id)
	if err != nil {
		log.Error(err)
		return fmt.Errorf("failed to delete expense %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}
