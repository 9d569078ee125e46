package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ListOpenActive returns every ticket the escalation sweep must evaluate.
	ListOpenActive(ctx context.Context) ([]domain.Ticket, error)
	// UpdateAlertLevel persists only the alert level for one ticket.
	UpdateAlertLevel(ctx context.Context, id string, level domain.AlertLevel) error
	// CountOpenAssigned computes the derived workload of one employee.
	CountOpenAssigned(ctx context.Context, employeeID string) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, tenant_id, title, description, status, alert_level,
               assigned_employee_id, created_by_user_id, created_at, updated_at,
               final_state_reached_at, reopened_at, image_upload_enabled,
               image_upload_expires_at, active`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (tenant_id, title, description, status, alert_level,
            assigned_employee_id, created_by_user_id, image_upload_enabled, image_upload_expires_at, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TenantID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.AlertLevel,
		ticket.AssignedEmployeeID,
		ticket.CreatedByUserID,
		ticket.ImageUploadEnabled,
		ticket.ImageUploadExpiresAt,
		ticket.Active,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, alert_level=$4,
            assigned_employee_id=$5, final_state_reached_at=$6, reopened_at=$7,
            image_upload_enabled=$8, image_upload_expires_at=$9, active=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.AlertLevel,
		ticket.AssignedEmployeeID,
		ticket.FinalStateReachedAt,
		ticket.ReopenedAt,
		ticket.ImageUploadEnabled,
		ticket.ImageUploadExpiresAt,
		ticket.Active,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListOpenActive(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
             FROM tickets
             WHERE active AND status IN ('PENDING','IN_PROGRESS')
             ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateAlertLevel(ctx context.Context, id string, level domain.AlertLevel) error {
	const query = `UPDATE tickets SET alert_level=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, level, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountOpenAssigned(ctx context.Context, employeeID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE assigned_employee_id=$1 AND status IN ('PENDING','IN_PROGRESS')`
	var count int
	if err := r.pool.QueryRow(ctx, query, employeeID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.TenantID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.AlertLevel,
		&t.AssignedEmployeeID,
		&t.CreatedByUserID,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.FinalStateReachedAt,
		&t.ReopenedAt,
		&t.ImageUploadEnabled,
		&t.ImageUploadExpiresAt,
		&t.Active,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
