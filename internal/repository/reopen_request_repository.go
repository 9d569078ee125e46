package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// ReopenRequestRepository encapsulates reopen request persistence.
type ReopenRequestRepository interface {
	Create(ctx context.Context, req *domain.ReopenRequest) error
	Update(ctx context.Context, req *domain.ReopenRequest) error
	GetByID(ctx context.Context, id string) (*domain.ReopenRequest, error)
	HasPending(ctx context.Context, ticketID string) (bool, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ReopenRequest, error)
}

type reopenRequestRepository struct {
	pool *pgxpool.Pool
}

// NewReopenRequestRepository instantiates repository.
func NewReopenRequestRepository(pool *pgxpool.Pool) ReopenRequestRepository {
	return &reopenRequestRepository{pool: pool}
}

func (r *reopenRequestRepository) Create(ctx context.Context, req *domain.ReopenRequest) error {
	const query = `
        INSERT INTO reopen_requests (ticket_id, tenant_id, requested_by_user_id, client_reason, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		req.TicketID,
		req.TenantID,
		req.RequestedByUserID,
		req.ClientReason,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)
}

func (r *reopenRequestRepository) Update(ctx context.Context, req *domain.ReopenRequest) error {
	const query = `
        UPDATE reopen_requests SET status=$1, reviewed_by_user_id=$2, review_notes=$3, reviewed_at=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		req.Status,
		req.ReviewedByUserID,
		req.ReviewNotes,
		req.ReviewedAt,
		req.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reopenRequestRepository) GetByID(ctx context.Context, id string) (*domain.ReopenRequest, error) {
	const query = `
        SELECT id, ticket_id, tenant_id, requested_by_user_id, client_reason, status,
               reviewed_by_user_id, review_notes, reviewed_at, created_at
        FROM reopen_requests WHERE id=$1`
	var req domain.ReopenRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.TicketID,
		&req.TenantID,
		&req.RequestedByUserID,
		&req.ClientReason,
		&req.Status,
		&req.ReviewedByUserID,
		&req.ReviewNotes,
		&req.ReviewedAt,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *reopenRequestRepository) HasPending(ctx context.Context, ticketID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM reopen_requests WHERE ticket_id=$1 AND status='PENDING')`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *reopenRequestRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ReopenRequest, error) {
	const query = `
        SELECT id, ticket_id, tenant_id, requested_by_user_id, client_reason, status,
               reviewed_by_user_id, review_notes, reviewed_at, created_at
        FROM reopen_requests WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ReopenRequest
	for rows.Next() {
		var req domain.ReopenRequest
		if err := rows.Scan(
			&req.ID,
			&req.TicketID,
			&req.TenantID,
			&req.RequestedByUserID,
			&req.ClientReason,
			&req.Status,
			&req.ReviewedByUserID,
			&req.ReviewNotes,
			&req.ReviewedAt,
			&req.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}
