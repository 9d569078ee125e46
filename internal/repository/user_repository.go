package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// UserRepository covers the user/role collaborator surface the engine needs:
// identity lookup and permission-scoped listings.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// ListAssignable returns active users in the tenant whose role can
	// receive tickets, in deterministic order (created_at, then id).
	ListAssignable(ctx context.Context, tenantID string) ([]domain.User, error)
	// ListReopenReviewers returns active users in the tenant whose role can
	// review reopen requests.
	ListReopenReviewers(ctx context.Context, tenantID string) ([]domain.User, error)
	// CanReviewReopens answers a single permission check.
	CanReviewReopens(ctx context.Context, userID string) (bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `u.id, u.tenant_id, u.name, u.email, u.role_id, u.active, u.created_at, u.updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id=$1`
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.TenantID,
		&user.Name,
		&user.Email,
		&user.RoleID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListAssignable(ctx context.Context, tenantID string) ([]domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users u
        JOIN roles r ON r.id = u.role_id
        WHERE u.tenant_id=$1 AND u.active AND r.can_receive_tickets
        ORDER BY u.created_at, u.id`
	return r.listUsers(ctx, query, tenantID)
}

func (r *userRepository) ListReopenReviewers(ctx context.Context, tenantID string) ([]domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users u
        JOIN roles r ON r.id = u.role_id
        WHERE u.tenant_id=$1 AND u.active AND r.can_review_reopens
        ORDER BY u.created_at, u.id`
	return r.listUsers(ctx, query, tenantID)
}

func (r *userRepository) CanReviewReopens(ctx context.Context, userID string) (bool, error) {
	const query = `
        SELECT r.can_review_reopens
        FROM users u JOIN roles r ON r.id = u.role_id
        WHERE u.id=$1 AND u.active`
	var allowed bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&allowed); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return allowed, nil
}

func (r *userRepository) listUsers(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.TenantID,
			&user.Name,
			&user.Email,
			&user.RoleID,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
