package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// ChannelPreferenceRepository encapsulates per-user channel settings.
type ChannelPreferenceRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.ChannelPreference, error)
	Upsert(ctx context.Context, pref *domain.ChannelPreference) error
	// EnsureDefaults lazily materializes missing rows with channel defaults
	// and returns the full preference set.
	EnsureDefaults(ctx context.Context, userID string) ([]domain.ChannelPreference, error)
}

type channelPreferenceRepository struct {
	pool *pgxpool.Pool
}

// NewChannelPreferenceRepository instantiates repository.
func NewChannelPreferenceRepository(pool *pgxpool.Pool) ChannelPreferenceRepository {
	return &channelPreferenceRepository{pool: pool}
}

func (r *channelPreferenceRepository) ListByUser(ctx context.Context, userID string) ([]domain.ChannelPreference, error) {
	const query = `
        SELECT id, user_id, channel, enabled, config, created_at, updated_at
        FROM channel_preferences WHERE user_id=$1 ORDER BY channel`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChannelPreference
	for rows.Next() {
		var pref domain.ChannelPreference
		if err := rows.Scan(
			&pref.ID,
			&pref.UserID,
			&pref.Channel,
			&pref.Enabled,
			&pref.Config,
			&pref.CreatedAt,
			&pref.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, pref)
	}
	return result, rows.Err()
}

func (r *channelPreferenceRepository) Upsert(ctx context.Context, pref *domain.ChannelPreference) error {
	const query = `
        INSERT INTO channel_preferences (user_id, channel, enabled, config)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id, channel)
        DO UPDATE SET enabled=EXCLUDED.enabled, config=EXCLUDED.config, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	config := pref.Config
	if config == nil {
		config = map[string]string{}
	}
	return r.pool.QueryRow(ctx, query,
		pref.UserID,
		pref.Channel,
		pref.Enabled,
		config,
	).Scan(&pref.ID, &pref.CreatedAt, &pref.UpdatedAt)
}

func (r *channelPreferenceRepository) EnsureDefaults(ctx context.Context, userID string) ([]domain.ChannelPreference, error) {
	existing, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	have := make(map[domain.ChannelType]bool, len(existing))
	for _, pref := range existing {
		have[pref.Channel] = true
	}

	const insert = `
        INSERT INTO channel_preferences (user_id, channel, enabled, config)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id, channel) DO NOTHING`
	missing := false
	for _, def := range domain.DefaultPreferences(userID) {
		if have[def.Channel] {
			continue
		}
		missing = true
		if _, err := r.pool.Exec(ctx, insert, def.UserID, def.Channel, def.Enabled, def.Config); err != nil {
			return nil, err
		}
	}
	if !missing {
		return existing, nil
	}
	return r.ListByUser(ctx, userID)
}
