package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"roomsync-service/internal/models"
)

// ProfileRepository abstracts the author metadata store. Writes made through
// Upsert are visible to the next GetByIDs call.
type ProfileRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Profile, error)
	Upsert(ctx context.Context, profile models.Profile) (models.Profile, error)
}

// ProfileRepo is a sqlx-backed repository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetByIDs fetches profiles for the given author ids. Unknown ids are simply
// absent from the result.
func (r *ProfileRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, username, avatar_url, updated_at FROM profiles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Upsert inserts or updates a profile row.
func (r *ProfileRepo) Upsert(ctx context.Context, profile models.Profile) (models.Profile, error) {
	var out models.Profile
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO profiles (id, username, avatar_url, updated_at) VALUES ($1, $2, $3, NOW())
         ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username,
            avatar_url = EXCLUDED.avatar_url, updated_at = NOW()
         RETURNING id, username, avatar_url, updated_at`,
		profile.ID, profile.Username, profile.AvatarURL).
		Scan(&out.ID, &out.Username, &out.AvatarURL, &out.UpdatedAt)
	return out, err
}
