package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/codetype/internal/model"
)

// UpsertUser inserts the user or updates its profile fields.
func (s *Store) UpsertUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := s.exec(ctx,
		`INSERT INTO users (id, email, first_name, last_name, profile_image_url, username, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			profile_image_url = excluded.profile_image_url,
			username = excluded.username,
			updated_at = excluded.updated_at`,
		u.ID, u.Email, u.FirstName, u.LastName, u.ProfileImageURL, u.Username,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		return model.User{}, err
	}
	return s.GetUser(ctx, u.ID)
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	var email *string
	var createdAt, updatedAt string
	err := s.queryRow(ctx,
		`SELECT id, email, first_name, last_name, profile_image_url, username, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &email, &u.FirstName, &u.LastName, &u.ProfileImageURL, &u.Username, &createdAt, &updatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	if email != nil {
		u.Email = *email
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.User{}, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.User{}, err
	}
	return u, nil
}
