package profile

import (
	"context"
	"time"

	"backend-rotaapp/internal/db"
	"backend-rotaapp/internal/imagecache"
)

type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	db       db.Querier
	store    *imagecache.Store
	resolver *imagecache.Resolver
}

func NewService(querier db.Querier, store *imagecache.Store, resolver *imagecache.Resolver) *Service {
	return &Service{db: querier, store: store, resolver: resolver}
}

// Get returns a user's public profile with the display avatar resolved
// through the cache (a palette color when nothing was uploaded).
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, username, full_name, created_at
		FROM users WHERE id=$1
	`, userID)

	var p Profile
	if err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.CreatedAt); err != nil {
		return Profile{}, err
	}

	avatar, err := s.resolver.ResolveAvatar(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p.AvatarURL = avatar
	return p, nil
}

func (s *Service) UpdateDisplayName(ctx context.Context, userID, fullName string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET full_name=$2, updated_at=now() WHERE id=$1
	`, userID, fullName)
	return err
}

// UpdateAvatar stores the new avatar and refreshes the cached entry so the
// next resolution serves it immediately.
func (s *Service) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET avatar_url=$2, updated_at=now() WHERE id=$1
	`, userID, avatarURL)
	if err != nil {
		return err
	}
	s.store.Set(ctx, imagecache.ProfileImageKey(userID), avatarURL)
	return nil
}
