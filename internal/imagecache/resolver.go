package imagecache

import (
	"context"
	"errors"

	"backend-rotaapp/internal/db"

	"github.com/jackc/pgx/v5"
)

// Resolver applies the display-image policy: cache hit first, then a real
// uploaded photo, then a synthetic pick from the cached population.
//
// The synthetic pick is a display fallback heuristic, not data integrity:
// a marker without photos borrows some other marker's cached image, chosen
// deterministically from whatever the cache currently holds.
type Resolver struct {
	store *Store
	db    db.Querier
}

func NewResolver(store *Store, querier db.Querier) *Resolver {
	return &Resolver{store: store, db: querier}
}

// ResolveMarkerImage returns the display image for a marker, or ok=false when
// nothing resolves. A cache hit never re-derives, including the explicit
// no-image sentinel.
func (r *Resolver) ResolveMarkerImage(ctx context.Context, ownerID, markerID string) (string, bool, error) {
	key := MarkerImageKey(ownerID, markerID)
	if cached, ok := r.store.Get(ctx, key); ok {
		if cached == NoImage {
			return "", false, nil
		}
		return cached, true, nil
	}

	var url string
	err := r.db.QueryRow(ctx, `
		SELECT photo_url FROM marker_photos
		WHERE marker_id=$1
		ORDER BY created_at
		LIMIT 1
	`, markerID).Scan(&url)
	if err == nil {
		r.store.Set(ctx, key, url)
		return url, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	if url, ok := r.syntheticMarkerImage(ctx, key); ok {
		r.store.Set(ctx, key, url)
		return url, true, nil
	}

	r.store.Set(ctx, key, NoImage)
	return "", false, nil
}

func (r *Resolver) syntheticMarkerImage(ctx context.Context, forKey string) (string, bool) {
	keys := r.store.KeysByPrefix(ctx, "marker_images_")

	var pool []string
	for _, k := range keys {
		if k == forKey {
			continue
		}
		if v, ok := r.store.Get(ctx, k); ok && v != NoImage {
			pool = append(pool, v)
		}
	}
	if len(pool) == 0 {
		return "", false
	}
	return pool[PickIndex(forKey, len(pool))], true
}

// ResolveAvatar returns a display avatar for a user: the cached value, the
// user's uploaded avatar URL, or a stable palette color.
func (r *Resolver) ResolveAvatar(ctx context.Context, userID string) (string, error) {
	key := ProfileImageKey(userID)
	if cached, ok := r.store.Get(ctx, key); ok {
		return cached, nil
	}

	var avatarURL string
	err := r.db.QueryRow(ctx, `SELECT avatar_url FROM users WHERE id=$1`, userID).Scan(&avatarURL)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if avatarURL == "" {
		avatarURL = AvatarPalette[PickIndex(userID, len(AvatarPalette))]
	}

	r.store.Set(ctx, key, avatarURL)
	return avatarURL, nil
}

// Invalidate drops the cached entry for a marker, used when the marker or
// its photos are removed.
func (r *Resolver) Invalidate(ctx context.Context, ownerID, markerID string) {
	r.store.Remove(ctx, MarkerImageKey(ownerID, markerID))
}
