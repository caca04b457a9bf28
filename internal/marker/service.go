package marker

import (
	"context"
	"errors"
	"sort"
	"strings"

	"backend-rotaapp/internal/db"
	"backend-rotaapp/internal/imagecache"
	"backend-rotaapp/internal/shared/geo"

	"github.com/google/uuid"
)

var ErrNotOwner = errors.New("marker does not belong to the user")

type Service struct {
	db       db.Querier
	resolver *imagecache.Resolver
}

func NewService(querier db.Querier, resolver *imagecache.Resolver) *Service {
	return &Service{db: querier, resolver: resolver}
}

// CreateMarker records a confirmed map placement. Title and description come
// later through UpdateMarker.
func (s *Service) CreateMarker(ctx context.Context, input Marker) (Marker, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO markers (id, user_id, lat, lng, title, description)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at
	`, input.ID, input.UserID, input.Lat, input.Lng, input.Title, input.Description)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Marker{}, err
	}
	return input, nil
}

func (s *Service) GetMarker(ctx context.Context, id, viewerID string) (Marker, error) {
	row := s.db.QueryRow(ctx, `
		SELECT m.id, m.user_id, m.lat, m.lng, m.title, m.description, m.is_saved,
		       EXISTS (SELECT 1 FROM marker_likes ml WHERE ml.marker_id=m.id AND ml.user_id=$2),
		       m.like_count, m.comment_count, m.created_at, m.updated_at
		FROM markers m WHERE m.id=$1
	`, id, viewerID)
	var m Marker
	if err := row.Scan(&m.ID, &m.UserID, &m.Lat, &m.Lng, &m.Title, &m.Description, &m.IsSaved,
		&m.IsLiked, &m.LikeCount, &m.CommentCount, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return Marker{}, err
	}
	return m, nil
}

// UpdateMarker saves title/description edits and marks the entry as saved.
// Only the owner may edit.
func (s *Service) UpdateMarker(ctx context.Context, id, viewerID string, patch Marker) (Marker, error) {
	m, err := s.GetMarker(ctx, id, viewerID)
	if err != nil {
		return Marker{}, err
	}
	if m.UserID != viewerID {
		return Marker{}, ErrNotOwner
	}
	if strings.TrimSpace(patch.Title) != "" {
		m.Title = patch.Title
	}
	if patch.Description != "" {
		m.Description = patch.Description
	}
	m.IsSaved = true

	row := s.db.QueryRow(ctx, `
		UPDATE markers
		SET title=$2, description=$3, is_saved=TRUE, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, m.ID, m.Title, m.Description)
	if err := row.Scan(&m.UpdatedAt); err != nil {
		return Marker{}, err
	}
	return m, nil
}

// DeleteMarker removes the record; likes, comments and photos cascade in the
// database, and the cached display image is purged so a later resolution
// cannot serve a stale value.
func (s *Service) DeleteMarker(ctx context.Context, id string) error {
	var ownerID string
	if err := s.db.QueryRow(ctx, `SELECT user_id FROM markers WHERE id=$1`, id).Scan(&ownerID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM markers WHERE id=$1`, id); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, ownerID, id)
	return nil
}

// ListByOwner returns a user's own markers newest-first (the journal view).
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Marker, error) {
	rows, err := s.db.Query(ctx, `
		SELECT m.id, m.user_id, m.lat, m.lng, m.title, m.description, m.is_saved,
		       EXISTS (SELECT 1 FROM marker_likes ml WHERE ml.marker_id=m.id AND ml.user_id=$1),
		       m.like_count, m.comment_count, m.created_at, m.updated_at
		FROM markers m WHERE m.user_id=$1
		ORDER BY m.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markers []Marker
	for rows.Next() {
		var m Marker
		if err := rows.Scan(&m.ID, &m.UserID, &m.Lat, &m.Lng, &m.Title, &m.Description, &m.IsSaved,
			&m.IsLiked, &m.LikeCount, &m.CommentCount, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}
	return markers, nil
}

// Nearby pulls candidates from a coarse bounding box and filters precisely
// with the haversine distance. Markers store raw coordinates, so the box
// keeps the scan index-friendly without a geography column.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]Marker, error) {
	latDelta := radiusKm / 111.0
	lngDelta := radiusKm / 85.0

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, lat, lng, title, description, is_saved,
		       like_count, comment_count, created_at, updated_at
		FROM markers
		WHERE lat BETWEEN $1 AND $2 AND lng BETWEEN $3 AND $4
		ORDER BY created_at DESC
	`, lat-latDelta, lat+latDelta, lng-lngDelta, lng+lngDelta)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type withDistance struct {
		m Marker
		d float64
	}
	var candidates []withDistance
	for rows.Next() {
		var m Marker
		if err := rows.Scan(&m.ID, &m.UserID, &m.Lat, &m.Lng, &m.Title, &m.Description, &m.IsSaved,
			&m.LikeCount, &m.CommentCount, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		d := geo.HaversineKm(lat, lng, m.Lat, m.Lng)
		if d <= radiusKm {
			candidates = append(candidates, withDistance{m: m, d: d})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].d < candidates[j].d
	})

	var results []Marker
	for _, c := range candidates {
		results = append(results, c.m)
	}
	return results, nil
}

func (s *Service) AddPhoto(ctx context.Context, markerID, userID, url, caption string) (Photo, error) {
	photo := Photo{
		ID:       uuid.NewString(),
		MarkerID: markerID,
		UserID:   userID,
		PhotoURL: url,
		Caption:  caption,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO marker_photos (id, marker_id, user_id, photo_url, caption)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, photo.ID, photo.MarkerID, photo.UserID, photo.PhotoURL, photo.Caption)
	if err := row.Scan(&photo.CreatedAt); err != nil {
		return Photo{}, err
	}

	// the cached image may predate the upload
	s.resolver.Invalidate(ctx, userID, markerID)
	return photo, nil
}

func (s *Service) Photos(ctx context.Context, markerID string) ([]Photo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, marker_id, user_id, photo_url, caption, created_at
		FROM marker_photos WHERE marker_id=$1
		ORDER BY created_at
	`, markerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.MarkerID, &p.UserID, &p.PhotoURL, &p.Caption, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, nil
}

// DeletePhoto removes a photo; only the uploader may delete it.
func (s *Service) DeletePhoto(ctx context.Context, markerID, photoID, viewerID string) error {
	var ownerID string
	if err := s.db.QueryRow(ctx, `SELECT user_id FROM marker_photos WHERE id=$1 AND marker_id=$2`, photoID, markerID).Scan(&ownerID); err != nil {
		return err
	}
	if ownerID != viewerID {
		return ErrNotOwner
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM marker_photos WHERE id=$1`, photoID); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, ownerID, markerID)
	return nil
}
