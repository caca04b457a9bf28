package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"backend-rotaapp/internal/db"
	"backend-rotaapp/internal/stream"

	"github.com/google/uuid"
)

var (
	ErrEmptyComment = errors.New("comment text required")
	ErrNotAuthor    = errors.New("comment does not belong to the user")
)

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(querier db.Querier, hub *stream.Hub) *Service {
	return &Service{db: querier, hub: hub}
}

// ToggleLike flips the viewer's like on a marker. The like record and the
// denormalized counter change in a single statement: the counter moves by
// the number of rows actually inserted or deleted, so a toggle issued from
// a stale liked-state cannot double-count and the count never goes negative.
func (s *Service) ToggleLike(ctx context.Context, markerID, viewerID, viewerName string, liked bool) (ToggleResult, error) {
	result := ToggleResult{MarkerID: markerID}

	var err error
	if liked {
		err = s.db.QueryRow(ctx, `
			WITH removed AS (
				DELETE FROM marker_likes
				WHERE marker_id=$1 AND user_id=$2
				RETURNING 1
			)
			UPDATE markers
			SET like_count = GREATEST(like_count - (SELECT COUNT(*) FROM removed), 0)
			WHERE id=$1
			RETURNING like_count
		`, markerID, viewerID).Scan(&result.LikeCount)
		result.Liked = false
	} else {
		err = s.db.QueryRow(ctx, `
			WITH added AS (
				INSERT INTO marker_likes (marker_id, user_id, user_name)
				VALUES ($1,$2,$3)
				ON CONFLICT (marker_id, user_id) DO NOTHING
				RETURNING 1
			)
			UPDATE markers
			SET like_count = like_count + (SELECT COUNT(*) FROM added)
			WHERE id=$1
			RETURNING like_count
		`, markerID, viewerID, viewerName).Scan(&result.LikeCount)
		result.Liked = true
	}
	if err != nil {
		return ToggleResult{}, err
	}

	s.broadcast(markerID, "like", result)
	return result, nil
}

// AddComment appends a comment and bumps the counter in the same statement.
// Empty or whitespace-only text is rejected before any write.
func (s *Service) AddComment(ctx context.Context, markerID, authorID, authorName, body string) (Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Comment{}, ErrEmptyComment
	}

	comment := Comment{
		ID:         uuid.NewString(),
		MarkerID:   markerID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
	}
	err := s.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO marker_comments (id, marker_id, author_id, author_name, body)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING created_at
		)
		UPDATE markers
		SET comment_count = comment_count + 1
		WHERE id=$2
		RETURNING (SELECT created_at FROM inserted)
	`, comment.ID, comment.MarkerID, comment.AuthorID, comment.AuthorName, comment.Body).Scan(&comment.CreatedAt)
	if err != nil {
		return Comment{}, err
	}

	s.broadcast(markerID, "comment", comment)
	return comment, nil
}

func (s *Service) Comments(ctx context.Context, markerID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, marker_id, author_id, author_name, body, created_at
		FROM marker_comments WHERE marker_id=$1
		ORDER BY created_at DESC
	`, markerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.MarkerID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// Likes lists who liked a marker, newest first.
func (s *Service) Likes(ctx context.Context, markerID string) ([]Like, error) {
	rows, err := s.db.Query(ctx, `
		SELECT marker_id, user_id, user_name, created_at
		FROM marker_likes WHERE marker_id=$1
		ORDER BY created_at DESC
	`, markerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likes []Like
	for rows.Next() {
		var l Like
		if err := rows.Scan(&l.MarkerID, &l.UserID, &l.UserName, &l.CreatedAt); err != nil {
			return nil, err
		}
		likes = append(likes, l)
	}
	return likes, nil
}

// DeleteComment removes a comment; only its author may delete it.
func (s *Service) DeleteComment(ctx context.Context, markerID, commentID, userID string) error {
	var authorID string
	if err := s.db.QueryRow(ctx, `
		SELECT author_id FROM marker_comments WHERE id=$1 AND marker_id=$2
	`, commentID, markerID).Scan(&authorID); err != nil {
		return err
	}
	if authorID != userID {
		return ErrNotAuthor
	}

	_, err := s.db.Exec(ctx, `
		WITH removed AS (
			DELETE FROM marker_comments
			WHERE id=$1 AND marker_id=$2
			RETURNING 1
		)
		UPDATE markers
		SET comment_count = GREATEST(comment_count - (SELECT COUNT(*) FROM removed), 0)
		WHERE id=$2
	`, commentID, markerID)
	return err
}

func (s *Service) broadcast(markerID, kind string, payload any) {
	if s.hub == nil {
		return
	}
	event, _ := json.Marshal(map[string]any{"type": kind, "data": payload})
	s.hub.Broadcast(markerID, event)
}
