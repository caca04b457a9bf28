package engagement

import "time"

type Like struct {
	MarkerID  string    `json:"marker_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID         string    `json:"id"`
	MarkerID   string    `json:"marker_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToggleResult is the authoritative post-toggle state, returned so callers
// can reconcile their optimistic updates instead of guessing.
type ToggleResult struct {
	MarkerID  string `json:"marker_id"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"like_count"`
}
