package marker

import "time"

// Marker is a geo-tagged journal entry. IsLiked is derived per viewer from
// the like records; IsSaved is the stored flag set once the owner has filled
// in title/description.
type Marker struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	IsSaved      bool      `json:"is_saved"`
	IsLiked      bool      `json:"is_liked"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Photo struct {
	ID        string    `json:"id"`
	MarkerID  string    `json:"marker_id"`
	UserID    string    `json:"user_id"`
	PhotoURL  string    `json:"photo_url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}
