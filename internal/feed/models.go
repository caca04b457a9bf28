package feed

import "time"

// Item is one entry in the aggregated feed of other users' markers.
type Item struct {
	MarkerID     string    `json:"marker_id"`
	OwnerID      string    `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	OwnerAvatar  string    `json:"owner_avatar"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	IsLiked      bool      `json:"is_liked"`
	ImageURL     string    `json:"image_url,omitempty"`
	HasImage     bool      `json:"has_image"`
	DistanceKm   float64   `json:"distance_km,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Snapshot is the last committed aggregation result for a viewer.
type Snapshot struct {
	Generation  uint64    `json:"generation"`
	Items       []Item    `json:"items"`
	RefreshedAt time.Time `json:"refreshed_at"`
}
