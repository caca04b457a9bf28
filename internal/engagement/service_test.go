package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"backend-rotaapp/internal/stream"

	"github.com/pashagolub/pgxmock/v3"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestToggleLikeAddsWhenNotLiked(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	mock.ExpectQuery(`WITH added`).
		WithArgs("m1", "user-1", "Deniz").
		WillReturnRows(pgxmock.NewRows([]string{"like_count"}).AddRow(3))

	result, err := svc.ToggleLike(context.Background(), "m1", "user-1", "Deniz", false)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !result.Liked || result.LikeCount != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestToggleLikeRemovesWhenLiked(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	mock.ExpectQuery(`WITH removed`).
		WithArgs("m1", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"like_count"}).AddRow(2))

	result, err := svc.ToggleLike(context.Background(), "m1", "user-1", "Deniz", true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if result.Liked || result.LikeCount != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

// A like issued from a stale not-liked flag hits the conflict branch: zero
// rows insert, so the counter stays where it was.
func TestToggleLikeStaleFlagDoesNotDoubleCount(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	mock.ExpectQuery(`WITH added`).
		WithArgs("m1", "user-1", "Deniz").
		WillReturnRows(pgxmock.NewRows([]string{"like_count"}).AddRow(1))

	result, err := svc.ToggleLike(context.Background(), "m1", "user-1", "Deniz", false)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if result.LikeCount != 1 {
		t.Fatalf("expected count unchanged at 1, got %d", result.LikeCount)
	}
}

func TestToggleLikeAlternatingParity(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	counts := []int{1, 0, 1, 0}
	for i, count := range counts {
		if i%2 == 0 {
			mock.ExpectQuery(`WITH added`).
				WithArgs("m1", "user-1", "Deniz").
				WillReturnRows(pgxmock.NewRows([]string{"like_count"}).AddRow(count))
		} else {
			mock.ExpectQuery(`WITH removed`).
				WithArgs("m1", "user-1").
				WillReturnRows(pgxmock.NewRows([]string{"like_count"}).AddRow(count))
		}
	}

	var last ToggleResult
	var err error
	for i := range counts {
		last, err = svc.ToggleLike(context.Background(), "m1", "user-1", "Deniz", i%2 == 1)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}
	if last.Liked || last.LikeCount != 0 {
		t.Fatalf("even number of toggles should end unliked at 0, got %+v", last)
	}
}

func TestToggleLikePropagatesError(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	mock.ExpectQuery(`WITH added`).
		WithArgs("m1", "user-1", "Deniz").
		WillReturnError(errors.New("down"))

	if _, err := svc.ToggleLike(context.Background(), "m1", "user-1", "Deniz", false); err == nil {
		t.Fatalf("expected error")
	}
}

func TestToggleLikeBroadcastsEvent(t *testing.T) {
	mock := newMockPool(t)
	hub := stream.NewHub(nil)
	svc := NewService(mock, hub)

	client := hub.Register("m1")
	defer hub.Unregister(client)

	mock.ExpectQuery(`WITH added`).
		WithArgs("m1", "user-1", "Deniz").
		WillReturnRows(pgxmock.NewRows([]string{"like_count"}).AddRow(1))

	if _, err := svc.ToggleLike(context.Background(), "m1", "user-1", "Deniz", false); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	select {
	case msg := <-client.Send:
		var event struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &event); err != nil || event.Type != "like" {
			t.Fatalf("unexpected event %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a like event on the stream")
	}
}

func TestAddCommentRejectsEmptyText(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	for _, body := range []string{"", "   ", "\t\n"} {
		if _, err := svc.AddComment(context.Background(), "m1", "user-1", "Deniz", body); !errors.Is(err, ErrEmptyComment) {
			t.Fatalf("body %q: expected ErrEmptyComment, got %v", body, err)
		}
	}

	// no write may reach the database
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database traffic: %v", err)
	}
}

func TestAddCommentTrimsAndPersists(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	createdAt := time.Now()
	mock.ExpectQuery(`WITH inserted`).
		WithArgs(pgxmock.AnyArg(), "m1", "user-1", "Deniz", "harika yer").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	comment, err := svc.AddComment(context.Background(), "m1", "user-1", "Deniz", "  harika yer  ")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.Body != "harika yer" {
		t.Fatalf("expected trimmed body, got %q", comment.Body)
	}
	if comment.ID == "" || !comment.CreatedAt.Equal(createdAt) {
		t.Fatalf("comment not filled in: %+v", comment)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCommentsNewestFirst(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, marker_id, author_id, author_name, body, created_at`).
		WithArgs("m1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "marker_id", "author_id", "author_name", "body", "created_at"}).
			AddRow("c2", "m1", "user-2", "Ece", "ikinci", now).
			AddRow("c1", "m1", "user-1", "Deniz", "ilk", now.Add(-time.Minute)))

	comments, err := svc.Comments(context.Background(), "m1")
	if err != nil {
		t.Fatalf("comments: %v", err)
	}
	if len(comments) != 2 || comments[0].ID != "c2" {
		t.Fatalf("unexpected comments: %+v", comments)
	}
}

func TestDeleteCommentDecrementsCounter(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	mock.ExpectQuery(`SELECT author_id FROM marker_comments`).
		WithArgs("c1", "m1").
		WillReturnRows(pgxmock.NewRows([]string{"author_id"}).AddRow("user-1"))
	mock.ExpectExec(`WITH removed`).
		WithArgs("c1", "m1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := svc.DeleteComment(context.Background(), "m1", "c1", "user-1"); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteCommentRejectsNonAuthor(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	mock.ExpectQuery(`SELECT author_id FROM marker_comments`).
		WithArgs("c1", "m1").
		WillReturnRows(pgxmock.NewRows([]string{"author_id"}).AddRow("user-2"))

	if err := svc.DeleteComment(context.Background(), "m1", "c1", "intruder"); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}

	// the delete statement must never run
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database traffic: %v", err)
	}
}

func TestLikesNewestFirst(t *testing.T) {
	mock := newMockPool(t)
	svc := NewService(mock, nil)

	now := time.Now()
	mock.ExpectQuery(`SELECT marker_id, user_id, user_name, created_at`).
		WithArgs("m1").
		WillReturnRows(pgxmock.NewRows([]string{"marker_id", "user_id", "user_name", "created_at"}).
			AddRow("m1", "user-2", "Ece", now).
			AddRow("m1", "user-1", "Deniz", now.Add(-time.Minute)))

	likes, err := svc.Likes(context.Background(), "m1")
	if err != nil {
		t.Fatalf("likes: %v", err)
	}
	if len(likes) != 2 || likes[0].UserName != "Ece" {
		t.Fatalf("unexpected likes: %+v", likes)
	}
}
