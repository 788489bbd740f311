package models

import (
	"time"

	"github.com/google/uuid"
)

// Like is one user's like on a shared workout.
type Like struct {
	UserID    int       `json:"user_id"`
	UserName  string    `json:"user_name"`
	Timestamp time.Time `json:"timestamp"`
}

// Comment is a comment on a shared workout, optionally with replies.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Replies   []Comment `json:"replies,omitempty"`
}

// FeedWorkout is a finished workout as it appears in the social feed.
// LikeCount and CommentCount are derived from the lists and recomputed on
// every local mutation.
type FeedWorkout struct {
	ID           uuid.UUID `json:"id"`
	UserID       int       `json:"user_id"`
	UserName     string    `json:"user_name"`
	Name         string    `json:"name"`
	Emoji        string    `json:"emoji"`
	Date         time.Time `json:"date"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Likes        []Like    `json:"likes"`
	Comments     []Comment `json:"comments"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
}

// RecountDerived recomputes LikeCount and CommentCount from the lists.
// Replies count toward CommentCount.
func (w *FeedWorkout) RecountDerived() {
	w.LikeCount = len(w.Likes)
	n := 0
	for _, c := range w.Comments {
		n += 1 + len(c.Replies)
	}
	w.CommentCount = n
}

// LikedBy reports whether the given user has liked this workout.
func (w *FeedWorkout) LikedBy(userID int) bool {
	for _, l := range w.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}
