package feed

import "errors"

var (
	ErrWorkoutNotInFeed = errors.New("workout not in cached feed")
	ErrCommentNotFound  = errors.New("parent comment not found")
)
