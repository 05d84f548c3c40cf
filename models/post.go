package models

import (
	"time"
)

// Post is a community feed post as served by the external feed service.
// The feed store is consumed over REST, not owned by this module, so these
// carry JSON tags matching the feed API.
type Post struct {
	ID         int64     `json:"id"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Likes      int       `json:"likes"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Comment is a comment on a feed post
type Comment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"postId"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
