// Package social holds the interactions between users: comments on user recipes, reviews of
// catalog recipes, follows and direct messages. References are plain ids.
package social

import (
	"errors"
	"strings"
	"time"
)

// MaxContentLength bounds comment, review and message bodies.
const MaxContentLength = 5000

var (
	ErrEmptyContent     = errors.New("content must not be empty")
	ErrContentTooLong   = errors.New("content too long")
	ErrSelfFollow       = errors.New("users cannot follow themselves")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
	ErrSelfMessage      = errors.New("users cannot message themselves")
)

// Comment is left on a user recipe.
type Comment struct {
	ID           int64     `json:"id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       *int64    `json:"user_id"`
	UserRecipeID *int64    `json:"user_recipes_id"`
}

// Review is left on a catalog recipe.
type Review struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UserID    *int64    `json:"user_id"`
	RecipeID  *int64    `json:"recipes_id"`
}

// Message is sent from one user to another.
type Message struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	SenderUserID   *int64    `json:"sender_user_id"`
	ReceiverUserID *int64    `json:"receiver_user_id"`
}

// Follow records that FollowerID follows FolloweeID.
type Follow struct {
	FollowerID int64     `json:"follower_user_id"`
	FolloweeID int64     `json:"followee_user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CleanContent trims a body and checks its length.
func CleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return "", ErrContentTooLong
	}
	return content, nil
}
