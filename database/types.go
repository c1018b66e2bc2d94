package database

import (
	"time"

	"github.com/google/uuid"
)

// Post is a published post or reply.
type Post struct {
	ID             uuid.UUID `db:"id"`
	PlatformID     string    `db:"platform_id"`
	Text           string    `db:"text"`
	Prompt         string    `db:"prompt"`
	PromptCategory string    `db:"prompt_category"`
	Mood           string    `db:"mood"`
	InReplyTo      string    `db:"in_reply_to"`
	CreatedAt      time.Time `db:"created_at"`
}
