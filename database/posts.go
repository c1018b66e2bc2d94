package database

import (
	"context"
	"fmt"

	"github.com/NamiCreative/Lemniscate/journal"
)

// PostWriter records published posts and reads recent ones back.
type PostWriter interface {
	InsertPost(ctx context.Context, post Post) error
	RecentPostTexts(ctx context.Context, limit int) ([]string, error)
}

// InsertPost stores a published post.
func (p *Postgres) InsertPost(ctx context.Context, post Post) error {
	query := "INSERT INTO posts (id, platform_id, text, prompt, prompt_category, mood, in_reply_to, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
	_, err := p.connections.ExecContext(ctx, query,
		post.ID, post.PlatformID, post.Text, post.Prompt, post.PromptCategory, post.Mood, post.InReplyTo, post.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting post: %w", err)
	}
	return nil
}

// RecentPostTexts returns the text of the newest original posts, oldest
// first, so they can seed the duplicate memory after a restart.
func (p *Postgres) RecentPostTexts(ctx context.Context, limit int) ([]string, error) {
	var texts []string
	query := "SELECT text FROM (SELECT text, created_at FROM posts WHERE in_reply_to = '' ORDER BY created_at DESC LIMIT $1) recent ORDER BY created_at ASC"
	if err := p.connections.SelectContext(ctx, &texts, query, limit); err != nil {
		return nil, fmt.Errorf("error getting recent posts: %w", err)
	}
	return texts, nil
}

// Record stores a publish failure. It makes Postgres usable as a journal.Writer.
func (p *Postgres) Record(ctx context.Context, e journal.Entry) error {
	query := "INSERT INTO failed_posts (text, error, status, attempts, created_at) VALUES ($1, $2, $3, $4, $5)"
	_, err := p.connections.ExecContext(ctx, query, e.Text, e.Error, e.Status, e.Attempts, e.Time)
	if err != nil {
		return fmt.Errorf("error inserting failed post: %w", err)
	}
	return nil
}
