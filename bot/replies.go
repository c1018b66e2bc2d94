package bot

import (
	"context"
	"strings"

	"github.com/NamiCreative/Lemniscate/ai/autoreply"
	"github.com/NamiCreative/Lemniscate/database"
	"github.com/NamiCreative/Lemniscate/metrics"
	"github.com/NamiCreative/Lemniscate/twitter"
)

type watchedAccount struct {
	id       string
	username string
	lastSeen string
	primed   bool
}

// newer reports whether post ID a is newer than b. IDs are decimal
// snowflakes, so a longer ID is always newer.
func newer(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return strings.Compare(a, b) > 0
}

func newestID(posts []twitter.Post) string {
	var id string
	for _, p := range posts {
		if id == "" || newer(p.ID, id) {
			id = p.ID
		}
	}
	return id
}

func (a *App) account(ctx context.Context, username string) (*watchedAccount, error) {
	if a.watched == nil {
		a.watched = make(map[string]*watchedAccount)
	}
	if w, ok := a.watched[username]; ok {
		return w, nil
	}
	user, err := a.Platform.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	w := &watchedAccount{id: user.ID, username: user.Username}
	if w.username == "" {
		w.username = username
	}
	a.watched[username] = w
	return w, nil
}

// replyPass polls the watchlist and replies to new posts. The first poll of
// an account only records its newest post. Failures are logged and skipped.
// It returns the number of replies published.
func (a *App) replyPass(ctx context.Context) int {
	cfg := a.Config.Bot.Replies
	logger := a.logger().WithContext(ctx)

	sent := 0
	for _, username := range cfg.Accounts {
		if sent >= cfg.MaxPerCycle || ctx.Err() != nil {
			break
		}
		w, err := a.account(ctx, username)
		if err != nil {
			logger.Warn("failed to resolve watched account", "username", username, "error", err.Error())
			continue
		}

		posts, err := a.Platform.RecentPosts(ctx, w.id, w.lastSeen, cfg.FetchMax)
		if err != nil {
			logger.Warn("failed to fetch posts", "username", username, "error", err.Error())
			continue
		}
		if newest := newestID(posts); newest != "" {
			w.lastSeen = newest
		}
		if !w.primed {
			w.primed = true
			logger.Debug("watching account", "username", username, "last_seen", w.lastSeen)
			continue
		}

		for _, p := range posts {
			if sent >= cfg.MaxPerCycle {
				break
			}
			if a.self != nil && p.AuthorID == a.self.ID {
				continue
			}
			if a.reply(ctx, w, p) {
				sent++
			}
		}
	}

	if sent > 0 {
		a.Generator.NoteEngagement()
	}
	return sent
}

func (a *App) reply(ctx context.Context, w *watchedAccount, p twitter.Post) bool {
	logger := a.logger().WithContext(ctx).WithFields(map[string]interface{}{
		"post_id":  p.ID,
		"username": w.username,
	})

	text, err := a.Replier.Generate(ctx, autoreply.Post{ID: p.ID, Username: w.username, Text: p.Text})
	if err != nil {
		logger.Warn("failed to generate reply", "error", err.Error())
		return false
	}
	res, err := a.Publisher.PublishReply(ctx, text, p.ID)
	if err != nil {
		logger.Warn("failed to publish reply",
			"text", text,
			"status", twitter.StatusCode(err),
			"error", err.Error())
		return false
	}

	metrics.RepliesPublishedCount.Add(1)
	logger.Info("reply published", "id", res.ID)
	a.record(ctx, database.Post{
		PlatformID: res.ID,
		Text:       text,
		Mood:       string(a.Generator.Mood()),
		InReplyTo:  p.ID,
		CreatedAt:  res.PostedAt,
	})
	return true
}
