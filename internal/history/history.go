// Package history records generated episodes.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/daikw/ccpodcast/internal/config"
)

// ErrNotFound is returned when an episode id is unknown
var ErrNotFound = errors.New("episode not found")

// SocialAssets are promotional posts written alongside the script
type SocialAssets struct {
	LinkedIn string   `json:"linkedin,omitempty"`
	Twitter  []string `json:"twitter,omitempty"`
}

func (s SocialAssets) IsZero() bool {
	return s.LinkedIn == "" && len(s.Twitter) == 0
}

// Episode is one generated podcast
type Episode struct {
	ID           string       `json:"id"`
	URL          string       `json:"url,omitempty"`
	Title        string       `json:"title,omitempty"`
	Script       string       `json:"script,omitempty"`
	Content      string       `json:"content,omitempty"`
	ShowNotes    string       `json:"showNotes,omitempty"`
	Chapters     []string     `json:"chapters,omitempty"`
	SocialAssets SocialAssets `json:"socialAssets,omitzero"`
	AudioPath    string       `json:"audioPath"`
	DurationMs   int          `json:"durationMs"`
	Segments     int          `json:"segments"`
	Providers    []string     `json:"providers,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Sink receives finished episodes
type Sink interface {
	Record(ctx context.Context, ep *Episode) error
}

// Store is a Sink that can also be browsed
type Store interface {
	Sink
	List(ctx context.Context, limit int) ([]Episode, error)
	Get(ctx context.Context, id string) (*Episode, error)
	Close() error
}

// Open returns the PostgreSQL store when a database URL is configured,
// otherwise the file store under cfg.Dir.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	if cfg.DatabaseURL != "" {
		store, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "history"
	}
	return NewFileStore(dir)
}
