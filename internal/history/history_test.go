package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daikw/ccpodcast/internal/config"
)

func TestFileStore_RecordAndList(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	ctx := context.Background()

	first := &Episode{URL: "https://example.com/a", AudioPath: "a.mp3", Script: "Host 1: Hi", Segments: 1}
	require.NoError(t, store.Record(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := &Episode{URL: "https://example.com/b", AudioPath: "b.mp3", Content: "article body"}
	require.NoError(t, store.Record(ctx, second))

	episodes, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, second.ID, episodes[0].ID, "newest first")
	assert.Empty(t, episodes[1].Script, "index holds metadata only")

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Host 1: Hi", got.Script)
	assert.Equal(t, "a.mp3", got.AudioPath)

	_, err = os.Stat(filepath.Join(store.Dir(), first.ID+"_script.txt"))
	assert.NoError(t, err)
}

func TestFileStore_KeepsShowMetadata(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	ep := &Episode{
		Title:     "Deep Sea Mining",
		AudioPath: "a.mp3",
		ShowNotes: "Robots on the sea floor.",
		Chapters:  []string{"Intro", "The Robots"},
		SocialAssets: SocialAssets{
			LinkedIn: "Long post",
			Twitter:  []string{"First", "Second"},
		},
	}
	require.NoError(t, store.Record(ctx, ep))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deep Sea Mining", got.Title)
	assert.Equal(t, []string{"Intro", "The Robots"}, got.Chapters)
	assert.Equal(t, ep.SocialAssets, got.SocialAssets)

	episodes, err := reopened.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, ep.SocialAssets, episodes[0].SocialAssets)
}

func TestSocialAssets_OmittedWhenEmpty(t *testing.T) {
	data, err := json.Marshal(Episode{ID: "x"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "socialAssets")

	data, err = json.Marshal(Episode{ID: "x", SocialAssets: SocialAssets{LinkedIn: "post"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"socialAssets":{"linkedin":"post"}`)
}

func TestFileStore_GetUnknown(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, indexFile), []byte("{broken"), 0o644))
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.List(context.Background(), 0)
	assert.ErrorContains(t, err, "failed to parse history index")
}

func TestOpen_FileStoreByDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "episodes")
	store, err := Open(context.Background(), config.HistoryConfig{Dir: dir})
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*FileStore)
	assert.True(t, ok)
	assert.DirExists(t, dir)
}

// TestPostgresStore runs against a real database when one is provided
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("CCPODCAST_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CCPODCAST_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := Open(ctx, config.HistoryConfig{DatabaseURL: url})
	require.NoError(t, err)
	defer store.Close()

	ep := &Episode{
		URL:       "https://example.com/pg",
		Title:     "Postgres episode",
		Script:    "Host 1: Hello",
		AudioPath: "history/podcast.mp3",
		Providers: []string{"openai"},
		Segments:  1,
		SocialAssets: SocialAssets{
			LinkedIn: "Long post",
			Twitter:  []string{"One", "Two"},
		},
	}
	require.NoError(t, store.Record(ctx, ep))

	got, err := store.Get(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, "Postgres episode", got.Title)
	assert.Equal(t, []string{"openai"}, got.Providers)
	assert.Equal(t, "Host 1: Hello", got.Script)
	assert.Equal(t, ep.SocialAssets, got.SocialAssets)

	episodes, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, episodes)

	_, err = store.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}
