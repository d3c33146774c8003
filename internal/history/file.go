package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const indexFile = "index.json"

// FileStore keeps an index.json plus per-episode script and content files
// in a directory. The index is ordered newest first.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Record appends ep to the index, assigning an id and timestamp if unset
func (s *FileStore) Record(ctx context.Context, ep *Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ep.ID == "" {
		ep.ID = uuid.NewString()
	}
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now().UTC()
	}

	if ep.Script != "" {
		if err := s.writeText(ep.ID+"_script.txt", ep.Script); err != nil {
			return err
		}
	}
	if ep.Content != "" {
		if err := s.writeText(ep.ID+"_content.txt", ep.Content); err != nil {
			return err
		}
	}

	episodes, err := s.readIndex()
	if err != nil {
		return err
	}

	entry := *ep
	entry.Script = ""
	entry.Content = ""
	episodes = append([]Episode{entry}, episodes...)

	if err := s.writeIndex(episodes); err != nil {
		return err
	}
	log.Debug().Str("id", ep.ID).Str("dir", s.dir).Msg("Recorded episode")
	return nil
}

// List returns up to limit episodes, newest first. limit <= 0 means all.
func (s *FileStore) List(ctx context.Context, limit int) ([]Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	episodes, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(episodes) > limit {
		episodes = episodes[:limit]
	}
	return episodes, nil
}

// Get returns one episode with its script and content loaded
func (s *FileStore) Get(ctx context.Context, id string) (*Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	episodes, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	for _, ep := range episodes {
		if ep.ID != id {
			continue
		}
		ep.Script = s.readText(id + "_script.txt")
		ep.Content = s.readText(id + "_content.txt")
		return &ep, nil
	}
	return nil, ErrNotFound
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) readIndex() ([]Episode, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history index: %w", err)
	}

	var episodes []Episode
	if err := json.Unmarshal(data, &episodes); err != nil {
		return nil, fmt.Errorf("failed to parse history index: %w", err)
	}
	return episodes, nil
}

func (s *FileStore) writeIndex(episodes []Episode) error {
	data, err := json.MarshalIndent(episodes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history index: %w", err)
	}

	tmp := filepath.Join(s.dir, indexFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history index: %w", err)
	}
	return os.Rename(tmp, filepath.Join(s.dir, indexFile))
}

func (s *FileStore) writeText(name, text string) error {
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) readText(name string) string {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return ""
	}
	return string(data)
}
