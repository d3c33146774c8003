package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id          UUID PRIMARY KEY,
	url         TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	script      TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	show_notes  TEXT NOT NULL DEFAULT '',
	chapters    TEXT[] NOT NULL DEFAULT '{}',
	social      JSONB NOT NULL DEFAULT '{}',
	audio_path  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	segments    INTEGER NOT NULL DEFAULT 0,
	providers   TEXT[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE episodes ADD COLUMN IF NOT EXISTS social JSONB NOT NULL DEFAULT '{}';
CREATE INDEX IF NOT EXISTS episodes_created_at_idx ON episodes (created_at DESC);
`

const episodeColumns = `id, url, title, script, content, show_notes, chapters, social, audio_path, duration_ms, segments, providers, created_at`

// PostgresStore keeps episodes in an "episodes" table
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and pings the database
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the episodes table if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create episodes table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, ep *Episode) error {
	if ep.ID == "" {
		ep.ID = uuid.NewString()
	}
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now().UTC()
	}

	social, err := json.Marshal(ep.SocialAssets)
	if err != nil {
		return fmt.Errorf("encode social assets: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO episodes (`+episodeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		ep.ID, ep.URL, ep.Title, ep.Script, ep.Content, ep.ShowNotes, nonNil(ep.Chapters), social,
		ep.AudioPath, ep.DurationMs, ep.Segments, nonNil(ep.Providers), ep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	log.Debug().Str("id", ep.ID).Msg("Recorded episode")
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Episode, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+episodeColumns+` FROM episodes ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		ep.Script = ""
		ep.Content = ""
		episodes = append(episodes, *ep)
	}
	return episodes, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Episode, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = $1`, id)
	ep, err := scanEpisode(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ep, err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanEpisode(row pgx.Row) (*Episode, error) {
	var (
		ep     Episode
		id     uuid.UUID
		social []byte
	)
	err := row.Scan(&id, &ep.URL, &ep.Title, &ep.Script, &ep.Content, &ep.ShowNotes, &ep.Chapters, &social,
		&ep.AudioPath, &ep.DurationMs, &ep.Segments, &ep.Providers, &ep.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan episode: %w", err)
	}
	if len(social) > 0 {
		if err := json.Unmarshal(social, &ep.SocialAssets); err != nil {
			return nil, fmt.Errorf("decode social assets: %w", err)
		}
	}
	ep.ID = id.String()
	return &ep, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
