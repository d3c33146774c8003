package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/daikw/ccpodcast/internal/config"
	"github.com/daikw/ccpodcast/internal/history"
	"github.com/daikw/ccpodcast/internal/podcast"
	"github.com/daikw/ccpodcast/internal/script"
	"github.com/daikw/ccpodcast/internal/scriptgen"
)

func handleMCP(ctx context.Context, c *cli.Command) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, cfg, pipelineOptions{cache: true, history: true})
	if err != nil {
		return err
	}
	defer p.Close()

	s := newMCPServer(p)
	log.Info().Msg("Serving MCP over stdio")
	return server.ServeStdio(s)
}

func newMCPServer(p *pipeline) *server.MCPServer {
	s := server.NewMCPServer("ccpodcast", version, server.WithToolCapabilities(false))
	tools := &mcpTools{p: p}

	s.AddTool(mcp.NewTool("generate_podcast",
		mcp.WithDescription("Voice a dialogue script and mix it into a podcast episode. Lines start with 'Host 1:', 'Host 2:' or 'Guest:'."),
		mcp.WithString("script", mcp.Required(), mcp.Description("The script as text, or a JSON script or package")),
		mcp.WithString("moods", mcp.Description(`JSON list of mood segments: [{"start_line_index": 0, "sentiment": "LOFI"}]`)),
		mcp.WithString("title", mcp.Description("Episode title for history")),
		mcp.WithString("intro", mcp.Description("Path of an intro audio file")),
		mcp.WithNumber("ad_position", mcp.Description("Insert an ad at this fraction of the episode (0-1); omit for no ad")),
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("mp3", "wav")),
	), tools.generate)

	s.AddTool(mcp.NewTool("list_episodes",
		mcp.WithDescription("List recently generated episodes"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of episodes (default 20)")),
	), tools.list)

	s.AddTool(mcp.NewTool("get_episode",
		mcp.WithDescription("Get one episode with its script and show notes"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Episode id")),
	), tools.get)

	return s
}

type mcpTools struct {
	p *pipeline
}

func (t *mcpTools) generate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("script")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pkg, err := scriptgen.ReadPackage([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hints := pkg.Hints()
	if moods := request.GetString("moods", ""); moods != "" {
		var decoded []script.Hint
		if err := json.Unmarshal([]byte(moods), &decoded); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid moods: %v", err)), nil
		}
		hints = script.HintsFrom(decoded)
	}

	req := podcast.Request{
		Script:       pkg.Script,
		Hints:        hints,
		IntroPath:    request.GetString("intro", ""),
		Format:       request.GetString("format", ""),
		Title:        request.GetString("title", pkg.EpisodeTitle("")),
		ShowNotes:    pkg.ShowNotes,
		Chapters:     pkg.ChapterTitles(),
		SocialAssets: pkg.Social(),
	}
	if pos := request.GetFloat("ad_position", -1); pos >= 0 {
		req.Ad = &podcast.AdRequest{PositionFraction: pos}
	}

	result, err := t.p.generator("", "", 0, nil).Generate(ctx, req)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("podcast generation failed", err), nil
	}
	return jsonResult(map[string]any{
		"path":        result.Path,
		"duration_ms": result.DurationMs,
		"segments":    result.Segments,
		"skipped":     result.Skipped,
		"ad_index":    result.AdIndex,
		"providers":   result.Providers,
		"episode_id":  result.Episode.ID,
	})
}

func (t *mcpTools) list(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := t.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	episodes, err := store.List(ctx, request.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to list episodes", err), nil
	}
	if episodes == nil {
		episodes = []history.Episode{}
	}
	return jsonResult(episodes)
}

func (t *mcpTools) get(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	store, err := t.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ep, err := store.Get(ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no episode with id %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to get episode", err), nil
	}
	return jsonResult(ep)
}

func (t *mcpTools) store() (history.Store, error) {
	if t.p.history == nil {
		return nil, fmt.Errorf("history is not available (check %s)", describeHistory(t.p.cfg))
	}
	return t.p.history, nil
}

func describeHistory(cfg *config.Config) string {
	if cfg.History.DatabaseURL != "" {
		return "history.databaseUrl"
	}
	return "history.dir"
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
