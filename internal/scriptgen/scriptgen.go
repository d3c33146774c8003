// Package scriptgen turns article text into a podcast package (dialogue,
// mood segments, chapters and show notes) using an OpenAI-compatible chat
// completion API.
package scriptgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/daikw/ccpodcast/internal/config"
	"github.com/daikw/ccpodcast/internal/history"
	"github.com/daikw/ccpodcast/internal/persona"
	"github.com/daikw/ccpodcast/internal/script"
)

const (
	DefaultBaseURL = "https://api.cerebras.ai/v1"
	DefaultModel   = "llama3.1-8b"

	// MaxArticleChars bounds the article text placed in the prompt
	MaxArticleChars = 4000
	// MaxProfileChars bounds the guest profile text
	MaxProfileChars = 3000

	maxTokens     = 8192
	maxTitleChars = 120
)

var (
	ErrNoAPIKey      = errors.New("llm api key is not configured")
	ErrEmptyResponse = errors.New("llm returned no content")
)

// Chapter is a titled section with its cumulative start estimate
type Chapter struct {
	Title           string `json:"title"`
	EstimateSeconds int    `json:"estimate_seconds"`
}

// SocialAssets are promotional texts for the episode. Twitter may be a
// string or a list of bullets.
type SocialAssets struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  any    `json:"twitter,omitempty"`
}

// Package is the structured output of one generation
type Package struct {
	// Script is in any shape script.Parse accepts
	Script       any           `json:"script"`
	Title        string        `json:"title,omitempty"`
	Chapters     []Chapter     `json:"chapters,omitempty"`
	ShowNotes    string        `json:"show_notes,omitempty"`
	SocialAssets SocialAssets  `json:"social_assets,omitempty"`
	Segments     []script.Hint `json:"segments,omitempty"`
}

// Hints converts the mood segments, dropping invalid entries
func (p *Package) Hints() script.Hints {
	return script.HintsFrom(p.Segments)
}

// ChapterTitles returns the chapter titles in order
func (p *Package) ChapterTitles() []string {
	titles := make([]string, 0, len(p.Chapters))
	for _, c := range p.Chapters {
		titles = append(titles, c.Title)
	}
	return titles
}

// Social returns the social assets with the twitter field as a list of posts
func (p *Package) Social() history.SocialAssets {
	out := history.SocialAssets{LinkedIn: strings.TrimSpace(p.SocialAssets.LinkedIn)}
	switch tw := p.SocialAssets.Twitter.(type) {
	case string:
		if tw = strings.TrimSpace(tw); tw != "" {
			out.Twitter = []string{tw}
		}
	case []any:
		for _, item := range tw {
			if post := strings.TrimSpace(flattenField(item)); post != "" {
				out.Twitter = append(out.Twitter, post)
			}
		}
	}
	return out
}

// EpisodeTitle returns the package title, else the first line of article
// cut to maxTitleChars.
func (p *Package) EpisodeTitle(article string) string {
	if title := strings.TrimSpace(p.Title); title != "" {
		return title
	}
	for _, line := range strings.Split(article, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return truncate(line, maxTitleChars)
		}
	}
	return ""
}

// ReadPackage decodes a saved package or a bare script. JSON objects with a
// "script" key are packages; any other JSON shape or plain text is the
// script itself.
func ReadPackage(data []byte) (*Package, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("script is empty")
	}

	switch trimmed[0] {
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, fmt.Errorf("failed to decode script: %w", err)
		}
		if _, ok := probe["script"]; ok {
			var pkg Package
			if err := json.Unmarshal(trimmed, &pkg); err != nil {
				return nil, fmt.Errorf("failed to decode script package: %w", err)
			}
			return &pkg, nil
		}
		fallthrough
	case '[':
		segments, err := script.ParseJSON(trimmed)
		if err != nil {
			return nil, err
		}
		return &Package{Script: segments}, nil
	default:
		return &Package{Script: string(data)}, nil
	}
}

// Options shape the generated dialogue
type Options struct {
	Persona *persona.Definition
	Depth   persona.Depth
	// Improv asks for interruptions, laughter and asides
	Improv bool
	Guest  *persona.Guest
}

// Generator calls the chat completion API
type Generator struct {
	client *openai.Client
	model  string
}

// New creates a generator from the LLM configuration
func New(cfg config.LLMConfig) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Generate writes a podcast package for the article
func (g *Generator) Generate(ctx context.Context, article string, opts Options) (*Package, error) {
	if strings.TrimSpace(article) == "" {
		return nil, fmt.Errorf("article text is empty")
	}

	log.Debug().
		Str("model", g.model).
		Str("depth", string(opts.Depth)).
		Bool("improv", opts.Improv).
		Bool("guest", opts.Guest != nil).
		Msg("Generating script")

	content, err := g.complete(ctx,
		"You are an expert podcast strategist that outputs ONLY raw JSON.",
		BuildPrompt(article, opts),
		maxTokens,
	)
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	var pkg Package
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return nil, fmt.Errorf("failed to decode script package: %w", err)
	}
	if pkg.Script == nil {
		return nil, fmt.Errorf("script package has no script")
	}

	log.Info().
		Int("chapters", len(pkg.Chapters)).
		Int("mood_segments", len(pkg.Segments)).
		Msg("Script generated")
	return &pkg, nil
}

// ExtractGuest derives a guest persona from profile text
func (g *Generator) ExtractGuest(ctx context.Context, profile string) (*persona.Guest, error) {
	prompt := fmt.Sprintf(`Analyze the following text from a person's profile/wiki and extract their persona traits for a podcast.

Content:
%s

Return ONLY a JSON object with:
- "name": Full Name
- "speaking_style": Description of their tone, vocabulary, and cadence.
- "expertise": Key areas mentioned in the text.
- "background": A 1-sentence bio.
- "likely_opinions": 2-3 specific views they might hold based on the text.`, truncate(profile, MaxProfileChars))

	content, err := g.complete(ctx, "You are an expert profile analyst that outputs raw JSON.", prompt, 0)
	if err != nil {
		return nil, fmt.Errorf("guest extraction failed: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode guest persona: %w", err)
	}
	return &persona.Guest{
		Name:           flattenField(raw["name"]),
		SpeakingStyle:  flattenField(raw["speaking_style"]),
		Expertise:      flattenField(raw["expertise"]),
		Background:     flattenField(raw["background"]),
		LikelyOpinions: flattenField(raw["likely_opinions"]),
	}, nil
}

func (g *Generator) complete(ctx context.Context, system, prompt string, limit int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if limit > 0 {
		req.MaxTokens = limit
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := StripFences(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// BuildPrompt assembles the user prompt for a generation
func BuildPrompt(article string, opts Options) string {
	style := opts.Persona
	if style == nil {
		style = &persona.Definition{}
	}
	depth := opts.Depth
	if depth == "" {
		depth = persona.DeepDive
	}

	var b strings.Builder
	b.WriteString("You are a professional podcast script writer and content strategist.\n")
	b.WriteString("Convert the following article into a structured podcast package.\n\n")

	if p := style.Prompt(); p != "" {
		fmt.Fprintf(&b, "PERSONA:\n%s\n\n", p)
	}

	if g := opts.Guest; g != nil {
		fmt.Fprintf(&b, "GUEST SPEAKER INVITED: %s\n", g.DisplayName())
		fmt.Fprintf(&b, "Persona Traits: %s\n", g.SpeakingStyle)
		fmt.Fprintf(&b, "Bio: %s\n", g.Background)
		fmt.Fprintf(&b, "Likely opinions: %s\n", g.LikelyOpinions)
		b.WriteString("Format: The guest should be identified as \"Guest: [text]\".\n")
		b.WriteString("Hosts should interact with the guest naturally, asking questions and reacting to their background.\n")
		b.WriteString("The podcast is now a 3-way conversation.\n\n")
	}

	fmt.Fprintf(&b, "DEPTH/LENGTH:\n%s\n\n", depth.Instructions())

	if opts.Improv {
		b.WriteString("IMPROV MODE ENABLED: Inject natural interruptions [Laughs], rhetorical questions, and human analogies.\n\n")
	}

	b.WriteString(`OUTPUT SPECIFICATION:
Return ONLY a JSON object with the following keys:
1. "script": The full dialogue in "Host 1: [text]" format.
2. "chapters": A list of {"title": "Section Title", "estimate_seconds": N} where N is the cumulative time.
3. "show_notes": A 100-word professional summary of the episode.
4. "social_assets": {"linkedin": "long-form post", "twitter": "series of 3-5 punchy bullets"}.
5. "segments": A list of {"start_line_index": N, "sentiment": "LOFI" | "TENSE" | "EXCITED" | "CORPORATE"}. N is the 0-based index of the dialogue line where this mood starts. Use "LOFI" for casual/intro, "TENSE" for serious/mystery, "EXCITED" for debates/reveal, "CORPORATE" for ads/tech specs. Ensure at least one segment starts at index 0.

Rules:
- Format: JSON absolute. No markdown code blocks, just the raw json.
- Engaging and natural dialogue.

Article:
`)
	b.WriteString(truncate(article, MaxArticleChars))
	b.WriteString("...\n")
	return b.String()
}

// StripFences removes a Markdown code fence wrapped around the payload
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		if start := strings.Index(s, "```json"); start >= 0 {
			s = s[start:]
		} else {
			return s
		}
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if end := strings.Index(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func flattenField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := flattenField(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(val)
	}
}
