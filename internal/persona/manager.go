// Package persona manages the host styles and guest profiles that shape a
// generated script.
package persona

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultPersona is used when no style is requested
	DefaultPersona = "investigator"

	DirPermission  = 0755
	FilePermission = 0644
)

var builtins = map[string]Definition{
	"investigator": {
		Name:        "investigator",
		Description: "Skeptical detective digging for what the article leaves out",
		Tone:        "Serious, skeptical, and analytical.",
		Style:       `Host 1 plays "The Detective", constantly questioning sources and looking for hidden motives. Host 2 provides the facts but gets grilled.`,
		Focus:       `Uncover the "truth" behind the article. Use phrases like "But what aren't they telling us?" or "Follow the money."`,
	},
	"comedian": {
		Name:        "comedian",
		Description: "Setup and punchline double act",
		Tone:        "Witty, lighthearted, and punchy.",
		Style:       "Host 1 is the Setup, Host 2 is the Punchline (or vice versa). Use roasting, modern slang, and pop culture references.",
		Focus:       "Make the content entertaining. If the article is dry, mock how dry it is.",
	},
	"friend": {
		Name:        "friend",
		Description: "Two best friends chatting over coffee",
		Tone:        "Casual, empathetic, and slang-heavy.",
		Style:       `Two best friends chatting over coffee. Lots of "Dude," "No way," "That's crazy."`,
		Focus:       "How this affects regular people. Emotional connection and relatability.",
	},
}

// Manager resolves persona names to definitions. Files in the personas
// directory override built-ins of the same name.
type Manager struct {
	personasDir string
}

// NewManager creates a manager reading custom personas from dir. An empty
// dir uses ~/.ccpodcast/personas.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".ccpodcast", "personas")
	}
	return &Manager{personasDir: dir}, nil
}

// ListPersonas returns built-in and custom persona names, sorted
func (m *Manager) ListPersonas() ([]string, error) {
	seen := map[string]bool{}
	for name := range builtins {
		seen[name] = true
	}

	entries, err := os.ReadDir(m.personasDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read personas directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			seen[strings.TrimSuffix(entry.Name(), ".md")] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetPersonaPath returns the full path to a persona file
func (m *Manager) GetPersonaPath(name string) string {
	return filepath.Join(m.personasDir, name+".md")
}

// PersonaExists checks if a persona is built in or has a file
func (m *Manager) PersonaExists(name string) bool {
	if _, ok := builtins[name]; ok {
		return true
	}
	_, err := os.Stat(m.GetPersonaPath(name))
	return err == nil
}

// Load returns the named persona. Unknown names fall back to the default
// with a warning.
func (m *Manager) Load(name string) (*Definition, error) {
	if name == "" {
		name = DefaultPersona
	}

	path := m.GetPersonaPath(name)
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		def := Parse(string(content))
		def.Name = name
		def.FilePath = path
		log.Debug().Str("persona", name).Str("path", path).Msg("Loaded custom persona")
		return def, nil
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}

	if def, ok := builtins[name]; ok {
		return &def, nil
	}

	log.Warn().Str("persona", name).Str("fallback", DefaultPersona).Msg("Unknown persona, using default")
	def := builtins[DefaultPersona]
	return &def, nil
}

// CreatePersona writes a template for a new custom persona
func (m *Manager) CreatePersona(name string) error {
	if _, err := os.Stat(m.GetPersonaPath(name)); err == nil {
		return fmt.Errorf("persona '%s' already exists", name)
	}

	if err := os.MkdirAll(m.personasDir, DirPermission); err != nil {
		return fmt.Errorf("failed to create personas directory: %w", err)
	}

	template := fmt.Sprintf(`# Persona: %s

A short description of the show.

## Tone
Warm and curious.

## Style
Host 1 asks the questions listeners would ask. Host 2 explains with concrete examples.

## Focus
What the story means for the people listening.
`, name)

	path := m.GetPersonaPath(name)
	if err := os.WriteFile(path, []byte(template), FilePermission); err != nil {
		return fmt.Errorf("failed to create persona file: %w", err)
	}

	log.Info().Str("persona", name).Str("path", path).Msg("Created new persona")
	return nil
}

// ReadPersona returns the raw markdown of a custom persona file
func (m *Manager) ReadPersona(name string) (string, error) {
	content, err := os.ReadFile(m.GetPersonaPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("persona '%s' does not exist", name)
		}
		return "", fmt.Errorf("failed to read persona file: %w", err)
	}
	return string(content), nil
}

// Parse reads a persona markdown file. The title line gives the name, text
// before the first section is the description, and the Tone, Style and
// Focus sections fill the matching fields. Other sections are ignored.
func Parse(content string) *Definition {
	def := &Definition{}
	var (
		section string
		body    []string
	)
	commit := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		switch strings.ToLower(section) {
		case "":
			def.Description = text
		case "tone":
			def.Tone = text
		case "style":
			def.Style = text
		case "focus":
			def.Focus = text
		}
		body = body[:0]
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "# "):
			title := strings.TrimSpace(strings.TrimPrefix(line, "# "))
			if _, name, ok := strings.Cut(title, ":"); ok {
				title = strings.TrimSpace(name)
			}
			def.Name = title
		case strings.HasPrefix(line, "## "):
			commit()
			section = strings.TrimSpace(strings.TrimPrefix(line, "## "))
		default:
			body = append(body, line)
		}
	}
	commit()
	return def
}
