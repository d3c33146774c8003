package persona

import (
	"fmt"
	"strings"
)

// Definition is a host style the script generator writes the dialogue in
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FilePath    string `json:"file_path,omitempty"`
	Tone        string `json:"tone"`
	Style       string `json:"style"`
	Focus       string `json:"focus"`
}

// Prompt renders the definition as instructions for the script writer
func (d *Definition) Prompt() string {
	var b strings.Builder
	if d.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", d.Tone)
	}
	if d.Style != "" {
		fmt.Fprintf(&b, "Style: %s\n", d.Style)
	}
	if d.Focus != "" {
		fmt.Fprintf(&b, "Focus: %s\n", d.Focus)
	}
	return strings.TrimSpace(b.String())
}

// Guest describes an invited speaker, usually extracted from a profile page
type Guest struct {
	Name           string `json:"name"`
	SpeakingStyle  string `json:"speaking_style"`
	Expertise      string `json:"expertise"`
	Background     string `json:"background"`
	LikelyOpinions string `json:"likely_opinions"`
}

// DisplayName falls back to a generic title when the name is unknown
func (g *Guest) DisplayName() string {
	if g == nil || strings.TrimSpace(g.Name) == "" {
		return "Expert Guest"
	}
	return g.Name
}

// Depth controls how long the generated episode runs
type Depth string

const (
	Summary  Depth = "summary"
	DeepDive Depth = "deep_dive"
)

// ParseDepth defaults unknown values to DeepDive
func ParseDepth(s string) Depth {
	switch Depth(strings.ToLower(strings.TrimSpace(s))) {
	case Summary:
		return Summary
	default:
		return DeepDive
	}
}

// Instructions returns the length guidance for the depth
func (d Depth) Instructions() string {
	if d == Summary {
		return "Length: Short and punchy (max 5-7 exchanges). Focus ONLY on the headline and key takeaway. Finish in 2 minutes."
	}
	return "Length: Detailed and comprehensive (15-20 exchanges). Explore nuances, background context, and implications. Take your time."
}
