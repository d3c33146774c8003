package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var prefixes = []struct {
	prefix string
	role   Role
}{
	{"Host 1:", Host1},
	{"Host 2:", Host2},
	{"Guest:", Guest},
}

// Parse turns a raw script into ordered segments.
//
// Accepted shapes are a newline-delimited string, a list of lines, a list of
// records (the "text" or "line" field is used), or a mapping of lines. Lines
// without a recognized speaker prefix are dropped. Index is the position in
// the filtered output. Empty input yields an empty slice.
func Parse(raw any) []Segment {
	return parseLines(flatten(raw))
}

// ParseJSON decodes a JSON script of any accepted shape. Object values are
// taken in document order.
func ParseJSON(data []byte) ([]Segment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Segment{}, nil
	}

	if trimmed[0] != '{' {
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, fmt.Errorf("failed to decode script: %w", err)
		}
		return Parse(v), nil
	}

	lines, err := orderedObjectLines(trimmed)
	if err != nil {
		return nil, err
	}
	return parseLines(lines), nil
}

// Format renders segments back into the prefixed text form accepted by Parse
func Format(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}

// Text flattens a raw script into plain newline-delimited text
func Text(raw any) string {
	return strings.Join(flatten(raw), "\n")
}

func parseLines(lines []string) []Segment {
	segments := make([]Segment, 0, len(lines))
	dropped := 0
	for _, line := range lines {
		role, text, ok := parseLine(line)
		if !ok {
			if strings.TrimSpace(line) != "" {
				dropped++
			}
			continue
		}
		segments = append(segments, Segment{
			Index: len(segments),
			Role:  role,
			Text:  text,
		})
	}

	log.Debug().
		Int("segments", len(segments)).
		Int("dropped", dropped).
		Msg("Parsed script")

	return segments
}

func parseLine(line string) (Role, string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p.prefix) {
			return p.role, strings.TrimSpace(trimmed[len(p.prefix):]), true
		}
	}
	return "", "", false
}

func hasPrefix(line string) bool {
	_, _, ok := parseLine(line)
	return ok
}

func flatten(raw any) []string {
	var items []string

	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		items = []string{v}
	case []byte:
		items = []string{string(v)}
	case []string:
		items = v
	case []Segment:
		items = []string{Format(v)}
	case []any:
		for _, item := range v {
			items = append(items, lineOf(item))
		}
	case []map[string]any:
		for _, item := range v {
			items = append(items, recordLine(item))
		}
	case []map[string]string:
		for _, item := range v {
			items = append(items, lineOf(item))
		}
	case map[string]string:
		for _, k := range sortedKeys(v) {
			items = append(items, v[k])
		}
	case map[string]any:
		for _, k := range sortedKeys(v) {
			items = append(items, lineOf(v[k]))
		}
	default:
		items = []string{fmt.Sprint(v)}
	}

	// Items may themselves span several lines.
	var lines []string
	for _, item := range items {
		lines = append(lines, strings.Split(item, "\n")...)
	}
	return lines
}

func lineOf(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		return recordLine(v)
	case map[string]string:
		record := make(map[string]any, len(v))
		for k, s := range v {
			record[k] = s
		}
		return recordLine(record)
	case []any:
		return strings.Join(flatten(v), "\n")
	default:
		return fmt.Sprint(v)
	}
}

func recordLine(record map[string]any) string {
	var text string
	if v, ok := record["text"]; ok && v != nil {
		text = fmt.Sprint(v)
	} else if v, ok := record["line"]; ok && v != nil {
		text = fmt.Sprint(v)
	} else {
		return fmt.Sprint(record)
	}

	if speaker, ok := record["speaker"].(string); ok && speaker != "" && !hasPrefix(text) {
		return strings.TrimSpace(speaker) + ": " + strings.TrimSpace(text)
	}
	return text
}

// sortedKeys orders mapping keys numerically when they are all integers
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

func orderedObjectLines(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to decode script: %w", err)
	}

	var items []string
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("failed to decode script key: %w", err)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode script value: %w", err)
		}
		items = append(items, lineOf(value))
	}

	var lines []string
	for _, item := range items {
		lines = append(lines, strings.Split(item, "\n")...)
	}
	return lines, nil
}
