package voice

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/daikw/ccpodcast/internal/script"
)

// ErrEmptyText is returned when nothing speakable remains after cleaning.
// Callers skip the segment; it is not a synthesis failure.
var ErrEmptyText = errors.New("no speakable text")

var (
	bracketPattern  = regexp.MustCompile(`\[[^\]]*\]`)
	emphasisPattern = regexp.MustCompile(`\*[^*]*\*`)
)

// CleanText strips stage directions like [laughs] and *sighs* and
// collapses whitespace.
func CleanText(text string) string {
	text = bracketPattern.ReplaceAllString(text, " ")
	text = emphasisPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// CacheKey identifies a synthesized clip by role and cleaned text
func CacheKey(role script.Role, text string) string {
	h := sha256.Sum256([]byte(string(role) + "\x00" + text))
	return fmt.Sprintf("%x", h)
}
