package script

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role identifies which speaker voices a segment
type Role string

const (
	Host1 Role = "host1"
	Host2 Role = "host2"
	Guest Role = "guest"
)

// Roles lists every known role in display order
var Roles = []Role{Host1, Host2, Guest}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case Host1, Host2, Guest:
		return true
	}
	return false
}

// Label returns the script prefix for the role, without the colon
func (r Role) Label() string {
	switch r {
	case Host1:
		return "Host 1"
	case Host2:
		return "Host 2"
	case Guest:
		return "Guest"
	}
	return cases.Title(language.English).String(string(r))
}

// ParseRole accepts either a role key ("host1") or a script label ("Host 1")
func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	r := Role(normalized)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Segment is one spoken line of the script
type Segment struct {
	Index int    `json:"index"`
	Role  Role   `json:"role"`
	Text  string `json:"text"`
}

func (s Segment) String() string {
	return fmt.Sprintf("%s: %s", s.Role.Label(), s.Text)
}
