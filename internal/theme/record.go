// Package theme models the themes reported by the Shopify theme CLI and the
// policies used to pick which of them a command operates on.
package theme

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// RoleLive is the role the CLI reports for the theme serving storefront traffic.
const RoleLive = "live"

// ID is a theme identifier as reported by the CLI. It may arrive as a JSON
// number, a "#123" style string, or an arbitrary string from fallback paths.
type ID string

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes purely numeric identifiers as JSON numbers and anything
// else as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if s != "" && isDigits(s) {
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return []byte(s), nil
		}
	}
	return json.Marshal(s)
}

// String returns the raw identifier.
func (id ID) String() string { return string(id) }

// Normalized returns the digit-only form of the identifier.
func (id ID) Normalized() string { return NormalizeID(string(id)) }

// Record is a single theme entry from the catalog.
type Record struct {
	ID        ID     `json:"id"`
	Name      string `json:"name,omitempty"`
	Title     string `json:"title,omitempty"`
	Role      string `json:"role,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// UnmarshalJSON reads both snake_case and camelCase timestamp spellings.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		UpdatedAtCamel string `json:"updatedAt"`
		CreatedAtCamel string `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	if r.UpdatedAt == "" {
		r.UpdatedAt = aux.UpdatedAtCamel
	}
	if r.CreatedAt == "" {
		r.CreatedAt = aux.CreatedAtCamel
	}
	return nil
}

// DisplayName returns the name, falling back to the title.
func (r Record) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Title
}

// NormalizedID returns the digit-only identifier of the record.
func (r Record) NormalizedID() string { return r.ID.Normalized() }

// IsLive reports whether the catalog marked this record as the live theme.
func (r Record) IsLive() bool {
	return strings.EqualFold(strings.TrimSpace(r.Role), RoleLive)
}

// SameTheme reports whether two records refer to the same remote theme.
func SameTheme(a, b Record) bool {
	na := a.NormalizedID()
	return na != "" && na == b.NormalizedID()
}

// NormalizeID strips a leading "#" and every non-digit character.
func NormalizeID(raw string) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsNumericToken reports whether tok, after trimming a leading "#", is made of
// digits only. It returns the digits.
func IsNumericToken(tok string) (string, bool) {
	tok = strings.TrimPrefix(strings.TrimSpace(tok), "#")
	if tok == "" || !isDigits(tok) {
		return "", false
	}
	return tok, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// timestampLayouts are tried in order. Layouts without a zone are parsed in
// the local zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing "Z" is UTC and a
// value without an offset is taken as local time.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RecencyKey returns the timestamp used to order themes: updated_at when
// present, otherwise created_at. Records with neither, or with an unparsable
// value, get the zero time so they sort last.
func RecencyKey(r Record) time.Time {
	raw := r.UpdatedAt
	if strings.TrimSpace(raw) == "" {
		raw = r.CreatedAt
	}
	t, ok := ParseTimestamp(raw)
	if !ok {
		return time.Time{}
	}
	return t
}
