package download

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/joshkremer/themesync/internal/theme"
)

// Naming selects how snapshot directories are named.
type Naming string

const (
	// NamingName uses the theme's display name.
	NamingName Naming = "name"
	// NamingNameID appends the theme id in parentheses, e.g. "Dawn (123)".
	NamingNameID Naming = "name-id"
	// NamingID uses the theme id alone.
	NamingID Naming = "id"
)

// ParseNaming validates a naming policy. Empty means NamingName.
func ParseNaming(s string) (Naming, error) {
	switch n := Naming(strings.ToLower(strings.TrimSpace(s))); n {
	case "":
		return NamingName, nil
	case NamingName, NamingNameID, NamingID:
		return n, nil
	}
	return "", fmt.Errorf("%w: unknown naming %q (want name, name-id or id)", theme.ErrValidation, s)
}

const (
	maxDirNameRunes = 80
	fallbackDirName = "untitled"
)

// SafeDirName turns a theme name into a single path component. Letters,
// digits, spaces and . - ( ) _ are kept; path separators become hyphens and
// everything else is dropped. Runs of whitespace collapse to one space.
func SafeDirName(name string) string {
	s := norm.NFC.String(name)
	s = strings.NewReplacer("/", "-", "\\", "-").Replace(s)

	var buf strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			buf.WriteRune(r)
		case unicode.IsSpace(r):
			buf.WriteRune(' ')
		case strings.ContainsRune(".-()_", r):
			buf.WriteRune(r)
		}
	}
	s = strings.Join(strings.Fields(buf.String()), " ")
	s = strings.Trim(s, "-. ")

	if utf8.RuneCountInString(s) > maxDirNameRunes {
		s = string([]rune(s)[:maxDirNameRunes])
		s = strings.Trim(s, "-. ")
	}
	if s == "" {
		return fallbackDirName
	}
	return s
}

// DirName returns the unsuffixed directory name for r under policy n.
func DirName(r theme.Record, n Naming) string {
	id := r.NormalizedID()
	if id == "" {
		id = r.ID.String()
	}
	switch n {
	case NamingID:
		return SafeDirName(id)
	case NamingNameID:
		base := SafeDirName(r.DisplayName())
		if id == "" {
			return base
		}
		return base + " (" + SafeDirName(id) + ")"
	}
	return SafeDirName(r.DisplayName())
}

// namer hands out unique directory names for one run.
type namer struct {
	used map[string]bool
}

func newNamer() *namer { return &namer{used: make(map[string]bool)} }

// unique returns name, or name-2, name-3 and so on if already handed out.
// Names are compared case-insensitively so case-folding filesystems agree.
func (n *namer) unique(name string) string {
	candidate := name
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}
