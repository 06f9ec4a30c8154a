package download

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/joshkremer/themesync/internal/theme"
)

func TestSafeDirName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dawn", "Dawn"},
		{"Copy of   Dawn\t(July)", "Copy of Dawn (July)"},
		{"summer/sale\\v2", "summer-sale-v2"},
		{"  ..--Backup--.. ", "Backup"},
		{"Café ✨ launch!", "Café launch"},
		{"été", "été"},
		{"***", "untitled"},
		{"", "untitled"},
		{"theme_v1.2", "theme_v1.2"},
	}
	for _, tc := range tests {
		if got := SafeDirName(tc.in); got != tc.want {
			t.Errorf("SafeDirName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSafeDirNameCapsLength(t *testing.T) {
	got := SafeDirName(strings.Repeat("ü", 100))
	if n := utf8.RuneCountInString(got); n != 80 {
		t.Errorf("expected 80 runes, got %d", n)
	}
	got = SafeDirName(strings.Repeat("a", 79) + " -b")
	if strings.HasSuffix(got, " ") || strings.HasSuffix(got, "-") {
		t.Errorf("truncated name should be trimmed, got %q", got)
	}
}

func TestDirName(t *testing.T) {
	r := theme.Record{ID: "#123", Name: "Dawn"}
	if got := DirName(r, NamingName); got != "Dawn" {
		t.Errorf("name: got %q", got)
	}
	if got := DirName(r, NamingNameID); got != "Dawn (123)" {
		t.Errorf("name-id: got %q", got)
	}
	if got := DirName(r, NamingID); got != "123" {
		t.Errorf("id: got %q", got)
	}
	if got := DirName(theme.Record{ID: "abc"}, NamingName); got != "untitled" {
		t.Errorf("nameless: got %q", got)
	}
}

func TestNamerUnique(t *testing.T) {
	n := newNamer()
	var got []string
	for _, name := range []string{"Dawn", "dawn", "Dawn", "Dawn-2", "Other"} {
		got = append(got, n.unique(name))
	}
	want := []string{"Dawn", "dawn-2", "Dawn-3", "Dawn-2-2", "Other"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("unique #%d = %q, want %q (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestParseNaming(t *testing.T) {
	for in, want := range map[string]Naming{"": NamingName, "NAME-ID": NamingNameID, "id": NamingID} {
		got, err := ParseNaming(in)
		if err != nil || got != want {
			t.Errorf("ParseNaming(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseNaming("slug"); !errors.Is(err, theme.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
