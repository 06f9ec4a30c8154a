package guard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/joshkremer/themesync/internal/theme"
)

type staticFinder struct {
	id string
	ok bool
}

func (f staticFinder) FindLiveThemeID(context.Context) (string, bool) { return f.id, f.ok }

func TestCheck(t *testing.T) {
	known := New("joshk-staging", "#139789369442", true)
	unknown := New("joshk-staging", "", false)

	tests := []struct {
		name    string
		g       *Guard
		target  string
		consent bool
		allowed bool
		reason  string
	}{
		{"live id refused", known, "139789369442", false, false, ReasonLiveID},
		{"hash prefixed live id refused", known, "#139789369442", false, false, ReasonLiveID},
		{"other id allowed", known, "139789369443", false, true, ReasonNotLive},
		{"live slot refused", known, "live", false, false, ReasonLiveSlot},
		{"live id with consent", known, "139789369442", true, true, ReasonConsent},
		{"unknown live refused", unknown, "123", false, false, ReasonLiveUnknown},
		{"unknown live with consent", unknown, "123", true, true, ReasonConsent},
		{"empty target", known, "  ", false, false, ReasonEmptyTarget},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := tc.g.Check(tc.target, tc.consent)
			if d.Allowed != tc.allowed || d.Reason != tc.reason {
				t.Errorf("Check(%q, %v) = %+v; want allowed=%v reason=%q", tc.target, tc.consent, d, tc.allowed, tc.reason)
			}
			if d.Store != "joshk-staging" {
				t.Errorf("Store: got %q", d.Store)
			}
		})
	}
}

func TestCheckRecognisesLiveName(t *testing.T) {
	g := FromCatalog("s", []theme.Record{
		{ID: "1", Name: "Dawn", Role: "live"},
		{ID: "2", Name: "Draft", Role: "unpublished"},
	})
	if d := g.Check("dawn", false); d.Allowed || d.Reason != ReasonLiveName {
		t.Errorf("expected name refusal, got %+v", d)
	}
	if d := g.Check("Draft", false); !d.Allowed {
		t.Errorf("expected non-live name to pass, got %+v", d)
	}
	if id, ok := g.LiveID(); !ok || id != "1" {
		t.Errorf("LiveID = %q, %v", id, ok)
	}
}

func TestCheckRecord(t *testing.T) {
	known := New("s", "10", true)
	unknown := New("s", "", false)

	tests := []struct {
		name    string
		g       *Guard
		rec     theme.Record
		allowed bool
		reason  string
	}{
		{"role live", unknown, theme.Record{ID: "10", Role: "live"}, false, ReasonLiveRole},
		{"id matches live", known, theme.Record{ID: "#10"}, false, ReasonLiveID},
		{"different id", known, theme.Record{ID: "11"}, true, ReasonNotLive},
		{"catalog role trusted", unknown, theme.Record{ID: "11", Role: "unpublished"}, true, ReasonNotLive},
		{"fallback record refused", unknown, theme.Record{ID: "11"}, false, ReasonLiveUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := tc.g.CheckRecord(tc.rec, false)
			if d.Allowed != tc.allowed || d.Reason != tc.reason {
				t.Errorf("CheckRecord = %+v; want allowed=%v reason=%q", d, tc.allowed, tc.reason)
			}
		})
	}

	if d := unknown.CheckRecord(theme.Record{ID: "10", Role: "live"}, true); !d.Allowed {
		t.Errorf("consent must allow, got %+v", d)
	}
}

func TestDiscover(t *testing.T) {
	g := Discover(context.Background(), "s", staticFinder{id: "#42", ok: true})
	if id, ok := g.LiveID(); !ok || id != "42" {
		t.Errorf("LiveID = %q, %v", id, ok)
	}
	g = Discover(context.Background(), "s", staticFinder{})
	if _, ok := g.LiveID(); ok {
		t.Error("failed lookup must leave the live id unknown")
	}
}

func TestDecisionError(t *testing.T) {
	d := New("joshk-staging", "42", true).Check("42", false)
	msg := d.Error()
	for _, want := range []string{"joshk-staging", "requested 42", "live theme 42", "--allow-live"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not mention %q", msg, want)
		}
	}

	var err error = d
	var refusal Decision
	if !errors.As(err, &refusal) || refusal.Allowed {
		t.Errorf("refusal should be recoverable as a Decision, got %v", err)
	}

	msg = New("", "", false).Check("7", false).Error()
	if !strings.Contains(msg, "live theme unknown") {
		t.Errorf("message %q should say the live theme is unknown", msg)
	}
}
