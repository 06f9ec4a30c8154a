// Package guard decides whether an operation may touch the live theme.
package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/joshkremer/themesync/internal/theme"
)

// LiveSlot names the live theme slot itself (the CLI's --live flag) rather
// than a theme id or name.
const LiveSlot = "live"

// Decision is the outcome of a guard check. A refusal is an expected result,
// not an error.
type Decision struct {
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason"`
	Store       string `json:"store,omitempty"`
	RequestedID string `json:"requested_id,omitempty"`
	LiveID      string `json:"live_id,omitempty"`
	LiveKnown   bool   `json:"live_known"`
}

// Error renders the decision for people. It lets a refusal be returned where
// an error is expected.
func (d Decision) Error() string {
	if d.Allowed {
		return "allowed: " + d.Reason
	}
	var b strings.Builder
	fmt.Fprintf(&b, "refusing to touch the live theme")
	if d.Store != "" {
		fmt.Fprintf(&b, " on store %s", d.Store)
	}
	fmt.Fprintf(&b, ": %s (requested %s", d.Reason, d.RequestedID)
	if d.LiveKnown {
		fmt.Fprintf(&b, ", live theme %s", d.LiveID)
	} else {
		b.WriteString(", live theme unknown")
	}
	b.WriteString("); pass --allow-live to proceed")
	return b.String()
}

// Reasons reported by Check.
const (
	ReasonConsent     = "explicit consent given"
	ReasonNotLive     = "target is not the live theme"
	ReasonLiveSlot    = "target is the live theme slot"
	ReasonLiveID      = "target id matches the live theme"
	ReasonLiveName    = "target name matches the live theme"
	ReasonLiveRole    = "target is marked live in the catalog"
	ReasonLiveUnknown = "live theme could not be determined"
	ReasonEmptyTarget = "no target theme given"
)

// LiveFinder discovers the live theme id.
type LiveFinder interface {
	FindLiveThemeID(ctx context.Context) (string, bool)
}

// Guard holds what is known about the live theme of one store.
type Guard struct {
	store     string
	liveID    string
	liveKnown bool
	catalog   []theme.Record
}

// New creates a guard from an already discovered live id.
func New(store, liveID string, known bool) *Guard {
	return &Guard{store: store, liveID: theme.NormalizeID(liveID), liveKnown: known && liveID != ""}
}

// FromCatalog creates a guard from a fetched catalog. The catalog also lets
// the guard recognise the live theme by name.
func FromCatalog(store string, catalog []theme.Record) *Guard {
	g := &Guard{store: store, catalog: catalog}
	for _, r := range catalog {
		if r.IsLive() && r.NormalizedID() != "" {
			g.liveID = r.NormalizedID()
			g.liveKnown = true
			break
		}
	}
	return g
}

// Discover creates a guard by asking finder for the live id. A failed lookup
// leaves the live id unknown.
func Discover(ctx context.Context, store string, finder LiveFinder) *Guard {
	id, ok := finder.FindLiveThemeID(ctx)
	return New(store, id, ok)
}

// LiveID returns the live theme id and whether it is known.
func (g *Guard) LiveID() (string, bool) { return g.liveID, g.liveKnown }

func (g *Guard) decision(allowed bool, reason, requested string) Decision {
	return Decision{
		Allowed:     allowed,
		Reason:      reason,
		Store:       g.store,
		RequestedID: requested,
		LiveID:      g.liveID,
		LiveKnown:   g.liveKnown,
	}
}

// Check decides whether a destructive operation on target may proceed.
// target is a theme id, a theme name or LiveSlot. Without consent the guard
// refuses whenever the live theme cannot be ruled out, including when the
// live id is unknown.
func (g *Guard) Check(target string, consent bool) Decision {
	target = strings.TrimSpace(target)
	if consent {
		return g.decision(true, ReasonConsent, target)
	}
	if target == "" {
		return g.decision(false, ReasonEmptyTarget, target)
	}
	if strings.EqualFold(target, LiveSlot) {
		return g.decision(false, ReasonLiveSlot, target)
	}
	for _, r := range g.catalog {
		if r.IsLive() && strings.EqualFold(r.DisplayName(), target) {
			return g.decision(false, ReasonLiveName, target)
		}
	}
	if !g.liveKnown {
		return g.decision(false, ReasonLiveUnknown, target)
	}
	if digits, ok := theme.IsNumericToken(target); ok && digits == g.liveID {
		return g.decision(false, ReasonLiveID, target)
	}
	return g.decision(true, ReasonNotLive, target)
}

// CheckRecord decides whether a destructive operation on a resolved record may
// proceed. A role taken from the catalog is trusted even when the live id is
// unknown; a record without a role is refused in that case.
func (g *Guard) CheckRecord(r theme.Record, consent bool) Decision {
	requested := string(r.ID)
	if consent {
		return g.decision(true, ReasonConsent, requested)
	}
	if r.IsLive() {
		return g.decision(false, ReasonLiveRole, requested)
	}
	if g.liveKnown {
		if r.NormalizedID() == g.liveID {
			return g.decision(false, ReasonLiveID, requested)
		}
		return g.decision(true, ReasonNotLive, requested)
	}
	if r.Role != "" {
		return g.decision(true, ReasonNotLive, requested)
	}
	return g.decision(false, ReasonLiveUnknown, requested)
}
