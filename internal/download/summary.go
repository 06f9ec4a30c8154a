package download

import (
	"github.com/google/uuid"

	"github.com/joshkremer/themesync/internal/theme"
)

// Skip reasons.
const (
	ReasonLiveTheme         = "live_theme"
	ReasonLiveUnknown       = "live_unknown"
	ReasonAlreadyDownloaded = "already_downloaded"
)

// Outcome is the result for one theme.
type Outcome struct {
	Theme   theme.Record `json:"theme"`
	Dir     string       `json:"dir"`
	Reason  string       `json:"reason,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Summary accumulates the outcome of one download invocation. A requested
// theme lands in exactly one of NotFound, Downloaded, Skipped or Errors
// (IDOnly tokens move into the latter three once the fallback phase runs).
type Summary struct {
	RunID         string         `json:"run_id"`
	Store         string         `json:"store,omitempty"`
	Destination   string         `json:"destination"`
	Requested     *int           `json:"requested"`
	Selected      []theme.Record `json:"selected"`
	Downloaded    []Outcome      `json:"downloaded"`
	Skipped       []Outcome      `json:"skipped"`
	Errors        []Outcome      `json:"errors"`
	NotFound      []string       `json:"not_found,omitempty"`
	IDOnly        []string       `json:"id_only,omitempty"`
	LiveRequested bool           `json:"live_requested"`
	SkippedLive   bool           `json:"skipped_live"`
	// Stopped is set when a phase ended early on an error or cancellation.
	Stopped bool `json:"stopped"`

	names *namer
}

// NewSummary starts an empty summary with a fresh run id.
func NewSummary(store string) *Summary {
	return &Summary{
		RunID: uuid.NewString(),
		Store: store,
		names: newNamer(),
	}
}

// OK reports whether no theme failed.
func (s *Summary) OK() bool { return len(s.Errors) == 0 }

func (s *Summary) namer() *namer {
	if s.names == nil {
		s.names = newNamer()
	}
	return s.names
}
