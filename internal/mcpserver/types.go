// Package mcpserver implements an MCP (Model Context Protocol) server for
// themesync, exposing the store's theme catalog, snapshot downloads, template
// sanitizing and the live-theme guard as tools for MCP clients.
package mcpserver

import (
	"github.com/joshkremer/themesync/internal/download"
	"github.com/joshkremer/themesync/internal/sanitize"
	"github.com/joshkremer/themesync/internal/theme"
)

// ThemeBrief is a catalog entry with a string id.
type ThemeBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	Live      bool   `json:"live"`
}

func toThemeBrief(r theme.Record) ThemeBrief {
	return ThemeBrief{
		ID:        r.ID.String(),
		Name:      r.DisplayName(),
		Role:      r.Role,
		UpdatedAt: r.UpdatedAt,
		CreatedAt: r.CreatedAt,
		Live:      r.IsLive(),
	}
}

func toThemeBriefs(records []theme.Record) []ThemeBrief {
	out := make([]ThemeBrief, len(records))
	for i, r := range records {
		out[i] = toThemeBrief(r)
	}
	return out
}

// --- list_themes ---

// ListThemesInput is the input for the list_themes tool.
type ListThemesInput struct {
	SortByRecency bool `json:"sortByRecency,omitempty" jsonschema:"Order themes most recently updated first"`
}

// ListThemesOutput is the output for the list_themes tool.
type ListThemesOutput struct {
	Store     string       `json:"store"`
	LiveID    string       `json:"liveId,omitempty"`
	LiveKnown bool         `json:"liveKnown"`
	Themes    []ThemeBrief `json:"themes"`
}

// --- download_themes ---

// DownloadThemesInput is the input for the download_themes tool.
type DownloadThemesInput struct {
	Count           *int     `json:"count,omitempty"           jsonschema:"Download the N most recently updated themes"`
	Names           []string `json:"names,omitempty"           jsonschema:"Theme names or ids to download; mutually exclusive with count"`
	Destination     string   `json:"destination,omitempty"     jsonschema:"Snapshot directory, relative to the project root"`
	Naming          string   `json:"naming,omitempty"          jsonschema:"Directory naming: name, name-id or id"`
	IncludeLive     bool     `json:"includeLive,omitempty"     jsonschema:"Consider the live theme during selection"`
	AllowLive       bool     `json:"allowLive,omitempty"       jsonschema:"Allow pulling the live theme"`
	StopOnError     bool     `json:"stopOnError,omitempty"     jsonschema:"Stop at the first failed theme"`
	NoSkip          bool     `json:"noSkip,omitempty"          jsonschema:"Pull again even when a manifest shows the theme was downloaded"`
	PullUnlistedIDs bool     `json:"pullUnlistedIds,omitempty" jsonschema:"Pull numeric ids missing from the catalog"`
}

// DownloadOutcome is the result for one theme.
type DownloadOutcome struct {
	Theme   ThemeBrief `json:"theme"`
	Dir     string     `json:"dir"`
	Reason  string     `json:"reason,omitempty"`
	Message string     `json:"message,omitempty"`
}

// DownloadThemesOutput is the output for the download_themes tool.
type DownloadThemesOutput struct {
	RunID         string            `json:"runId"`
	Destination   string            `json:"destination"`
	Selected      []ThemeBrief      `json:"selected"`
	Downloaded    []DownloadOutcome `json:"downloaded"`
	Skipped       []DownloadOutcome `json:"skipped"`
	Errors        []DownloadOutcome `json:"errors"`
	NotFound      []string          `json:"notFound,omitempty"`
	IDOnly        []string          `json:"idOnly,omitempty"`
	LiveRequested bool              `json:"liveRequested"`
	SkippedLive   bool              `json:"skippedLive"`
	Stopped       bool              `json:"stopped"`
}

func toOutcomes(in []download.Outcome) []DownloadOutcome {
	out := make([]DownloadOutcome, len(in))
	for i, o := range in {
		out[i] = DownloadOutcome{Theme: toThemeBrief(o.Theme), Dir: o.Dir, Reason: o.Reason, Message: o.Message}
	}
	return out
}

func toDownloadOutput(s *download.Summary) DownloadThemesOutput {
	return DownloadThemesOutput{
		RunID:         s.RunID,
		Destination:   s.Destination,
		Selected:      toThemeBriefs(s.Selected),
		Downloaded:    toOutcomes(s.Downloaded),
		Skipped:       toOutcomes(s.Skipped),
		Errors:        toOutcomes(s.Errors),
		NotFound:      s.NotFound,
		IDOnly:        s.IDOnly,
		LiveRequested: s.LiveRequested,
		SkippedLive:   s.SkippedLive,
		Stopped:       s.Stopped,
	}
}

// --- remove_app_blocks ---

// RemoveAppBlocksInput is the input for the remove_app_blocks tool.
type RemoveAppBlocksInput struct {
	DryRun            bool   `json:"dryRun,omitempty"            jsonschema:"Report changes without writing files"`
	NoScrubMetafields bool   `json:"noScrubMetafields,omitempty" jsonschema:"Keep blocks that reference missing metafields"`
	Dir               string `json:"dir,omitempty"               jsonschema:"Templates directory; defaults to the workspace templates"`
}

// SkippedTemplate is a template the sanitizer could not process.
type SkippedTemplate struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RemoveAppBlocksOutput is the output for the remove_app_blocks tool.
type RemoveAppBlocksOutput struct {
	Dir            string            `json:"dir"`
	DryRun         bool              `json:"dryRun"`
	Scanned        int               `json:"scanned"`
	Changed        int               `json:"changed"`
	RemovedBlocks  int               `json:"removedBlocks"`
	ScrubbedBlocks int               `json:"scrubbedBlocks"`
	ChangedFiles   []string          `json:"changedFiles"`
	Skipped        []SkippedTemplate `json:"skipped,omitempty"`
}

func toRemoveAppBlocksOutput(s *sanitize.Summary) RemoveAppBlocksOutput {
	out := RemoveAppBlocksOutput{
		Dir:            s.Dir,
		DryRun:         s.DryRun,
		Scanned:        s.Scanned,
		Changed:        s.Changed,
		RemovedBlocks:  s.RemovedBlocks,
		ScrubbedBlocks: s.ScrubbedBlocks,
		ChangedFiles:   s.ChangedFiles,
	}
	for _, sk := range s.Skipped {
		out.Skipped = append(out.Skipped, SkippedTemplate{Name: sk.Name, Reason: sk.Reason})
	}
	return out
}

// --- check_live_guard ---

// CheckLiveGuardInput is the input for the check_live_guard tool.
type CheckLiveGuardInput struct {
	Target    string `json:"target"              jsonschema:"Theme id, theme name or 'live'"`
	AllowLive bool   `json:"allowLive,omitempty" jsonschema:"Explicit consent to touch the live theme"`
}

// CheckLiveGuardOutput is the output for the check_live_guard tool.
type CheckLiveGuardOutput struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason"`
	Store     string `json:"store,omitempty"`
	Target    string `json:"target"`
	LiveID    string `json:"liveId,omitempty"`
	LiveKnown bool   `json:"liveKnown"`
	Message   string `json:"message"`
}

// --- resources ---

// DownloadStatus is the content of the last-download resource.
type DownloadStatus struct {
	LastDownload *DownloadThemesOutput `json:"lastDownload"`
}
