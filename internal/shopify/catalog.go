package shopify

import (
	"bytes"
	"encoding/json"

	"github.com/joshkremer/themesync/internal/theme"
)

// ParseThemeList decodes the output of `theme list --json`. The CLI may print
// banners or warnings before the payload, so decoding starts at the first
// '[' or '{'. When that candidate does not decode, markers that open a later
// line are tried, which skips banners such as "[warning] ...".
// The payload is either a bare array or an object with a "themes" array.
func ParseThemeList(raw []byte) ([]theme.Record, error) {
	start := bytes.IndexAny(raw, "[{")
	if start < 0 {
		return nil, &CatalogError{Message: "no JSON payload in theme list output"}
	}

	themes, firstErr := decodeThemePayload(raw[start:])
	if firstErr == nil {
		return themes, nil
	}
	for _, next := range lineStartMarkers(raw, start+1) {
		if themes, err := decodeThemePayload(raw[next:]); err == nil {
			return themes, nil
		}
	}
	return nil, firstErr
}

// lineStartMarkers returns the offsets at or after from where a line begins
// with '[' or '{'.
func lineStartMarkers(raw []byte, from int) []int {
	var out []int
	for i := from; i < len(raw); i++ {
		if (raw[i] == '[' || raw[i] == '{') && raw[i-1] == '\n' {
			out = append(out, i)
		}
	}
	return out
}

func decodeThemePayload(payload []byte) ([]theme.Record, error) {
	var msg json.RawMessage
	if err := json.NewDecoder(bytes.NewReader(payload)).Decode(&msg); err != nil {
		return nil, &CatalogError{Message: "invalid JSON in theme list output", Err: err}
	}

	switch msg[0] {
	case '[':
		var themes []theme.Record
		if err := json.Unmarshal(msg, &themes); err != nil {
			return nil, &CatalogError{Message: "unexpected theme entry", Err: err}
		}
		return themes, nil
	case '{':
		var wrapped struct {
			Themes *[]theme.Record `json:"themes"`
		}
		if err := json.Unmarshal(msg, &wrapped); err != nil {
			return nil, &CatalogError{Message: "unexpected theme entry", Err: err}
		}
		if wrapped.Themes == nil {
			return nil, &CatalogError{Message: `theme list output is an object without a "themes" list`}
		}
		return *wrapped.Themes, nil
	}
	return nil, &CatalogError{Message: "theme list output is not a list"}
}

// LiveThemeID returns the normalized id of the first theme whose role is live.
func LiveThemeID(themes []theme.Record) (string, bool) {
	for _, t := range themes {
		if t.IsLive() {
			id := t.NormalizedID()
			return id, id != ""
		}
	}
	return "", false
}
