package watch

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/joshkremer/themesync/internal/sanitize"
)

const dirtyTemplate = `{"sections":{"main":{"blocks":{"a":{"type":"shopify://apps/reviews/blocks/x"},"b":{"type":"text"}},"block_order":["a","b"]}}}`

func newTemplateSanitizer(t *testing.T) (*TemplateSanitizer, afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	dir := filepath.FromSlash("/theme/templates")
	if err := afero.WriteFile(fs, filepath.Join(dir, "index.json"), []byte(dirtyTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := NewTemplateSanitizer(sanitize.New(fs, nil), fs, dir, sanitize.DefaultOptions(), nil)
	return ts, fs, dir
}

func TestHandleChangesIgnoresOwnWrites(t *testing.T) {
	ts, fs, dir := newTemplateSanitizer(t)
	path := filepath.Join(dir, "index.json")

	sum, err := ts.HandleChanges([]string{path})
	if err != nil {
		t.Fatalf("HandleChanges: %v", err)
	}
	if sum == nil || sum.Changed != 1 {
		t.Fatalf("expected a pass that changed index.json, got %+v", sum)
	}

	// The write above produces its own event; it must not trigger a pass.
	sum, err = ts.HandleChanges([]string{path})
	if err != nil || sum != nil {
		t.Errorf("own write should be ignored, got %+v, %v", sum, err)
	}

	// An edit from elsewhere re-sanitizes.
	if err := afero.WriteFile(fs, path, []byte(dirtyTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	sum, err = ts.HandleChanges([]string{path})
	if err != nil || sum == nil || sum.RemovedBlocks != 1 {
		t.Errorf("external edit should be sanitized, got %+v, %v", sum, err)
	}
}

func TestHandleChangesDryRunDoesNotRemember(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/t"
	afero.WriteFile(fs, "/t/index.json", []byte(dirtyTemplate), 0o644)
	opts := sanitize.DefaultOptions()
	opts.DryRun = true
	ts := NewTemplateSanitizer(sanitize.New(fs, nil), fs, dir, opts, nil)

	for i := 0; i < 2; i++ {
		sum, err := ts.HandleChanges([]string{"/t/index.json"})
		if err != nil || sum == nil || sum.Changed != 1 {
			t.Fatalf("pass %d: got %+v, %v", i, sum, err)
		}
	}
}

func TestIsTemplate(t *testing.T) {
	ts, _, dir := newTemplateSanitizer(t)
	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(dir, "product.json"), true},
		{filepath.Join(dir, "product.liquid"), false},
		{filepath.Join(dir, "customers", "login.json"), false},
		{filepath.FromSlash("/theme/config/settings_data.json"), false},
	}
	for _, tc := range tests {
		if got := ts.IsTemplate(tc.path); got != tc.want {
			t.Errorf("IsTemplate(%s) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
