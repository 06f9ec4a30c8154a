package sanitize

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"
)

func templatesFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/theme/templates/product.json": string(readFixture(t, "product.json")),
		"/theme/templates/index.json":   `{"sections":{"hero":{"blocks":{"a":{"type":"shopify://apps/x/blocks/y"},"b":{"type":"text"}},"block_order":["a","b"]}}}`,
		"/theme/templates/page.json":    `{"sections":{}}`,
		"/theme/templates/broken.json":  `{"sections":`,
		"/theme/templates/notes.txt":    `not a template`,
		"/theme/templates/customers/account.json": `{"sections":{"a":{"blocks":{"x":{"type":"shopify://apps/x"}}}}}`,
	}
	for name, body := range files {
		if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestRemoveAppBlocks(t *testing.T) {
	fs := templatesFs(t)
	s := New(fs, nil)

	sum, err := s.RemoveAppBlocks("/theme/templates", DefaultOptions())
	if err != nil {
		t.Fatalf("RemoveAppBlocks: %v", err)
	}
	if sum.Scanned != 4 || sum.Changed != 2 || sum.RemovedBlocks != 3 || sum.ScrubbedBlocks != 1 {
		t.Errorf("unexpected counts: %+v", sum)
	}
	if diff := cmp.Diff([]string{"index.json", "product.json"}, sum.ChangedFiles); diff != "" {
		t.Errorf("changed files mismatch (-want +got):\n%s", diff)
	}
	if len(sum.Skipped) != 1 || sum.Skipped[0].Name != "broken.json" {
		t.Errorf("expected broken.json to be skipped, got %+v", sum.Skipped)
	}

	data, _ := afero.ReadFile(fs, "/theme/templates/index.json")
	want := `{"sections":{"hero":{"blocks":{"b":{"type":"text"}},"block_order":["b"]}}}`
	if string(data) != want {
		t.Errorf("index.json:\n got %s\nwant %s", data, want)
	}
	nested, _ := afero.ReadFile(fs, "/theme/templates/customers/account.json")
	if string(nested) != `{"sections":{"a":{"blocks":{"x":{"type":"shopify://apps/x"}}}}}` {
		t.Error("templates in subdirectories must not be touched")
	}

	again, err := s.RemoveAppBlocks("/theme/templates", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if again.Changed != 0 {
		t.Errorf("second pass should find nothing, got %+v", again)
	}
}

func TestRemoveAppBlocksDryRunMatchesRealRun(t *testing.T) {
	dryFs := templatesFs(t)
	before, _ := afero.ReadFile(dryFs, "/theme/templates/product.json")

	opts := DefaultOptions()
	opts.DryRun = true
	dry, err := New(dryFs, nil).RemoveAppBlocks("/theme/templates", opts)
	if err != nil {
		t.Fatal(err)
	}
	applied, err := New(templatesFs(t), nil).RemoveAppBlocks("/theme/templates", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(applied, dry, cmpopts.IgnoreFields(Summary{}, "DryRun")); diff != "" {
		t.Errorf("dry run should report the same edits (-applied +dry):\n%s", diff)
	}
	after, _ := afero.ReadFile(dryFs, "/theme/templates/product.json")
	if string(before) != string(after) {
		t.Error("dry run must not write")
	}
}

func TestRemoveAppBlocksMissingDir(t *testing.T) {
	if _, err := New(afero.NewMemMapFs(), nil).RemoveAppBlocks("/nope", DefaultOptions()); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestDeleteConflictFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/theme/assets/buddha-megamenu.js", []byte("x"), 0o644)
	afero.WriteFile(fs, "/theme/assets/theme.scss", []byte("x"), 0o644)
	s := New(fs, nil)
	names := []string{"buddha-megamenu.js", "ico-select.svg", "theme.scss"}

	dry, err := s.DeleteConflictFiles("/theme/assets", names, true)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := afero.Exists(fs, "/theme/assets/theme.scss"); !ok {
		t.Error("dry run must not delete")
	}

	res, err := s.DeleteConflictFiles("/theme/assets", names, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(dry.Removed, res.Removed); diff != "" {
		t.Errorf("dry run should predict removals (-dry +real):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"buddha-megamenu.js", "theme.scss"}, res.Removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ico-select.svg"}, res.Missing); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
	if ok, _ := afero.Exists(fs, "/theme/assets/theme.scss"); ok {
		t.Error("theme.scss should be deleted")
	}
}

func TestDeleteConflictFilesRejectsPaths(t *testing.T) {
	s := New(afero.NewMemMapFs(), nil)
	_, err := s.DeleteConflictFiles("/theme/assets", []string{"../layout/theme.liquid"}, false)
	if err == nil {
		t.Error("expected an error for a path outside the directory")
	}
	var target interface{ Unwrap() []error }
	if !errors.As(err, &target) {
		t.Errorf("expected a joined error, got %T", err)
	}
}
