package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joshkremer/themesync/internal/archive"
	"github.com/joshkremer/themesync/internal/config"
	"github.com/joshkremer/themesync/internal/guard"
	"github.com/joshkremer/themesync/internal/shopify"
	"github.com/joshkremer/themesync/internal/theme"
)

const catalogJSON = `[
  {"id": 10, "name": "Dawn", "role": "live", "updated_at": "2026-09-01T00:00:00Z"},
  {"id": 11, "name": "Dawn draft", "role": "unpublished", "updated_at": "2026-10-01T00:00:00Z"},
  {"id": 12, "name": "Older", "role": "unpublished", "updated_at": "2026-01-01T00:00:00Z"}
]`

// fakeRunner answers "theme list" with a fixed catalog and records every
// other invocation.
type fakeRunner struct {
	calls   [][]string
	listErr bool
}

func (f *fakeRunner) Run(_ context.Context, inv shopify.Invocation) (*shopify.Result, error) {
	f.calls = append(f.calls, inv.Args)
	if slices.Contains(inv.Args, "list") {
		if f.listErr {
			return &shopify.Result{Args: inv.Args, ExitCode: 1, Stderr: "not logged in"}, nil
		}
		return &shopify.Result{Args: inv.Args, Stdout: catalogJSON}, nil
	}
	return &shopify.Result{Args: inv.Args}, nil
}

func (f *fakeRunner) subcommands() []string {
	var out []string
	for _, c := range f.calls {
		if len(c) > 1 {
			out = append(out, c[1])
		}
	}
	return out
}

// setup points the command seams at an in-memory project in /proj.
func setup(t *testing.T) (*fakeRunner, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	runner := &fakeRunner{}

	oldFS, oldWd, oldRunner := appFS, getwd, newRunner
	appFS = fs
	getwd = func() (string, error) { return "/proj", nil }
	newRunner = func(*config.Config, *log.Logger) shopify.Runner { return runner }
	t.Cleanup(func() { appFS, getwd, newRunner = oldFS, oldWd, oldRunner })
	t.Setenv("THEMESYNC_STORE", "joshk-staging")
	return runner, fs
}

// resetFlags restores every flag to its default so commands can run more
// than once in one test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "themesync" {
		t.Errorf("expected root command Use to be 'themesync', got %q", rootCmd.Use)
	}

	expectedSubcommands := []string{
		"list", "pull", "push", "dev", "download", "remove-app-blocks", "clean-assets",
		"csv2json", "rebuild", "archive", "config", "mcp", "version",
	}
	nameSet := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		nameSet[cmd.Name()] = true
	}
	for _, expected := range expectedSubcommands {
		if !nameSet[expected] {
			t.Errorf("expected root command to have subcommand %q", expected)
		}
	}
}

func TestDownloadFlags(t *testing.T) {
	expectedFlags := []string{
		"count", "names", "all", "dest", "include-live", "allow-live",
		"stop-on-error", "no-skip", "naming", "pull-unlisted-ids",
	}
	for _, name := range expectedFlags {
		if downloadCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected download command to have flag %q", name)
		}
	}
	flag := downloadCmd.Flags().ShorthandLookup("n")
	if flag == nil || flag.Name != "count" {
		t.Error("expected -n to map to --count")
	}
}

func TestVersionOutput(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "themesync") {
		t.Errorf("expected version output to contain 'themesync', got %q", out)
	}
}

func TestListJSON(t *testing.T) {
	setup(t)
	out, err := execute(t, "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var records []theme.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("parsing output %q: %v", out, err)
	}
	if len(records) != 3 || records[0].ID != "11" {
		t.Errorf("expected recency order, got %+v", records)
	}
}

func TestPushRefusesLive(t *testing.T) {
	runner, _ := setup(t)
	_, err := execute(t, "push", "--theme", "10")

	var d guard.Decision
	if !errors.As(err, &d) || d.Allowed || d.Reason != guard.ReasonLiveID {
		t.Fatalf("expected a live refusal, got %v", err)
	}
	if slices.Contains(runner.subcommands(), "push") {
		t.Error("push must not run after a refusal")
	}
}

func TestPushRefusesWhenLiveUnknown(t *testing.T) {
	runner, _ := setup(t)
	runner.listErr = true
	_, err := execute(t, "push", "--theme", "11")

	var d guard.Decision
	if !errors.As(err, &d) || d.Reason != guard.ReasonLiveUnknown {
		t.Fatalf("expected refusal for unknown live theme, got %v", err)
	}
}

func TestPushAllowed(t *testing.T) {
	runner, _ := setup(t)
	if _, err := execute(t, "push", "--theme", "11"); err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(runner.subcommands(), "push") {
		t.Errorf("expected a push, got %v", runner.calls)
	}

	runner.calls = nil
	if _, err := execute(t, "push", "--live", "--allow-live"); err != nil {
		t.Fatal(err)
	}
	last := runner.calls[len(runner.calls)-1]
	if !slices.Contains(last, "--live") {
		t.Errorf("expected --live in %v", last)
	}
}

func TestPushDefaultsToUnpublished(t *testing.T) {
	runner, _ := setup(t)
	if _, err := execute(t, "push"); err != nil {
		t.Fatal(err)
	}
	if len(runner.calls) != 1 || !slices.Contains(runner.calls[0], "--unpublished") {
		t.Errorf("expected a single unpublished push without a catalog lookup, got %v", runner.calls)
	}
}

func TestDownloadCommand(t *testing.T) {
	runner, fs := setup(t)
	out, err := execute(t, "download", "--count", "2", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var sum struct {
		Downloaded []struct {
			Dir string `json:"dir"`
		} `json:"downloaded"`
	}
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if len(sum.Downloaded) != 2 {
		t.Fatalf("expected 2 downloads, got %s", out)
	}
	if ok, _ := afero.Exists(fs, "/proj/theme_snapshots/Dawn draft/.themesync-manifest.json"); !ok {
		t.Error("expected a manifest for the newest theme")
	}
	if n := strings.Count(strings.Join(runner.subcommands(), " "), "pull"); n != 2 {
		t.Errorf("expected 2 pulls, got %d", n)
	}
}

func TestDownloadValidation(t *testing.T) {
	setup(t)
	tests := [][]string{
		{"download", "--count", "1", "--names", "Older"},
		{"download", "--all", "--count", "1"},
		{"download", "--count", "0"},
		{"download", "--naming", "slug"},
	}
	for _, args := range tests {
		if _, err := execute(t, args...); !errors.Is(err, theme.ErrValidation) {
			t.Errorf("%v: expected a validation error, got %v", args, err)
		}
	}
}

func TestRemoveAppBlocksDryRun(t *testing.T) {
	_, fs := setup(t)
	tmpl := `{"sections":{"main":{"type":"main-product","blocks":{"a":{"type":"shopify://apps/x/blocks/y"}},"block_order":["a"]}},"order":["main"]}`
	if err := afero.WriteFile(fs, "/proj/theme_files/templates/product.json", []byte(tmpl), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "remove-app-blocks", "--dry-run")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Would change 1 of 1") {
		t.Errorf("unexpected output %q", out)
	}
	data, _ := afero.ReadFile(fs, "/proj/theme_files/templates/product.json")
	if string(data) != tmpl {
		t.Error("dry run must not write")
	}
}

func TestCleanAssets(t *testing.T) {
	_, fs := setup(t)
	if err := afero.WriteFile(fs, "/proj/theme_files/assets/theme.scss", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "clean-assets"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := afero.Exists(fs, "/proj/theme_files/assets/theme.scss"); ok {
		t.Error("expected the conflicting asset to be deleted")
	}
}

func TestCSV2JSON(t *testing.T) {
	_, fs := setup(t)
	if err := afero.WriteFile(fs, "/proj/in.csv", []byte("sku,title\nA1,Shirt\nB2,Hat\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "csv2json", "in.csv", "out.json", "--key", "sku"); err != nil {
		t.Fatal(err)
	}
	data, err := afero.ReadFile(fs, "/proj/out.json")
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["B2"]["title"] != "Hat" {
		t.Errorf("unexpected output %s", data)
	}
}

type fakeS3 struct{ uploaded []string }

func (f *fakeS3) PutObject(_ context.Context, key string, _ io.Reader, _, _ string) error {
	f.uploaded = append(f.uploaded, key)
	return nil
}

func (f *fakeS3) DeleteObject(context.Context, string) error { return nil }

func (f *fakeS3) ListObjects(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}

func TestArchiveCommand(t *testing.T) {
	_, fs := setup(t)
	if err := afero.WriteFile(fs, "/proj/theme_snapshots/Older/layout/theme.liquid", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	client := &fakeS3{}
	old := newS3Client
	newS3Client = func(context.Context, string, string) (archive.S3Client, error) { return client, nil }
	t.Cleanup(func() { newS3Client = old })

	if _, err := execute(t, "archive", "theme_snapshots/Older"); err == nil {
		t.Error("expected an error without a bucket")
	}
	if _, err := execute(t, "archive", "theme_snapshots/Older", "--bucket", "snaps"); err != nil {
		t.Fatal(err)
	}
	want := "themesync/joshk-staging/Older/layout/theme.liquid"
	if len(client.uploaded) != 1 || client.uploaded[0] != want {
		t.Errorf("uploaded %v; want [%s]", client.uploaded, want)
	}
}
