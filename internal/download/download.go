// Package download pulls theme snapshots into per-theme directories, skipping
// themes already present and refusing the live theme without consent.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/joshkremer/themesync/internal/guard"
	"github.com/joshkremer/themesync/internal/shopify"
	"github.com/joshkremer/themesync/internal/theme"
)

// DefaultDestination is where snapshots go, relative to the project root.
const DefaultDestination = "theme_snapshots"

// Puller pulls one theme into a directory.
type Puller interface {
	Pull(ctx context.Context, opts shopify.PullOptions) error
}

// ManifestStore tracks which theme populated a directory.
type ManifestStore interface {
	IsAlreadyDownloaded(dir, themeID string) bool
	Write(dir string, r theme.Record, store string) error
}

// Options controls a download run.
type Options struct {
	// Destination is the snapshot root. Relative paths resolve against the
	// project root, never the theme workspace.
	Destination string
	// IncludeLive keeps the live theme in recency and name selections.
	IncludeLive bool
	// AllowLive is the explicit consent to pull the live theme.
	AllowLive bool
	// ContinueOnError keeps going after a failed theme.
	ContinueOnError bool
	// SkipDownloaded skips directories whose manifest names the same theme.
	SkipDownloaded bool
	Naming         Naming
	// Store is recorded in manifests.
	Store string
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Destination:     DefaultDestination,
		ContinueOnError: true,
		SkipDownloaded:  true,
		Naming:          NamingName,
	}
}

// Request describes what to download. Count and Names are mutually
// exclusive; a nil Count with no Names means every eligible theme.
type Request struct {
	Count *int
	Names []string
	// PullUnlistedIDs pulls numeric tokens missing from the catalog directly.
	PullUnlistedIDs bool
}

// Selection is a resolved request.
type Selection struct {
	Themes        []theme.Record
	Requested     *int
	NotFound      []string
	IDOnly        []string
	LiveRequested bool
}

// Select resolves req against the catalog. Invalid requests fail with
// theme.ErrValidation before anything is pulled.
func Select(catalog []theme.Record, req Request, includeLive bool, liveID string) (Selection, error) {
	if req.Count != nil && len(req.Names) > 0 {
		return Selection{}, fmt.Errorf("%w: choose either a count or a list of names", theme.ErrValidation)
	}
	if req.Names != nil {
		ns, err := theme.SelectByNames(catalog, req.Names, includeLive, liveID)
		if err != nil {
			return Selection{}, err
		}
		return Selection{
			Themes:        ns.Themes,
			NotFound:      ns.Unmatched,
			IDOnly:        ns.IDOnly,
			LiveRequested: ns.LiveRequested,
		}, nil
	}
	themes, err := theme.SelectByRecency(catalog, req.Count, includeLive, liveID)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Themes: themes, Requested: req.Count}, nil
}

// Downloader pulls snapshots one theme at a time.
type Downloader struct {
	puller      Puller
	manifests   ManifestStore
	guard       *guard.Guard
	fs          afero.Fs
	projectRoot string
	logger      *log.Logger
}

// Config wires a Downloader.
type Config struct {
	Puller      Puller
	Manifests   ManifestStore
	Guard       *guard.Guard
	FS          afero.Fs
	ProjectRoot string
	Logger      *log.Logger
}

// New creates a Downloader. A nil guard knows no live theme and so refuses
// records without a catalog role unless consent is given.
func New(cfg Config) *Downloader {
	d := &Downloader{
		puller:      cfg.Puller,
		manifests:   cfg.Manifests,
		guard:       cfg.Guard,
		fs:          cfg.FS,
		projectRoot: cfg.ProjectRoot,
		logger:      cfg.Logger,
	}
	if d.guard == nil {
		d.guard = guard.New("", "", false)
	}
	if d.fs == nil {
		d.fs = afero.NewOsFs()
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	return d
}

// Destination resolves opts.Destination against the project root.
func (d *Downloader) Destination(opts Options) string {
	dest := opts.Destination
	if dest == "" {
		dest = DefaultDestination
	}
	if filepath.IsAbs(dest) {
		return filepath.Clean(dest)
	}
	return filepath.Join(d.projectRoot, dest)
}

// Run selects themes from catalog and downloads them, followed by the id-only
// fallback phase when requested. Only validation failures are returned as
// errors; per-theme failures are in the summary.
func (d *Downloader) Run(ctx context.Context, catalog []theme.Record, req Request, opts Options) (*Summary, error) {
	liveID, _ := d.guard.LiveID()
	sel, err := Select(catalog, req, opts.IncludeLive, liveID)
	if err != nil {
		return nil, err
	}
	sum := d.Download(ctx, sel, opts)
	if req.PullUnlistedIDs && len(sel.IDOnly) > 0 && !sum.Stopped {
		d.DownloadIDs(ctx, sel.IDOnly, opts, sum)
	}
	return sum, nil
}

// Download pulls every theme in sel sequentially.
func (d *Downloader) Download(ctx context.Context, sel Selection, opts Options) *Summary {
	sum := NewSummary(opts.Store)
	sum.Destination = d.Destination(opts)
	sum.Requested = sel.Requested
	sum.Selected = sel.Themes
	sum.NotFound = sel.NotFound
	sum.IDOnly = sel.IDOnly
	sum.LiveRequested = sel.LiveRequested

	d.logger.Info("downloading themes", "run", sum.RunID, "selected", len(sel.Themes), "dest", sum.Destination)
	d.downloadAll(ctx, sel.Themes, opts, sum)
	return sum
}

// DownloadIDs pulls themes that are known only by id. The phase is additive
// and not capped by a requested count; with ContinueOnError unset it returns
// at the first error.
func (d *Downloader) DownloadIDs(ctx context.Context, ids []string, opts Options, sum *Summary) {
	if sum.Destination == "" {
		sum.Destination = d.Destination(opts)
	}
	records := make([]theme.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, theme.Record{ID: theme.ID(id)})
	}
	d.logger.Info("pulling unlisted theme ids", "run", sum.RunID, "ids", ids)
	d.downloadAll(ctx, records, opts, sum)
}

func (d *Downloader) downloadAll(ctx context.Context, records []theme.Record, opts Options, sum *Summary) {
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			sum.Errors = append(sum.Errors, Outcome{Theme: r, Message: err.Error()})
			sum.Stopped = true
			return
		}
		if err := d.downloadOne(ctx, r, opts, sum); err != nil && !opts.ContinueOnError {
			sum.Stopped = true
			d.logger.Warn("stopping after error", "run", sum.RunID, "theme", r.ID)
			return
		}
	}
}

func (d *Downloader) downloadOne(ctx context.Context, r theme.Record, opts Options, sum *Summary) error {
	dir := filepath.Join(sum.Destination, sum.namer().unique(DirName(r, opts.Naming)))
	out := Outcome{Theme: r, Dir: dir}

	if dec := d.guard.CheckRecord(r, opts.AllowLive); !dec.Allowed {
		out.Reason = ReasonLiveUnknown
		if r.IsLive() || dec.Reason == guard.ReasonLiveID {
			out.Reason = ReasonLiveTheme
			sum.SkippedLive = true
		}
		out.Message = dec.Error()
		sum.Skipped = append(sum.Skipped, out)
		d.logger.Warn("skipping theme", "theme", r.ID, "name", r.DisplayName(), "reason", dec.Reason)
		return nil
	}

	if opts.SkipDownloaded && d.manifests.IsAlreadyDownloaded(dir, r.ID.String()) {
		out.Reason = ReasonAlreadyDownloaded
		sum.Skipped = append(sum.Skipped, out)
		d.logger.Info("already downloaded", "theme", r.ID, "dir", dir)
		return nil
	}

	if err := d.pull(ctx, r, dir, opts); err != nil {
		out.Message = errorMessage(err)
		sum.Errors = append(sum.Errors, out)
		d.logger.Error("download failed", "theme", r.ID, "dir", dir, "err", err)
		return err
	}
	sum.Downloaded = append(sum.Downloaded, out)
	d.logger.Info("downloaded theme", "theme", r.ID, "name", r.DisplayName(), "dir", dir)
	return nil
}

func (d *Downloader) pull(ctx context.Context, r theme.Record, dir string, opts Options) error {
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	id := r.NormalizedID()
	if id == "" {
		id = r.ID.String()
	}
	if err := d.puller.Pull(ctx, shopify.PullOptions{Theme: id, Path: dir}); err != nil {
		return err
	}
	if err := d.manifests.Write(dir, r, opts.Store); err != nil {
		return err
	}
	return nil
}

// errorMessage prefers the CLI's own diagnostics over the wrapped error text.
func errorMessage(err error) string {
	var cmdErr *shopify.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Message != "" {
		return cmdErr.Message
	}
	return err.Error()
}
