package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/joshkremer/themesync/internal/config"
	"github.com/joshkremer/themesync/internal/guard"
	"github.com/joshkremer/themesync/internal/logging"
	"github.com/joshkremer/themesync/internal/manifest"
	"github.com/joshkremer/themesync/internal/output"
	"github.com/joshkremer/themesync/internal/sanitize"
	"github.com/joshkremer/themesync/internal/shopify"
	"github.com/joshkremer/themesync/internal/workspace"
)

// Seams replaced by tests.
var (
	appFS     afero.Fs = afero.NewOsFs()
	getwd              = os.Getwd
	newRunner          = func(cfg *config.Config, logger *log.Logger) shopify.Runner {
		return shopify.NewExecRunner(cfg.CLI.Binary, logger).WithTimeout(cfg.CLI.Timeout)
	}
)

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	fs     afero.Fs
	out    *output.Formatter
	cwd    string

	ws  *workspace.Workspace
	cli *shopify.CLI
}

// newApp loads configuration and builds the logger and output formatter.
func newApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Root().PersistentFlags()
	configPath, _ := flags.GetString("config")
	if !flags.Changed("config") {
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			configPath = ""
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, _ := flags.GetString("store")
	level, _ := flags.GetString("log-level")
	cfg.WithOverrides(map[string]any{"store": store, "logLevel": level})

	cwd, err := getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	jsonMode, _ := flags.GetBool("json")

	return &app{
		cfg:    cfg,
		logger: logger,
		fs:     appFS,
		out:    output.New(cmd.OutOrStdout(), jsonMode),
		cwd:    cwd,
	}, nil
}

// newWorkspaceApp is newApp plus a located workspace and a Shopify CLI bound
// to the configured store. The store falls back to shopify.theme.toml in the
// project root.
func newWorkspaceApp(cmd *cobra.Command) (*app, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	a.ws, err = workspace.NewLocator(a.fs, a.cfg.Workspace.ThemeDir).Locate(a.cwd)
	if err != nil {
		return nil, err
	}
	if err := a.cfg.ApplyShopifyEnvironment(filepath.Join(a.ws.ProjectRoot, config.ShopifyTOMLFile)); err != nil {
		return nil, err
	}
	a.cli = shopify.NewCLI(newRunner(a.cfg, a.logger), a.cfg.Store, a.ws.ThemeDir, a.logger)
	if !a.out.JSON() {
		a.cli.WithEcho(cmd.ErrOrStderr())
	}
	a.logger.Debug("workspace located", "theme_dir", a.ws.ThemeDir, "project_root", a.ws.ProjectRoot, "store", a.cfg.Store)
	return a, nil
}

func (a *app) sanitizer() *sanitize.Sanitizer { return sanitize.New(a.fs, a.logger) }

func (a *app) manifests() *manifest.Store { return manifest.NewStore(a.fs) }

// liveGuard builds a guard from the catalog. A failed lookup leaves the live
// theme unknown, which makes the guard refuse without consent.
func (a *app) liveGuard(cmd *cobra.Command) *guard.Guard {
	records, err := a.cli.ListThemes(cmd.Context())
	if err != nil {
		a.logger.Warn("could not list themes; live theme unknown", "store", a.cfg.Store, "err", err)
		return guard.New(a.cfg.Store, "", false)
	}
	return guard.FromCatalog(a.cfg.Store, records)
}

// resolvePath makes p absolute against the working directory.
func (a *app) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(a.cwd, p)
}
