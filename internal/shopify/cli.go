package shopify

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/joshkremer/themesync/internal/theme"
)

// CLI wraps the theme subcommands of the Shopify CLI for one store.
type CLI struct {
	runner Runner
	store  string
	dir    string
	echo   io.Writer
	logger *log.Logger
}

// NewCLI creates a CLI bound to store. dir is the working directory used for
// commands that operate on local theme files.
func NewCLI(runner Runner, store, dir string, logger *log.Logger) *CLI {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CLI{runner: runner, store: store, dir: dir, logger: logger}
}

// WithEcho mirrors the output of push, pull and dev to w while they run.
func (c *CLI) WithEcho(w io.Writer) *CLI {
	c.echo = w
	return c
}

// Store returns the store the CLI is bound to.
func (c *CLI) Store() string { return c.store }

// PushOptions selects the target of a push.
type PushOptions struct {
	Theme       string
	Live        bool
	Unpublished bool
	Path        string
}

// PullOptions selects the source and destination of a pull.
type PullOptions struct {
	Theme string
	Live  bool
	Path  string
}

// DevOptions configures the local development server.
type DevOptions struct {
	Theme string
	Path  string
	Stdin io.Reader
}

func (c *CLI) withStore(args []string) []string {
	if c.store != "" {
		args = append(args, "--store", c.store)
	}
	return args
}

// PushArgs returns the argument list for a push.
func (c *CLI) PushArgs(opts PushOptions) []string {
	args := []string{"theme", "push"}
	if opts.Unpublished {
		args = append(args, "--unpublished")
	}
	if opts.Theme != "" {
		args = append(args, "--theme", opts.Theme)
	}
	if opts.Live {
		args = append(args, "--live", "--allow-live")
	}
	if opts.Path != "" {
		args = append(args, "--path", opts.Path)
	}
	return c.withStore(args)
}

// PullArgs returns the argument list for a pull.
func (c *CLI) PullArgs(opts PullOptions) []string {
	args := []string{"theme", "pull"}
	if opts.Theme != "" {
		args = append(args, "--theme", opts.Theme)
	} else if opts.Live {
		args = append(args, "--live")
	}
	if opts.Path != "" {
		args = append(args, "--path", opts.Path)
	}
	return c.withStore(args)
}

// ListArgs returns the argument list for a structured theme listing.
func (c *CLI) ListArgs() []string {
	return c.withStore([]string{"theme", "list", "--json"})
}

// DevArgs returns the argument list for the development server.
func (c *CLI) DevArgs(opts DevOptions) []string {
	args := []string{"theme", "dev"}
	if opts.Theme != "" {
		args = append(args, "--theme", opts.Theme)
	}
	if opts.Path != "" {
		args = append(args, "--path", opts.Path)
	}
	return c.withStore(args)
}

func (c *CLI) run(ctx context.Context, args []string, echo bool, stdin io.Reader) (*Result, error) {
	inv := Invocation{Args: args, Dir: c.dir, Stdin: stdin}
	if echo {
		inv.Echo = c.echo
	}
	res, err := c.runner.Run(ctx, inv)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return res, commandError(res)
	}
	return res, nil
}

// Push uploads local theme files.
func (c *CLI) Push(ctx context.Context, opts PushOptions) error {
	c.logger.Info("pushing theme", "store", c.store, "theme", opts.Theme, "live", opts.Live, "unpublished", opts.Unpublished)
	_, err := c.run(ctx, c.PushArgs(opts), true, nil)
	return err
}

// Pull downloads theme files.
func (c *CLI) Pull(ctx context.Context, opts PullOptions) error {
	c.logger.Info("pulling theme", "store", c.store, "theme", opts.Theme, "live", opts.Live, "path", opts.Path)
	_, err := c.run(ctx, c.PullArgs(opts), true, nil)
	return err
}

// Dev runs the development server until it exits or ctx is cancelled.
func (c *CLI) Dev(ctx context.Context, opts DevOptions) error {
	c.logger.Info("starting theme dev server", "store", c.store, "theme", opts.Theme)
	_, err := c.run(ctx, c.DevArgs(opts), true, opts.Stdin)
	return err
}

// ListThemes fetches and parses the theme catalog.
func (c *CLI) ListThemes(ctx context.Context) ([]theme.Record, error) {
	res, err := c.runner.Run(ctx, Invocation{Args: c.ListArgs(), Dir: c.dir})
	if err != nil {
		return nil, &CatalogError{Message: "could not run theme list", Err: err}
	}
	if res.ExitCode != 0 {
		return nil, &CatalogError{Message: commandError(res).Message}
	}
	themes, err := ParseThemeList([]byte(res.Stdout))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("theme catalog loaded", "store", c.store, "themes", len(themes))
	return themes, nil
}

// FindLiveThemeID returns the normalized id of the live theme. Failures are
// logged and reported as not found so callers can continue without it.
func (c *CLI) FindLiveThemeID(ctx context.Context) (string, bool) {
	themes, err := c.ListThemes(ctx)
	if err != nil {
		c.logger.Warn("could not determine live theme", "store", c.store, "err", err)
		return "", false
	}
	return LiveThemeID(themes)
}
