package mcpserver

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"

	"github.com/joshkremer/themesync/internal/config"
	"github.com/joshkremer/themesync/internal/download"
	"github.com/joshkremer/themesync/internal/sanitize"
	"github.com/joshkremer/themesync/internal/shopify"
	"github.com/joshkremer/themesync/internal/theme"
	"github.com/joshkremer/themesync/internal/workspace"
)

// ThemeClient is the subset of the Shopify CLI the server drives.
type ThemeClient interface {
	ListThemes(ctx context.Context) ([]theme.Record, error)
	Pull(ctx context.Context, opts shopify.PullOptions) error
}

// Deps wires a Server.
type Deps struct {
	Themes    ThemeClient
	Manifests download.ManifestStore
	Sanitizer *sanitize.Sanitizer
	Workspace *workspace.Workspace
	Config    *config.Config
	FS        afero.Fs
	Logger    *log.Logger
}

// Server is the MCP server for themesync.
type Server struct {
	server  *mcp.Server
	deps    Deps
	version string

	mu           sync.Mutex
	lastDownload *DownloadThemesOutput
}

// New creates a Server.
func New(deps Deps, version string) *Server {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.FS == nil {
		deps.FS = afero.NewOsFs()
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Sanitizer == nil {
		deps.Sanitizer = sanitize.New(deps.FS, deps.Logger)
	}
	s := &Server{deps: deps, version: version}

	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "themesync",
			Version: version,
		},
		nil,
	)

	s.registerResources()
	s.registerTools()
	s.registerPrompts()

	return s
}

// Run serves MCP requests on transport until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func ptr[T any](v T) *T {
	return &v
}
