package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joshkremer/themesync/internal/download"
	"github.com/joshkremer/themesync/internal/guard"
	"github.com/joshkremer/themesync/internal/theme"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_themes",
		Description: "List the themes of the configured Shopify store with their ids, roles and timestamps, and report which theme is live.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(true),
			Title:         "List Themes",
		},
	}, s.handleListThemes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "download_themes",
		Description: "Download theme snapshots into the snapshot directory. Select the N most recent themes with count, or specific themes by name or id with names. The live theme is refused unless allowLive is set. Already downloaded themes are skipped unless noSkip is set.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: ptr(false),
			IdempotentHint:  true,
			OpenWorldHint:   ptr(true),
			Title:           "Download Themes",
		},
	}, s.handleDownloadThemes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_app_blocks",
		Description: "Remove app blocks (shopify://apps/ types) from the workspace JSON templates and blank collapsible tabs that reference missing metafields. Use dryRun to preview.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: ptr(true),
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			Title:           "Remove App Blocks",
		},
	}, s.handleRemoveAppBlocks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_live_guard",
		Description: "Check whether a push or pull targeting a theme id, theme name or 'live' would touch the live theme, and whether it would be allowed.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(true),
			Title:         "Check Live Guard",
		},
	}, s.handleCheckLiveGuard)
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}}}
}

func (s *Server) store() string { return s.deps.Config.Store }

func (s *Server) catalog(ctx context.Context) ([]theme.Record, error) {
	if s.deps.Themes == nil {
		return nil, fmt.Errorf("no theme client configured")
	}
	return s.deps.Themes.ListThemes(ctx)
}

func (s *Server) handleListThemes(ctx context.Context, req *mcp.CallToolRequest, input ListThemesInput) (*mcp.CallToolResult, ListThemesOutput, error) {
	records, err := s.catalog(ctx)
	if err != nil {
		return toolError(err), ListThemesOutput{}, nil
	}
	if input.SortByRecency {
		records = theme.SortByRecency(records)
	}
	liveID, known := guard.FromCatalog(s.store(), records).LiveID()
	return nil, ListThemesOutput{
		Store:     s.store(),
		LiveID:    liveID,
		LiveKnown: known,
		Themes:    toThemeBriefs(records),
	}, nil
}

func (s *Server) handleDownloadThemes(ctx context.Context, req *mcp.CallToolRequest, input DownloadThemesInput) (*mcp.CallToolResult, DownloadThemesOutput, error) {
	opts, err := s.deps.Config.DownloadOptions()
	if err != nil {
		return toolError(err), DownloadThemesOutput{}, nil
	}
	if input.Naming != "" {
		if opts.Naming, err = download.ParseNaming(input.Naming); err != nil {
			return toolError(err), DownloadThemesOutput{}, nil
		}
	}
	if input.Destination != "" {
		opts.Destination = input.Destination
	}
	opts.IncludeLive = opts.IncludeLive || input.IncludeLive
	opts.AllowLive = input.AllowLive
	if input.StopOnError {
		opts.ContinueOnError = false
	}
	if input.NoSkip {
		opts.SkipDownloaded = false
	}

	records, err := s.catalog(ctx)
	if err != nil {
		return toolError(err), DownloadThemesOutput{}, nil
	}

	projectRoot := ""
	if s.deps.Workspace != nil {
		projectRoot = s.deps.Workspace.ProjectRoot
	}
	d := download.New(download.Config{
		Puller:      s.deps.Themes,
		Manifests:   s.deps.Manifests,
		Guard:       guard.FromCatalog(s.store(), records),
		FS:          s.deps.FS,
		ProjectRoot: projectRoot,
		Logger:      s.deps.Logger,
	})
	sum, err := d.Run(ctx, records, download.Request{
		Count:           input.Count,
		Names:           input.Names,
		PullUnlistedIDs: input.PullUnlistedIDs,
	}, opts)
	if err != nil {
		return toolError(err), DownloadThemesOutput{}, nil
	}

	out := toDownloadOutput(sum)
	s.mu.Lock()
	s.lastDownload = &out
	s.mu.Unlock()
	return nil, out, nil
}

func (s *Server) handleRemoveAppBlocks(ctx context.Context, req *mcp.CallToolRequest, input RemoveAppBlocksInput) (*mcp.CallToolResult, RemoveAppBlocksOutput, error) {
	dir := input.Dir
	switch {
	case dir == "" && s.deps.Workspace == nil:
		return toolError(fmt.Errorf("no workspace configured; pass dir")), RemoveAppBlocksOutput{}, nil
	case dir == "":
		dir = s.deps.Workspace.TemplatesDir()
	case s.deps.Workspace != nil:
		dir = s.deps.Workspace.Resolve(dir)
	}

	opts := s.deps.Config.SanitizeOptions()
	opts.DryRun = input.DryRun
	if input.NoScrubMetafields {
		opts.ScrubMetafields = false
	}
	sum, err := s.deps.Sanitizer.RemoveAppBlocks(dir, opts)
	if err != nil {
		return toolError(err), RemoveAppBlocksOutput{}, nil
	}
	return nil, toRemoveAppBlocksOutput(sum), nil
}

func (s *Server) handleCheckLiveGuard(ctx context.Context, req *mcp.CallToolRequest, input CheckLiveGuardInput) (*mcp.CallToolResult, CheckLiveGuardOutput, error) {
	target := strings.TrimSpace(input.Target)
	var g *guard.Guard
	if input.AllowLive {
		g = guard.New(s.store(), "", false)
	} else {
		records, err := s.catalog(ctx)
		if err != nil {
			// The guard refuses when the live theme is unknown.
			g = guard.New(s.store(), "", false)
		} else {
			g = guard.FromCatalog(s.store(), records)
		}
	}
	d := g.Check(target, input.AllowLive)
	return nil, CheckLiveGuardOutput{
		Allowed:   d.Allowed,
		Reason:    d.Reason,
		Store:     d.Store,
		Target:    target,
		LiveID:    d.LiveID,
		LiveKnown: d.LiveKnown,
		Message:   d.Error(),
	}, nil
}
