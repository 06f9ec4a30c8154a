package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joshkremer/themesync/internal/theme"
)

func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "snapshot_plan",
		Description: "Summarize the store's themes and propose which ones to snapshot",
		Arguments: []*mcp.PromptArgument{
			{Name: "count", Description: "How many recent themes to consider (default 5)"},
		},
	}, s.handleSnapshotPlanPrompt)
}

func (s *Server) handleSnapshotPlanPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	count := req.Params.Arguments["count"]
	if count == "" {
		count = "5"
	}

	var sb strings.Builder
	sb.WriteString("## Themes\n\n")
	records, err := s.catalog(ctx)
	if err != nil {
		fmt.Fprintf(&sb, "The theme list could not be fetched: %v\n", err)
	} else {
		for _, r := range theme.SortByRecency(records) {
			fmt.Fprintf(&sb, "- %s (id %s, role %s, updated %s)\n", r.DisplayName(), r.ID, r.Role, r.UpdatedAt)
		}
	}

	text := fmt.Sprintf(`Plan a snapshot of store %q.

%s
Consider the %s most recently updated themes. Use download_themes to pull them;
leave the live theme out unless the user asks for it, and check any push target
with check_live_guard first.`, s.store(), sb.String(), count)

	return &mcp.GetPromptResult{
		Description: "Snapshot plan",
		Messages: []*mcp.PromptMessage{
			{Role: mcp.Role("user"), Content: &mcp.TextContent{Text: text}},
		},
	}, nil
}
