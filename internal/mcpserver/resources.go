package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         "themesync://config",
		Name:        "Configuration",
		Description: "Resolved themesync configuration",
		MIMEType:    "application/json",
	}, s.handleConfigResource)

	s.server.AddResource(&mcp.Resource{
		URI:         "themesync://download/last",
		Name:        "Last Download",
		Description: "Summary of the last download_themes call in this session",
		MIMEType:    "application/json",
	}, s.handleLastDownloadResource)
}

func jsonResource(uri, data string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: data},
		},
	}
}

func marshalResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, string(b)), nil
}

func (s *Server) handleConfigResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return marshalResource(req.Params.URI, s.deps.Config)
}

func (s *Server) handleLastDownloadResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	s.mu.Lock()
	status := DownloadStatus{LastDownload: s.lastDownload}
	s.mu.Unlock()
	return marshalResource(req.Params.URI, status)
}
