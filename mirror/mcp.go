// CLAUDE:SUMMARY Registers mirror_page and mirror_stats tools on an MCP server.
package mirror

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mirrorPageArgs struct {
	TargetURL string `json:"target_url,omitempty" jsonschema:"page URL to mirror; defaults to the configured target"`
}

type mirrorStatsArgs struct{}

// RegisterMCP registers mirror tools on an MCP server.
//
// Registered tools:
//
//	mirror_page  — run the snapshot pipeline for one page
//	mirror_stats — aggregate the asset/run journal
func (m *Mirror) RegisterMCP(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "mirror_page",
		Description: "Mirror a single web page: download its assets once each and write rewritten markup to local storage.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in mirrorPageArgs) (*mcp.CallToolResult, *Report, error) {
		if in.TargetURL != "" {
			m.cfg.TargetURL = in.TargetURL
		}
		report, err := m.Run(ctx)
		return nil, report, err
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "mirror_stats",
		Description: "Aggregate statistics from the mirror's asset/run journal.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ mirrorStatsArgs) (*mcp.CallToolResult, *Stats, error) {
		stats, err := m.Stats(ctx)
		return nil, stats, err
	})
}
