package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/cpd/pkg/config"
)

// Server wraps the MCP server and registers the cpd tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger *slog.Logger
}

// NewServer creates a new MCP server with all cpd tools registered.
// Tool calls start from cfg; a nil cfg uses the defaults.
func NewServer(version string, cfg *config.Config) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cpd",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, config: cfg, logger: slog.Default()}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Debug("mcp server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "detect_duplicates",
		Description: describeDetect(),
	}, s.handleDetect)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "tokenize_file",
		Description: describeTokenize(),
	}, s.handleTokenize)
}
