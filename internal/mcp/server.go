package mcp

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/gohmmer/internal/config"
	"github.com/dshills/gohmmer/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "gohmmer-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	storage storage.Storage
	models  *modelCache
	cfg     config.Config
	logger  *log.Logger
}

// NewServer creates a new MCP server instance. Runs are stored in the
// database at cfg.DBPath, which is created if needed. logger may be nil.
func NewServer(cfg config.Config, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	models, err := newModelCache(cfg.CacheSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		storage: store,
		models:  models,
		cfg:     cfg,
		logger:  logger,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the run database without serving
func (s *Server) Close() error {
	return s.storage.Close()
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchDatabaseTool(), s.handleSearchDatabase)
	s.mcp.AddTool(searchSequenceTool(), s.handleSearchSequence)
	s.mcp.AddTool(getRunTool(), s.handleGetRun)
}
