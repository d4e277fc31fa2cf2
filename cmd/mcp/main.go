// RISC MCP Server - Exposes the RISC identity-risk API as MCP tools for LLMs
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mbd888/risc/internal/config"
	"github.com/mbd888/risc/internal/logging"
	"github.com/mbd888/risc/internal/mcpserver"
	"github.com/mbd888/risc/internal/traces"
	"github.com/mbd888/risc/pkg/risc"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol; everything else goes to stderr.
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx := context.Background()
	shutdown, err := traces.Init(ctx, cfg.OTLPEndpoint, "risc-mcp", logger)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer func() { _ = shutdown(ctx) }()
	}

	client, err := risc.New(cfg.Options(risc.SlogOutput{Logger: logger}, logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}

	s := mcpserver.NewMCPServer(client, version)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
