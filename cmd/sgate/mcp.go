package main

import (
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/snippetgate/internal/cache"
	"github.com/standardbeagle/snippetgate/internal/debug"
	"github.com/standardbeagle/snippetgate/internal/mcp"
)

func mcpCommand(c *cli.Context) error {
	// stdout carries the protocol from here on
	debug.SetMCPMode(true)

	cfg, err := loadConfig(c)
	if err != nil {
		return debug.Fatal("failed to load config: %v\n", err)
	}
	a, err := newAnalyzer(cfg)
	if err != nil {
		return debug.Fatal("failed to create analyzer: %v\n", err)
	}
	a.EnableCache(cache.DefaultConfig())
	defer a.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := mcp.NewServer(a, mcp.Options{
		Policy:      cfg.Policy,
		Suggestions: cfg.Report.Suggestions,
	})
	err = s.Run(ctx)
	stats := a.CacheStats()
	debug.LogMCP("sgate: cache %d hits, %d misses\n", stats.Hits, stats.Misses)
	if err != nil && ctx.Err() == nil {
		return debug.Fatal("MCP server error: %v\n", err)
	}
	return nil
}
