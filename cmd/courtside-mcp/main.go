package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/courtside/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:8765", "Courtside server base URL")
	apiKey := flag.String("api-key", os.Getenv("COURTSIDE_AUTH_API_KEY"), "API key (default $COURTSIDE_AUTH_API_KEY)")
	flag.Parse()

	// Stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("courtside-mcp starting", "version", Version, "url", *baseURL)

	s := mcp.New(mcp.NewHTTPClient(*baseURL, *apiKey), Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server: %v\n", err)
		os.Exit(1)
	}
}
