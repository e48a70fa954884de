// Command mcpcli is a minimal smoke-test harness for the mcp package: it
// launches a stdio MCP server, performs the initialize handshake, lists its
// tools, and exits. It is not a supported client for production use.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/viant/jsonrpc/mcp"
	"github.com/viant/jsonrpc/mcp/schema"
	"github.com/viant/jsonrpc/transport/client/stdio"
)

func main() {
	command := flag.String("command", "", "server command to launch, e.g. \"npx -y @modelcontextprotocol/server-everything\"")
	timeout := flag.Duration("timeout", 10*time.Second, "overall request timeout")
	flag.Parse()

	if *command == "" {
		fmt.Fprintln(os.Stderr, "mcpcli: -command is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *command, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "mcpcli:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, timeout time.Duration) error {
	parts := strings.Fields(command)
	tr, err := stdio.New(stdio.Config{
		Command: parts[0],
		Args:    parts[1:],
	})
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}

	client := mcp.New(tr, mcp.WithRequestTimeout(timeout), mcp.WithAutoInitialize(false))
	tr.Handler = client.Handler()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Disconnect(ctx)

	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	info, err := client.Initialize(initCtx, schema.InitializeParams{})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	fmt.Printf("connected to %s %s\n", info.ServerInfo.Name, info.ServerInfo.Version)

	listCtx, cancel2 := context.WithTimeout(ctx, timeout)
	defer cancel2()
	tools, err := client.ListTools(listCtx, schema.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tools.Tools)
}
