package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rendis/logictree/internal/logging"
	"github.com/rendis/logictree/internal/observability"
	"github.com/rendis/logictree/internal/workspace"
	"github.com/rendis/logictree/pkg/logic"
	"github.com/rendis/logictree/pkg/mcp"
)

const usage = `usage: logictree <command> [flags]

commands:
  serve       run the MCP tool server on stdio
  eval        evaluate a tree against data
  validate    validate a tree
  ops         list available operations
  version     print the version
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries the streams and configuration shared by every command.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    Config
	logger *slog.Logger
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	c := &cli{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		cfg:    cfg,
		logger: logging.New(stderr, cfg.LogLevel, cfg.LogFormat),
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "serve":
		return c.runServe(rest)
	case "eval":
		return c.runEval(rest)
	case "validate":
		return c.runValidate(rest)
	case "ops":
		return c.runOps(rest)
	case "version":
		printVersion(stdout)
		return 0
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}

// engine builds the logic engine from configuration.
func (c *cli) engine() (*logic.Engine, error) {
	return logic.New(logic.Options{
		MaxDepth: c.cfg.MaxDepth,
		Logger:   c.logger,
	})
}

func (c *cli) runServe(args []string) int {
	fs := newFlagSet("serve", c.stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	engine, err := c.engine()
	if err != nil {
		return c.fail(err)
	}

	deps := mcp.LogicServerDeps{
		Workspaces: workspace.NewManager(engine, c.logger),
		Logger:     c.logger,
		Version:    version,
	}
	if c.cfg.Tracing {
		deps.Spans = observability.NewSpanManager()
		deps.Metrics = observability.NewMetricsRecorder()
	}
	srv := mcp.NewLogicServer(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.logger.Info("logictree MCP server starting", slog.String("version", version), slog.Int("max_depth", c.cfg.MaxDepth))
	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		return c.fail(err)
	}
	c.logger.Info("logictree MCP server stopped")
	return 0
}

func (c *cli) fail(err error) int {
	fmt.Fprintf(c.stderr, "Error: %v\n", err)
	return 1
}
