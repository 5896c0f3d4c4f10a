/*
Copyright © 2026 The Monover Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/monover/monover/pkg/config"
	"github.com/monover/monover/pkg/gitrepo"
	"github.com/monover/monover/pkg/logging"
	"github.com/monover/monover/pkg/plan"
	"github.com/monover/monover/pkg/serializer"
	"github.com/monover/monover/pkg/tags"
)

const (
	name           = "monover"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (defaults to stdout)",
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Value: string(serializer.FormatTable),
		Usage: fmt.Sprintf("Output format (supported values: %s)", serializer.SupportedFormats()),
	}
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   fmt.Sprintf("Config file path (default: %s at the repository root)", config.FileName),
	}
	dirFlag = &cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"C"},
		Value:   ".",
		Usage:   "Repository root directory",
	}
)

// Root assembles the monover command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Bump and engrave versions across the projects of a git repository",
		Version: version,
		Description: fmt.Sprintf(`monover manages semantic versions for one or many projects
hosted in a single git repository.

Version: %s
Commit:  %s
Built:   %s

Versions live in git tags, not files: each project's current version is
resolved from its nearest version tag, and bumps engrave the resolved
versions into source files only at release time.`, version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides LOG_LEVEL",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			initCmd(),
			statusCmd(),
			bumpCmd(),
		},
	}
}

// Run executes the command tree with the given arguments.
func Run(ctx context.Context, args []string) error {
	return Root().Run(ctx, args)
}

// Execute runs the CLI with signal-aware cancellation. This is called
// by main.main().
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	format := serializer.Format(cmd.String("format"))
	if format.IsUnknown() {
		return "", fmt.Errorf("unknown output format %q, supported values: %s",
			format, serializer.SupportedFormats())
	}
	return format, nil
}

// loadConfig reads the repository configuration honoring --dir and
// --config, returning the config and the repository root.
func loadConfig(cmd *cli.Command) (*config.Config, string, error) {
	root := cmd.String("dir")
	path := cmd.String("config")
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading %s (run %q to create one): %w", path, name+" init", err)
	}
	return cfg, root, nil
}

// newPlanner wires the git-backed planner for the repository at root.
func newPlanner(cfg *config.Config, root string) (*plan.Planner, error) {
	repo, err := gitrepo.NewGit(root)
	if err != nil {
		return nil, err
	}
	return &plan.Planner{
		Repo:     repo,
		Resolver: &tags.Resolver{Repo: repo},
		Config:   cfg,
	}, nil
}
