/*
Copyright © 2026 The Monover Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/monover/monover/pkg/config"
	"github.com/monover/monover/pkg/errors"
	"github.com/monover/monover/pkg/plan"
	"github.com/monover/monover/pkg/project"
	"github.com/monover/monover/pkg/serializer"
)

// statusRow is one project's resolved state in a status report.
type statusRow struct {
	Project      string `json:"project" yaml:"project"`
	Version      string `json:"version" yaml:"version"`
	Tag          string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Released     string `json:"released,omitempty" yaml:"released,omitempty"`
	CommitsSince int    `json:"commits_since" yaml:"commits_since"`
	Dirty        bool   `json:"dirty" yaml:"dirty"`
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Resolve and report the current version of each project",
		ArgsUsage:             "[projects...]",
		Description: `Resolve each project's current version from its git tags and report it.

A project sitting exactly on a release tag reports that release. A
project with commits since its last version tag reports a derived dev
version carrying the commit distance, e.g. 1.2.0.dev3 three commits
after the 1.2.0 bump. Projects with no version tags yet report their
configured start version.

The report can be output in JSON, YAML, or table format.`,
		Flags: []cli.Flag{
			configFlag,
			dirFlag,
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			cfg, root, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			pl, err := newPlanner(cfg, root)
			if err != nil {
				return err
			}

			projects, err := selectProjects(cfg, cmd.Args().Slice())
			if err != nil {
				return err
			}

			rows := make([]statusRow, 0, len(projects))
			for _, p := range projects {
				row, err := resolveRow(ctx, pl, p)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}

			ser := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
			defer func() {
				if err := ser.Close(); err != nil {
					slog.Warn("failed to close serializer", "error", err)
				}
			}()
			return ser.Serialize(ctx, rows)
		},
	}
}

// selectProjects returns the named projects, or all of them when no
// names are given.
func selectProjects(cfg *config.Config, names []string) ([]*project.Project, error) {
	if len(names) == 0 {
		return cfg.Projects, nil
	}
	out := make([]*project.Project, 0, len(names))
	for _, name := range names {
		p, err := cfg.Find(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func resolveRow(ctx context.Context, pl *plan.Planner, p *project.Project) (statusRow, error) {
	pair, err := pl.Resolver.Resolve(ctx, p)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeNoVersionTags) {
			return statusRow{}, err
		}
		// No tags yet: report the start version the first bump will
		// grow from.
		return statusRow{
			Project: p.Name,
			Version: fmt.Sprintf("%s (untagged)", p.Start()),
			Dirty:   pair.Dirty,
		}, nil
	}

	row := statusRow{
		Project:      p.Name,
		Version:      pair.Version.String(),
		Tag:          pair.Tag,
		CommitsSince: pair.CommitsSince,
		Dirty:        pair.Dirty,
	}
	if pair.ReleaseVersion != nil {
		row.Released = pair.ReleaseVersion.String()
	}
	return row, nil
}
