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

	"github.com/monover/monover/pkg/bump"
	"github.com/monover/monover/pkg/config"
	"github.com/monover/monover/pkg/plan"
	"github.com/monover/monover/pkg/serializer"
)

// bumpReport is the serialized outcome of a bump run.
type bumpReport struct {
	Plan     string          `json:"plan" yaml:"plan"`
	DryRun   bool            `json:"dry_run" yaml:"dry_run"`
	Bumps    []bumpReportRow `json:"bumps" yaml:"bumps"`
	Engraved []string        `json:"engraved,omitempty" yaml:"engraved,omitempty"`
	Commit   string          `json:"commit,omitempty" yaml:"commit,omitempty"`
	Release  string          `json:"release_commit,omitempty" yaml:"release_commit,omitempty"`
	Tags     []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type bumpReportRow struct {
	Project  string   `json:"project" yaml:"project"`
	Old      string   `json:"old" yaml:"old"`
	New      string   `json:"new" yaml:"new"`
	Target   bool     `json:"target" yaml:"target"`
	Skipped  bool     `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func bumpCmd() *cli.Command {
	return &cli.Command{
		Name:                  "bump",
		EnableShellCompletion: true,
		Usage:                 "Bump project versions: engrave files, commit, and tag",
		ArgsUsage:             "[version|steps] [projects...]",
		Description: `Bump the versions of the named projects and record the result in git.

The first argument may be an absolute version or relative bump steps:

  monover bump 1.2.0 core        set core to 1.2.0
  monover bump +minor core       1.2.3 -> 1.3.0
  monover bump +patch,+dev core  1.2.3 -> 1.2.4.dev0
  monover bump -pre core         1.3.0a2 -> 1.3.0
  monover bump core              apply core's configured default bump

Without a version argument each target applies its configured
default_bump (falling back to +patch). In a monorepo, projects that are
not bump targets get the bumped versions engraved into their own
version's local segment, recording which bump they were built against.

The whole bump is planned against a consistent snapshot of the
repository before any file or git mutation, then applied: engrave
files, commit, tag versions on the trunk, and for monorepos record an
out-of-trunk release commit carrying the release tags.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Bump every configured project",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Allow backward bumps and skip non-advancing ones instead of failing",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Report the plan without touching files or git",
			},
			&cli.BoolFlag{
				Name:  "engrave-only",
				Usage: "Write files but record no commits or tags",
			},
			&cli.BoolFlag{
				Name:  "no-tag",
				Usage: "Commit the engraves but create no tags",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail on untagged projects instead of seeding their start version",
			},
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
			pl.Strict = cmd.Bool("strict")

			specArg, targets, err := splitBumpArgs(cfg, cmd.Args().Slice(), cmd.Bool("all"))
			if err != nil {
				return err
			}

			p, err := pl.Plan(ctx, specArg, targets, cmd.Bool("force"))
			if err != nil {
				return err
			}

			res, err := pl.Apply(ctx, p, plan.ApplyOptions{
				Root:        root,
				DryRun:      cmd.Bool("dry-run"),
				EngraveOnly: cmd.Bool("engrave-only"),
				NoTag:       cmd.Bool("no-tag"),
			})
			if err != nil {
				return err
			}

			ser := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
			defer func() {
				if err := ser.Close(); err != nil {
					slog.Warn("failed to close serializer", "error", err)
				}
			}()
			return ser.Serialize(ctx, buildReport(p, res))
		},
	}
}

// splitBumpArgs separates the optional leading bump expression from the
// target project names. A leading argument that names a project is a
// target; anything else must parse as a bump expression.
func splitBumpArgs(cfg *config.Config, args []string, all bool) (string, []string, error) {
	specArg := ""
	if len(args) > 0 {
		if _, err := cfg.Find(args[0]); err != nil {
			if _, perr := bump.ParseSpec(args[0]); perr != nil {
				return "", nil, fmt.Errorf("%q is neither a project nor a bump expression: %w",
					args[0], perr)
			}
			specArg = args[0]
			args = args[1:]
		}
	}

	if all {
		if len(args) > 0 {
			return "", nil, fmt.Errorf("cannot combine --all with project arguments: %v", args)
		}
		targets := make([]string, 0, len(cfg.Projects))
		for _, p := range cfg.Projects {
			targets = append(targets, p.Name)
		}
		return specArg, targets, nil
	}
	return specArg, args, nil
}

func buildReport(p *plan.Plan, res *plan.ApplyResult) bumpReport {
	report := bumpReport{
		Plan:     p.ID,
		DryRun:   res.DryRun,
		Engraved: res.Engraved,
		Commit:   res.Commit,
		Release:  res.ReleaseCommit,
		Tags:     res.Tags,
	}
	for _, b := range p.Bumps {
		report.Bumps = append(report.Bumps, bumpReportRow{
			Project:  b.Project,
			Old:      b.Old.String(),
			New:      b.New.String(),
			Target:   b.Target,
			Skipped:  b.Skipped,
			Warnings: b.Warnings,
		})
	}
	return report
}
