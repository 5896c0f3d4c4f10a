// Copyright (c) 2026, The Monover Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plan

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/monover/monover/pkg/engrave"
	"github.com/monover/monover/pkg/errors"
	"github.com/monover/monover/pkg/project"
)

// DefaultReleaseBranch carries the out-of-trunk release commits of a
// monorepo.
const DefaultReleaseBranch = "latest"

// ApplyOptions control how a plan is executed.
type ApplyOptions struct {
	// Root is the repository root directory on disk.
	Root string
	// DryRun reports every step without touching files or history.
	DryRun bool
	// EngraveOnly writes files but records no commits or tags.
	EngraveOnly bool
	// NoTag commits the engraves but skips tags and the release
	// commit.
	NoTag bool
	// ReleaseBranch overrides DefaultReleaseBranch.
	ReleaseBranch string
}

// ApplyResult reports what Apply did.
type ApplyResult struct {
	// Engraved files, repo-relative, sorted.
	Engraved []string
	// Commit is the bump commit on the trunk, empty for dry runs.
	Commit string
	// ReleaseCommit is the out-of-trunk release commit (monorepo
	// only).
	ReleaseCommit string
	// Tags created, in creation order.
	Tags []string
	// DryRun echoes the option for reporting.
	DryRun bool
}

// Apply executes a computed plan: engrave every bumped project's files,
// then commit and tag. Files are engraved before any history mutation
// so an aborted run leaves the worktree inspectable and a retry safe.
//
// Monorepos tag versions on the trunk bump commit, then record an
// out-of-trunk release commit on the release branch carrying the
// release tags, and return to the original branch. Mono-projects
// commit and tag in-trunk.
func (pl *Planner) Apply(ctx context.Context, p *Plan, opts ApplyOptions) (*ApplyResult, error) {
	res := &ApplyResult{DryRun: opts.DryRun}
	bumped := p.Bumped()
	if len(bumped) == 0 {
		slog.Info("nothing to bump", "plan", p.ID)
		return res, nil
	}
	if opts.ReleaseBranch == "" {
		opts.ReleaseBranch = DefaultReleaseBranch
	}

	if !opts.DryRun && !opts.EngraveOnly {
		dirty, err := pl.Repo.IsDirty(ctx)
		if err != nil {
			return nil, err
		}
		if dirty {
			return nil, errors.New(errors.ErrCodeGit,
				"worktree has uncommitted changes; commit or stash them first")
		}
	}

	if err := pl.engraveAll(ctx, p, bumped, opts, res); err != nil {
		return nil, err
	}
	if opts.DryRun || opts.EngraveOnly {
		return res, nil
	}

	msg := bumpMessage(p, bumped)
	if p.Scheme == project.SchemeMonorepo {
		return res, pl.applyMonorepo(ctx, p, bumped, opts, msg, res)
	}
	return res, pl.applyMonoProject(ctx, bumped, opts, msg, res)
}

func (pl *Planner) engraveAll(ctx context.Context, p *Plan, bumped []*PlannedBump, opts ApplyOptions, res *ApplyResult) error {
	eng := &engrave.Engraver{Root: opts.Root, DryRun: opts.DryRun}
	date := time.Now().UTC().Format("2006-01-02")

	// Each project's engrave stops at every other project's directory,
	// so nested projects keep their own versions.
	var roots []string
	for _, proj := range pl.Config.Projects {
		roots = append(roots, filepath.Join(opts.Root, proj.Path))
	}

	for _, b := range bumped {
		proj, err := pl.Config.Find(b.Project)
		if err != nil {
			return err
		}
		own := filepath.Join(opts.Root, proj.Path)
		var exclude []string
		for _, r := range roots {
			if r != own {
				exclude = append(exclude, r)
			}
		}

		er, err := eng.Apply(ctx, proj.Path, proj.EngraveSpecs(), engrave.Values{
			ProjectName: proj.Name,
			Version:     b.New.String(),
			Date:        date,
		}, exclude)
		if err != nil {
			return err
		}
		res.Engraved = append(res.Engraved, er.Modified...)
		slog.Info("engraved project",
			"plan", p.ID,
			"project", proj.Name,
			"version", b.New.String(),
			"files", len(er.Modified),
			"dry_run", opts.DryRun)
	}
	return nil
}

func (pl *Planner) applyMonoProject(ctx context.Context, bumped []*PlannedBump, opts ApplyOptions, msg string, res *ApplyResult) error {
	commit, err := pl.Repo.CreateCommit(ctx, msg)
	if err != nil {
		return err
	}
	res.Commit = commit

	if opts.NoTag {
		return nil
	}
	for _, b := range bumped {
		proj, err := pl.Config.Find(b.Project)
		if err != nil {
			return err
		}
		tag := proj.VTag(b.New)
		if err := pl.Repo.CreateTag(ctx, tag, commit, msg); err != nil {
			return err
		}
		res.Tags = append(res.Tags, tag)
	}
	return nil
}

func (pl *Planner) applyMonorepo(ctx context.Context, p *Plan, bumped []*PlannedBump, opts ApplyOptions, msg string, res *ApplyResult) error {
	branch, err := pl.Repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	commit, err := pl.Repo.CreateCommit(ctx, msg)
	if err != nil {
		return err
	}
	res.Commit = commit

	if opts.NoTag {
		return nil
	}

	for _, b := range bumped {
		if !b.Target {
			continue
		}
		proj, err := pl.Config.Find(b.Project)
		if err != nil {
			return err
		}
		tag := proj.VTag(b.New)
		if err := pl.Repo.CreateTag(ctx, tag, commit, msg); err != nil {
			return err
		}
		res.Tags = append(res.Tags, tag)
	}

	// Out-of-trunk release commit: the release branch gets its own
	// commit carrying the r-tags, then the original branch is
	// restored untouched.
	if err := pl.releaseSide(ctx, bumped, opts, msg, res); err != nil {
		// The trunk bump commit and v-tags are intact; put the
		// checkout back on the original branch at the bump commit so
		// a retry can redo just the release side.
		if cerr := pl.Repo.Checkout(ctx, branch); cerr != nil {
			return stderrors.Join(err, cerr)
		}
		if rerr := pl.Repo.ResetHard(ctx, commit); rerr != nil {
			return stderrors.Join(err, rerr)
		}
		return err
	}

	if err := pl.Repo.Checkout(ctx, branch); err != nil {
		return err
	}

	slog.Info("applied plan",
		"plan", p.ID,
		"commit", commit,
		"release_commit", res.ReleaseCommit,
		"tags", len(res.Tags))
	return nil
}

func (pl *Planner) releaseSide(ctx context.Context, bumped []*PlannedBump, opts ApplyOptions, msg string, res *ApplyResult) error {
	if err := pl.Repo.CheckoutBranch(ctx, opts.ReleaseBranch); err != nil {
		return err
	}
	releaseMsg := "release: " + strings.TrimPrefix(msg, "chore(version): ")
	releaseCommit, err := pl.Repo.CreateCommit(ctx, releaseMsg)
	if err != nil {
		return err
	}
	res.ReleaseCommit = releaseCommit

	for _, b := range bumped {
		if !b.Target {
			continue
		}
		proj, err := pl.Config.Find(b.Project)
		if err != nil {
			return err
		}
		tag := proj.RTag(b.New)
		if err := pl.Repo.CreateTag(ctx, tag, releaseCommit, releaseMsg); err != nil {
			return err
		}
		res.Tags = append(res.Tags, tag)
	}
	return nil
}

func bumpMessage(p *Plan, bumped []*PlannedBump) string {
	var parts []string
	for _, b := range bumped {
		if b.Target {
			parts = append(parts, fmt.Sprintf("%s to %s", b.Project, b.New))
		}
	}
	if len(parts) == 0 {
		for _, b := range bumped {
			parts = append(parts, fmt.Sprintf("%s to %s", b.Project, b.New))
		}
	}
	return "chore(version): bump " + strings.Join(parts, ", ")
}
