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

// Package plan computes and applies version bumps across the projects
// of a repository. Planning is pure: the whole repository state is
// resolved into a snapshot first, every new version is computed from
// it, and only Apply mutates files or history.
package plan

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/monover/monover/pkg/bump"
	"github.com/monover/monover/pkg/config"
	"github.com/monover/monover/pkg/errors"
	"github.com/monover/monover/pkg/gitrepo"
	"github.com/monover/monover/pkg/project"
	"github.com/monover/monover/pkg/tags"
	"github.com/monover/monover/pkg/version"
)

// Planner computes bump plans from repository state.
type Planner struct {
	Repo     gitrepo.Repository
	Resolver *tags.Resolver
	Config   *config.Config
	// Strict turns the recoverable no-version-tags condition into a
	// planning failure instead of seeding the start version.
	Strict bool
}

// PlannedBump is the planned outcome for one project.
type PlannedBump struct {
	// Project name and path, from configuration.
	Project string
	Path    string
	// Old is the resolved current version; New the planned one.
	Old version.Version
	New version.Version
	// Target marks projects named on the command line; the others are
	// dependents picked up for correlation suffixes.
	Target bool
	// Bumped reports whether New differs from Old and will be
	// engraved (and, for targets, tagged).
	Bumped bool
	// Skipped marks a forced non-advancing target left untouched.
	Skipped bool
	// Warnings collected while resolving and computing this entry.
	Warnings []string
}

// Plan is one computed bump across the repository. Bumps are sorted by
// project name and the id is derived from the content, so identical
// repository state yields identical plans.
type Plan struct {
	ID     string
	Scheme project.Scheme
	Bumps  []*PlannedBump
}

// Bumped returns the entries that will actually change, name order.
func (p *Plan) Bumped() []*PlannedBump {
	var out []*PlannedBump
	for _, b := range p.Bumps {
		if b.Bumped {
			out = append(out, b)
		}
	}
	return out
}

// snapshot is the resolved state of one project before planning.
type snapshot struct {
	project  *project.Project
	current  version.Version
	warnings []string
	err      error
}

// Plan computes the bump plan for the named target projects. specArg
// is the bump expression from the command line; empty means each
// target's configured default (falling back to +patch). With force,
// non-advancing targets are skipped instead of failing the plan, and
// backward absolute bumps are let through with a warning.
func (pl *Planner) Plan(ctx context.Context, specArg string, targetNames []string, force bool) (*Plan, error) {
	targets, err := pl.targetSet(targetNames)
	if err != nil {
		return nil, err
	}

	// Consistent snapshot: resolve every project before computing any
	// bump, so a plan never mixes pre- and post-mutation state.
	snaps := map[string]*snapshot{}
	for _, p := range pl.Config.Projects {
		snaps[p.Name] = pl.resolveOne(ctx, p)
	}

	plan := &Plan{Scheme: pl.Config.Repo}
	var targetErrs []error
	var offenders []string

	for _, p := range pl.Config.Projects {
		snap := snaps[p.Name]
		if !targets[p.Name] {
			continue
		}
		if snap.err != nil {
			targetErrs = append(targetErrs, snap.err)
			continue
		}

		entry := &PlannedBump{
			Project:  p.Name,
			Path:     p.Path,
			Old:      snap.current,
			Target:   true,
			Warnings: snap.warnings,
		}

		spec, err := pl.specFor(p, specArg)
		if err != nil {
			targetErrs = append(targetErrs, err)
			continue
		}

		newV, warns, err := bump.Apply(snap.current, spec, force)
		if err != nil {
			targetErrs = append(targetErrs,
				errors.WrapWithContext(errors.CodeOf(err), "bump failed", err,
					map[string]any{"project": p.Name}))
			continue
		}
		entry.New = newV
		entry.Warnings = append(entry.Warnings, warns...)

		if regressive(snap.current, newV) && !(spec.IsAbsolute() && force) {
			offender := fmt.Sprintf("%s: %s -> %s", p.Name, snap.current, newV)
			if !force {
				offenders = append(offenders, offender)
				continue
			}
			entry.Skipped = true
			entry.New = snap.current
			entry.Warnings = append(entry.Warnings, "skipped non-advancing bump: "+offender)
		} else {
			entry.Bumped = true
		}
		plan.Bumps = append(plan.Bumps, entry)
	}

	if len(offenders) > 0 {
		sort.Strings(offenders)
		return nil, errors.NewWithContext(errors.ErrCodeNonMonotonicBump,
			"bump would not advance versions (use force to skip offenders)",
			map[string]any{"offenders": offenders})
	}
	if len(targetErrs) > 0 {
		return nil, errors.Wrap(errors.CodeOf(targetErrs[0]),
			fmt.Sprintf("planning failed for %d project(s)", len(targetErrs)),
			stderrors.Join(targetErrs...))
	}

	pl.correlate(plan, snaps, targets)

	sort.Slice(plan.Bumps, func(i, j int) bool {
		return plan.Bumps[i].Project < plan.Bumps[j].Project
	})
	plan.ID = planID(plan)
	return plan, nil
}

// planIDNamespace scopes the content-derived plan ids.
var planIDNamespace = uuid.MustParse("5f8f2a9e-33c7-4a9b-9c41-7de1f0a6b9d2")

// planID derives the plan id from the sorted plan content, so planning
// twice against unchanged repository state yields byte-identical plans.
func planID(p *Plan) string {
	var b strings.Builder
	b.WriteString(string(p.Scheme))
	for _, e := range p.Bumps {
		fmt.Fprintf(&b, "|%s:%s>%s:%t:%t:%t",
			e.Project, e.Old, e.New, e.Target, e.Bumped, e.Skipped)
	}
	return uuid.NewSHA1(planIDNamespace, []byte(b.String())).String()
}

// correlate stamps non-target monorepo projects with a local suffix
// naming every bumped target and its new version, so engraved builds of
// dependents record which bump they were built against. Failures here
// degrade to warnings; a dependent is never allowed to fail the plan.
func (pl *Planner) correlate(plan *Plan, snaps map[string]*snapshot, targets map[string]bool) {
	if pl.Config.Repo != project.SchemeMonorepo {
		return
	}

	var parts []string
	for _, b := range plan.Bumps {
		if b.Target && b.Bumped {
			parts = append(parts, b.Project+"."+b.New.StripLocal().String())
		}
	}
	if len(parts) == 0 {
		return
	}
	sort.Strings(parts)
	label := strings.Join(parts, ".")

	for _, p := range pl.Config.Projects {
		if targets[p.Name] {
			continue
		}
		snap := snaps[p.Name]
		entry := &PlannedBump{Project: p.Name, Path: p.Path}
		if snap.err != nil {
			entry.Warnings = append(entry.Warnings,
				fmt.Sprintf("dependent %s not engraved: %v", p.Name, snap.err))
			plan.Bumps = append(plan.Bumps, entry)
			continue
		}
		entry.Old = snap.current
		entry.Warnings = snap.warnings

		newV, _, err := bump.Apply(snap.current, bump.SetLocal(label), true)
		if err != nil {
			entry.New = snap.current
			entry.Warnings = append(entry.Warnings,
				fmt.Sprintf("dependent %s not engraved: %v", p.Name, err))
		} else {
			entry.New = newV
			entry.Bumped = newV.String() != snap.current.String()
		}
		plan.Bumps = append(plan.Bumps, entry)
	}
}

// regressive reports whether the bump fails to advance the version:
// ordered backwards, or a true no-op. A change confined to the local
// segment is an advance for this purpose (locals do not order).
func regressive(old, next version.Version) bool {
	switch cmp := version.Compare(next, old); {
	case cmp < 0:
		return true
	case cmp == 0:
		return next.String() == old.String()
	default:
		return false
	}
}

func (pl *Planner) targetSet(names []string) (map[string]bool, error) {
	if len(names) == 0 {
		return nil, errors.New(errors.ErrCodeConfig, "no bump targets given")
	}
	set := map[string]bool{}
	for _, name := range names {
		if _, err := pl.Config.Find(name); err != nil {
			return nil, err
		}
		set[name] = true
	}
	return set, nil
}

func (pl *Planner) specFor(p *project.Project, specArg string) (bump.Spec, error) {
	text := specArg
	if text == "" {
		text = p.DefaultBump
	}
	if text == "" {
		return bump.Default(), nil
	}
	spec, err := bump.ParseSpec(text)
	if err != nil {
		return bump.Spec{}, errors.WrapWithContext(errors.CodeOf(err),
			"invalid bump for project", err, map[string]any{"project": p.Name})
	}
	return spec, nil
}

// resolveOne resolves a project's current version, recovering from the
// no-tags case by seeding the configured start version.
func (pl *Planner) resolveOne(ctx context.Context, p *project.Project) *snapshot {
	snap := &snapshot{project: p}
	pair, err := pl.Resolver.Resolve(ctx, p)
	switch {
	case err == nil:
		snap.current = pair.Version
		if pair.Dirty {
			snap.warnings = append(snap.warnings, "worktree is dirty")
		}
	case errors.HasCode(err, errors.ErrCodeNoVersionTags):
		if pl.Strict {
			snap.err = err
			break
		}
		snap.current = p.Start()
		snap.warnings = append(snap.warnings,
			fmt.Sprintf("no version tags; starting from %s", snap.current))
	default:
		snap.err = err
	}
	return snap
}
