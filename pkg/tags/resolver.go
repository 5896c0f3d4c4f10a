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

// Package tags turns the git tag history of a project into its current
// version. Version tags (v-tags) mark bumps on the trunk; release tags
// (r-tags) mark published release commits. The nearest reachable tag
// decides, with commit distance folded into a dev segment so untagged
// work reads as a pre-release of the last bump.
package tags

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/monover/monover/pkg/errors"
	"github.com/monover/monover/pkg/gitrepo"
	"github.com/monover/monover/pkg/project"
	"github.com/monover/monover/pkg/version"
)

// TagPair is the resolved version state of one project at HEAD.
type TagPair struct {
	// Version is the effective current version: the nearest r-tag
	// version when HEAD itself is released, otherwise the nearest
	// v-tag version with Dev set to the commit distance when > 0.
	Version version.Version
	// ReleaseVersion is the version of the nearest reachable r-tag,
	// nil when the project has never been released.
	ReleaseVersion *version.Version
	// CommitsSince is the distance in commits from the winning v-tag
	// to HEAD.
	CommitsSince int
	// Dirty reports uncommitted changes in the worktree.
	Dirty bool
	// Tag is the winning tag name, for reporting. Normally the v-tag;
	// the r-tag when a release commit resolves without one.
	Tag string
}

// Resolver reads tag state from a repository.
type Resolver struct {
	Repo gitrepo.Repository
}

// candidate is one parsed, reachable tag.
type candidate struct {
	tag      string
	version  version.Version
	distance int
}

// Resolve computes the TagPair for p at HEAD. Returns a
// NoVersionTags error when no v-tag of the project is reachable;
// callers recover by seeding from the project's start version.
func (r *Resolver) Resolve(ctx context.Context, p *project.Project) (TagPair, error) {
	dirty, err := r.Repo.IsDirty(ctx)
	if err != nil {
		return TagPair{}, err
	}

	vwin, err := r.nearest(ctx, p.VTagPattern(), p.ParseVTag)
	if err != nil {
		return TagPair{}, err
	}
	rwin, err := r.nearest(ctx, p.RTagPattern(), p.ParseRTag)
	if err != nil {
		return TagPair{}, err
	}

	if vwin == nil {
		// No v-tag, but HEAD itself is a published release: the r-tag
		// version stands on its own.
		if rwin != nil && rwin.distance == 0 {
			rv := rwin.version.Clone()
			return TagPair{
				Version:        rwin.version.Clone(),
				ReleaseVersion: &rv,
				Dirty:          dirty,
				Tag:            rwin.tag,
			}, nil
		}
		return TagPair{Dirty: dirty}, errors.NewWithContext(errors.ErrCodeNoVersionTags,
			"no version tags found", map[string]any{"project": p.Name, "pattern": p.VTagPattern()})
	}

	pair := TagPair{
		Version:      vwin.version,
		CommitsSince: vwin.distance,
		Dirty:        dirty,
		Tag:          vwin.tag,
	}
	if rwin != nil {
		rv := rwin.version.Clone()
		pair.ReleaseVersion = &rv
	}

	// A release tag on HEAD itself is authoritative: the checkout is
	// exactly the published release.
	if rwin != nil && rwin.distance == 0 {
		pair.Version = rwin.version.Clone()
		return pair, nil
	}

	// Distance folds into the dev segment. A v-tag that itself carries
	// a dev qualifier has it replaced: the tag's dev number described
	// the tagged commit, and HEAD is now distance commits past it.
	if vwin.distance > 0 {
		derived := vwin.version.Clone()
		d := vwin.distance
		derived.Dev = &d
		pair.Version = derived
	}

	slog.Debug("resolved project version",
		"project", p.Name,
		"tag", pair.Tag,
		"version", pair.Version.String(),
		"commits_since", pair.CommitsSince,
		"dirty", pair.Dirty)
	return pair, nil
}

// nearest picks the reachable tag with the smallest commit distance to
// HEAD. Equidistant tags resolve to the greatest parsed version, then
// the lexicographically greatest tag name, so the result is independent
// of tag creation order.
func (r *Resolver) nearest(ctx context.Context, pattern string, parse func(string) (version.Version, bool)) (*candidate, error) {
	refs, err := r.Repo.ListTags(ctx, pattern)
	if err != nil {
		return nil, err
	}

	var best *candidate
	for _, ref := range refs {
		v, ok := parse(ref.Name)
		if !ok {
			slog.Debug("skipping unparseable tag", "tag", ref.Name)
			continue
		}
		dist, err := r.Repo.Distance(ctx, ref.Commit, "HEAD")
		if stderrors.Is(err, gitrepo.ErrNotAncestor) {
			continue
		}
		if err != nil {
			return nil, err
		}
		c := candidate{tag: ref.Name, version: v, distance: dist}
		if best == nil || closer(c, *best) {
			cc := c
			best = &cc
		}
	}
	return best, nil
}

func closer(a, b candidate) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	if cmp := version.Compare(a.version, b.version); cmp != 0 {
		return cmp > 0
	}
	return a.tag > b.tag
}
