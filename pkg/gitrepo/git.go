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

package gitrepo

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/monover/monover/pkg/errors"
)

// Git is a Repository backed by the git binary, scoped to one working
// directory. All operations are synchronous and context-aware.
type Git struct {
	dir string
}

// NewGit returns a Git repository rooted at dir. It fails when the git
// binary is not available on PATH.
func NewGit(dir string) (*Git, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, errors.Wrap(errors.ErrCodeGit, "git binary not found in PATH", err)
	}
	return &Git{dir: dir}, nil
}

// run executes git with the given arguments and returns trimmed stdout.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("exec", "cmd", "git "+strings.Join(args, " "), "dir", g.dir)

	if err := cmd.Run(); err != nil {
		return "", errors.WrapWithContext(errors.ErrCodeGit,
			fmt.Sprintf("git %s failed", args[0]), err,
			map[string]any{
				"args":   args,
				"stderr": strings.TrimSpace(stderr.String()),
			})
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Head implements Repository.
func (g *Git) Head(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "HEAD")
}

// CurrentBranch implements Repository.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "HEAD" {
		return "", errors.New(errors.ErrCodeGit, "detached HEAD; check out a branch first")
	}
	return out, nil
}

// ListTags implements Repository. Annotated tags are peeled to their
// target commits via for-each-ref, one process per call.
func (g *Git) ListTags(ctx context.Context, pattern string) ([]TagRef, error) {
	out, err := g.run(ctx, "for-each-ref",
		"--format=%(refname:short) %(objectname) %(*objectname)",
		"refs/tags/"+pattern)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var tags []TagRef
	for _, line := range strings.Split(out, "\n") {
		ref, ok := parseRefLine(line)
		if !ok {
			slog.Warn("skipping unparsable tag ref", "line", line)
			continue
		}
		tags = append(tags, ref)
	}
	return tags, nil
}

// parseRefLine parses one "name objectname [peeled]" for-each-ref line.
// The peeled field is present for annotated tags and names the commit.
func parseRefLine(line string) (TagRef, bool) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 2:
		return TagRef{Name: fields[0], Commit: fields[1]}, true
	case 3:
		return TagRef{Name: fields[0], Commit: fields[2]}, true
	default:
		return TagRef{}, false
	}
}

// Distance implements Repository via rev-list --count, after verifying
// ancestry with merge-base --is-ancestor.
func (g *Git) Distance(ctx context.Context, commit, ref string) (int, error) {
	cmd := exec.CommandContext(ctx, "git", "merge-base", "--is-ancestor", commit, ref)
	cmd.Dir = g.dir
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return 0, ErrNotAncestor
		}
		return 0, errors.Wrap(errors.ErrCodeGit, "ancestry check failed", err)
	}

	out, err := g.run(ctx, "rev-list", "--count", commit+".."+ref)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeGit, "unexpected rev-list output", err)
	}
	return n, nil
}

// IsDirty implements Repository using the porcelain status format.
func (g *Git) IsDirty(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// CreateTag implements Repository with an annotated tag.
func (g *Git) CreateTag(ctx context.Context, name, commit, message string) error {
	_, err := g.run(ctx, "tag", "--annotate", "--message", message, name, commit)
	if err != nil && strings.Contains(err.Error(), "already exists") {
		return errors.Wrap(errors.ErrCodeGit,
			fmt.Sprintf("tag %q already exists; bump to a different version or delete the tag", name), err)
	}
	return err
}

// CreateCommit implements Repository: stage everything, commit, return id.
func (g *Git) CreateCommit(ctx context.Context, message string) (string, error) {
	if _, err := g.run(ctx, "add", "--all"); err != nil {
		return "", err
	}
	if _, err := g.run(ctx, "commit", "--allow-empty", "--message", message); err != nil {
		return "", err
	}
	return g.Head(ctx)
}

// CheckoutBranch implements Repository (git checkout -B).
func (g *Git) CheckoutBranch(ctx context.Context, name string) error {
	_, err := g.run(ctx, "checkout", "-B", name)
	return err
}

// Checkout implements Repository (plain git checkout, no branch reset).
func (g *Git) Checkout(ctx context.Context, ref string) error {
	_, err := g.run(ctx, "checkout", ref)
	return err
}

// ResetHard implements Repository.
func (g *Git) ResetHard(ctx context.Context, ref string) error {
	_, err := g.run(ctx, "reset", "--hard", ref)
	return err
}
