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
	"fmt"
	"path"
	"sort"

	"github.com/monover/monover/pkg/errors"
)

type memCommit struct {
	id      string
	parents []string
	message string
}

// Memory is an in-memory Repository for deterministic tests: a commit
// graph, a tag map, and a dirty flag, with no real source control
// involved. It is not safe for concurrent use, matching the
// single-writer contract of the real backend.
type Memory struct {
	commits  map[string]memCommit
	tags     map[string]string // tag name -> commit id
	head     string
	branch   string // current branch, "" when detached
	branches map[string]string
	dirty    bool
	seq      int
}

// NewMemory returns a Memory repository containing a single root commit.
func NewMemory() *Memory {
	m := &Memory{
		commits:  map[string]memCommit{},
		tags:     map[string]string{},
		branches: map[string]string{},
	}
	m.head = m.addCommit("initial commit")
	m.branch = "main"
	m.branches["main"] = m.head
	return m
}

func (m *Memory) addCommit(message string) string {
	m.seq++
	id := fmt.Sprintf("c%04d", m.seq)
	var parents []string
	if m.head != "" {
		parents = []string{m.head}
	}
	m.commits[id] = memCommit{id: id, parents: parents, message: message}
	return id
}

// Commit appends a commit on top of the current head and returns its id.
// Test helper; CreateCommit is the Repository-facing equivalent.
func (m *Memory) Commit(message string) string {
	id := m.addCommit(message)
	m.head = id
	if m.branch != "" {
		m.branches[m.branch] = id
	}
	return id
}

// TagAt records a tag pointing at the given commit. Test helper.
func (m *Memory) TagAt(name, commit string) {
	m.tags[name] = commit
}

// SetDirty marks the working tree dirty or clean. Test helper.
func (m *Memory) SetDirty(dirty bool) {
	m.dirty = dirty
}

// Head implements Repository.
func (m *Memory) Head(_ context.Context) (string, error) {
	return m.head, nil
}

// CurrentBranch implements Repository.
func (m *Memory) CurrentBranch(_ context.Context) (string, error) {
	if m.branch == "" {
		return "", errors.New(errors.ErrCodeGit, "detached HEAD; check out a branch first")
	}
	return m.branch, nil
}

// ListTags implements Repository. Results are name-sorted so callers see
// an order independent of tag creation sequence.
func (m *Memory) ListTags(_ context.Context, pattern string) ([]TagRef, error) {
	var tags []TagRef
	for name, commit := range m.tags {
		ok, err := path.Match(pattern, name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeGit, "bad tag pattern", err)
		}
		if ok {
			tags = append(tags, TagRef{Name: name, Commit: commit})
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// ancestors returns every commit reachable from start, start included.
func (m *Memory) ancestors(start string) map[string]bool {
	seen := map[string]bool{}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, m.commits[id].parents...)
	}
	return seen
}

// Distance implements Repository, mirroring "rev-list --count A..B":
// the number of commits reachable from ref but not from commit.
func (m *Memory) Distance(_ context.Context, commit, ref string) (int, error) {
	refCommit, err := m.resolve(ref)
	if err != nil {
		return 0, err
	}
	target, err := m.resolve(commit)
	if err != nil {
		return 0, err
	}

	fromRef := m.ancestors(refCommit)
	if !fromRef[target] {
		return 0, ErrNotAncestor
	}
	fromCommit := m.ancestors(target)

	n := 0
	for id := range fromRef {
		if !fromCommit[id] {
			n++
		}
	}
	return n, nil
}

// resolve maps a ref (commit id, tag name, branch name, or HEAD) to a
// commit id.
func (m *Memory) resolve(ref string) (string, error) {
	if ref == "HEAD" {
		return m.head, nil
	}
	if _, ok := m.commits[ref]; ok {
		return ref, nil
	}
	if commit, ok := m.tags[ref]; ok {
		return commit, nil
	}
	if commit, ok := m.branches[ref]; ok {
		return commit, nil
	}
	return "", errors.Newf(errors.ErrCodeGit, "unknown ref %q", ref)
}

// IsDirty implements Repository.
func (m *Memory) IsDirty(_ context.Context) (bool, error) {
	return m.dirty, nil
}

// CreateTag implements Repository.
func (m *Memory) CreateTag(_ context.Context, name, commit, _ string) error {
	if _, exists := m.tags[name]; exists {
		return errors.Newf(errors.ErrCodeGit, "tag %q already exists", name)
	}
	resolved, err := m.resolve(commit)
	if err != nil {
		return err
	}
	m.tags[name] = resolved
	return nil
}

// CreateCommit implements Repository. Committing clears the dirty flag.
func (m *Memory) CreateCommit(_ context.Context, message string) (string, error) {
	id := m.Commit(message)
	m.dirty = false
	return id, nil
}

// CheckoutBranch implements Repository.
func (m *Memory) CheckoutBranch(_ context.Context, name string) error {
	m.branches[name] = m.head
	m.branch = name
	return nil
}

// Checkout implements Repository. Checking out a branch name follows
// that branch; anything else detaches.
func (m *Memory) Checkout(_ context.Context, ref string) error {
	if commit, ok := m.branches[ref]; ok {
		m.head = commit
		m.branch = ref
		return nil
	}
	commit, err := m.resolve(ref)
	if err != nil {
		return err
	}
	m.head = commit
	m.branch = ""
	return nil
}

// ResetHard implements Repository.
func (m *Memory) ResetHard(_ context.Context, ref string) error {
	commit, err := m.resolve(ref)
	if err != nil {
		return err
	}
	m.head = commit
	if m.branch != "" {
		m.branches[m.branch] = commit
	}
	m.dirty = false
	return nil
}
