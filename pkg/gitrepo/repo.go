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
	"errors"
)

// ErrNotAncestor is returned by Distance when the commit is not reachable
// from the given ref.
var ErrNotAncestor = errors.New("commit is not an ancestor of ref")

// TagRef is one tag name with the commit it (ultimately) points to.
// Annotated tags are peeled to their target commit.
type TagRef struct {
	Name   string
	Commit string
}

// Repository is the source-control collaborator the core depends on.
// It exposes read/write primitives only; "distance" means graph-reachable
// commit count, independent of any particular backend.
//
// Implementations: Git (shells out to the git binary) and Memory (an
// in-memory fake for deterministic tests).
type Repository interface {
	// Head returns the commit id of the current position.
	Head(ctx context.Context) (string, error)

	// CurrentBranch returns the checked-out branch name, or an error
	// on a detached head.
	CurrentBranch(ctx context.Context) (string, error)

	// ListTags returns all tags matching the glob pattern with their
	// peeled commit ids, in no guaranteed order.
	ListTags(ctx context.Context, pattern string) ([]TagRef, error)

	// Distance returns the number of commits separating ref from commit
	// (zero when ref is the commit). Returns ErrNotAncestor when commit
	// is not reachable from ref.
	Distance(ctx context.Context, commit, ref string) (int, error)

	// IsDirty reports whether the working tree has uncommitted changes.
	IsDirty(ctx context.Context) (bool, error)

	// CreateTag creates an annotated tag on the given commit.
	CreateTag(ctx context.Context, name, commit, message string) error

	// CreateCommit stages all changes and records a commit, returning
	// its id. Empty commits are permitted (a bump with no engraves).
	CreateCommit(ctx context.Context, message string) (string, error)

	// CheckoutBranch creates or resets a branch at the current position
	// and switches to it. Used for out-of-trunk release commits.
	CheckoutBranch(ctx context.Context, name string) error

	// Checkout switches to an existing ref without moving any branch.
	Checkout(ctx context.Context, ref string) error

	// ResetHard moves the current position (and working tree) to ref.
	ResetHard(ctx context.Context, ref string) error
}
