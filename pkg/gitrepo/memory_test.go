package gitrepo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryListTags(t *testing.T) {
	ctx := context.TODO()
	m := NewMemory()
	head, err := m.Head(ctx)
	require.NoError(t, err)

	m.TagAt("mainprog-v0.1.0", head)
	m.TagAt("mainprog-r0.1.0", head)
	m.TagAt("core-v0.2.0", head)

	tags, err := m.ListTags(ctx, "mainprog-v*")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "mainprog-v0.1.0", tags[0].Name)
	assert.Equal(t, head, tags[0].Commit)

	all, err := m.ListTags(ctx, "*-v*")
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Name-sorted, independent of creation order.
	assert.Equal(t, "core-v0.2.0", all[0].Name)
	assert.Equal(t, "mainprog-v0.1.0", all[1].Name)

	none, err := m.ListTags(ctx, "other-v*")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryDistance(t *testing.T) {
	ctx := context.TODO()
	m := NewMemory()

	tagged := m.Commit("tagged")
	m.TagAt("v1.0.0", tagged)
	m.Commit("one")
	m.Commit("two")
	m.Commit("three")

	n, err := m.Distance(ctx, "v1.0.0", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = m.Distance(ctx, tagged, tagged)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryDistanceNotAncestor(t *testing.T) {
	ctx := context.TODO()
	m := NewMemory()

	m.Commit("on trunk")
	head, _ := m.Head(ctx)
	m.Commit("ahead")

	// A commit ahead of the ref is not reachable from it.
	ahead, _ := m.Head(ctx)
	_, err := m.Distance(ctx, ahead, head)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAncestor))
}

func TestMemoryCommitAndDirty(t *testing.T) {
	ctx := context.TODO()
	m := NewMemory()

	dirty, err := m.IsDirty(ctx)
	require.NoError(t, err)
	assert.False(t, dirty)

	m.SetDirty(true)
	dirty, _ = m.IsDirty(ctx)
	assert.True(t, dirty)

	before, _ := m.Head(ctx)
	id, err := m.CreateCommit(ctx, "engrave versions")
	require.NoError(t, err)
	assert.NotEqual(t, before, id)

	after, _ := m.Head(ctx)
	assert.Equal(t, id, after)

	dirty, _ = m.IsDirty(ctx)
	assert.False(t, dirty, "committing clears the dirty flag")
}

func TestMemoryCreateTag(t *testing.T) {
	ctx := context.TODO()
	m := NewMemory()
	head, _ := m.Head(ctx)

	require.NoError(t, m.CreateTag(ctx, "v1.0.0", head, "release 1.0.0"))

	err := m.CreateTag(ctx, "v1.0.0", head, "again")
	require.Error(t, err, "duplicate tags are rejected")

	err = m.CreateTag(ctx, "v2.0.0", "nope", "bad commit")
	require.Error(t, err)
}

func TestMemoryBranchAndReset(t *testing.T) {
	ctx := context.TODO()
	m := NewMemory()

	trunk, _ := m.Head(ctx)
	require.NoError(t, m.CheckoutBranch(ctx, "latest"))
	m.Commit("release commit")
	leaf, _ := m.Head(ctx)

	require.NoError(t, m.ResetHard(ctx, trunk))
	head, _ := m.Head(ctx)
	assert.Equal(t, trunk, head)
	assert.NotEqual(t, leaf, head)

	// The leaf commit stays reachable through its id for tagging.
	require.NoError(t, m.CreateTag(ctx, "mainprog-r0.1.0", leaf, "release"))
}

func TestMemoryCurrentBranchAndCheckout(t *testing.T) {
	ctx := context.TODO()
	m := NewMemory()

	branch, err := m.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	trunk, _ := m.Head(ctx)
	require.NoError(t, m.CheckoutBranch(ctx, "latest"))
	m.Commit("release commit")

	branch, _ = m.CurrentBranch(ctx)
	assert.Equal(t, "latest", branch)

	// Plain checkout follows the branch without moving it.
	require.NoError(t, m.Checkout(ctx, "main"))
	head, _ := m.Head(ctx)
	assert.Equal(t, trunk, head)
	branch, _ = m.CurrentBranch(ctx)
	assert.Equal(t, "main", branch)

	// Checking out a bare commit detaches.
	require.NoError(t, m.Checkout(ctx, trunk))
	_, err = m.CurrentBranch(ctx)
	assert.Error(t, err)
}

func TestParseRefLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want TagRef
		ok   bool
	}{
		{
			name: "lightweight tag",
			line: "v1.0.0 abc123",
			want: TagRef{Name: "v1.0.0", Commit: "abc123"},
			ok:   true,
		},
		{
			name: "annotated tag peeled",
			line: "mainprog-v1.0.0 tagobj123 commit456",
			want: TagRef{Name: "mainprog-v1.0.0", Commit: "commit456"},
			ok:   true,
		},
		{
			name: "garbage",
			line: "one",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRefLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
