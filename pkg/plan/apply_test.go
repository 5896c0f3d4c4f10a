package plan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monover/monover/pkg/config"
	"github.com/monover/monover/pkg/gitrepo"
	"github.com/monover/monover/pkg/project"
)

// monorepoWorkspace lays out a two-project tree on disk and the
// matching tagged history in a memory repo.
func monorepoWorkspace(t *testing.T) (string, *gitrepo.Memory, *Planner) {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"mainprog", "core"} {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "version.go"),
			[]byte("package "+name+"\n\nconst Version = \"0.0.0\"\n"), 0o644))
	}

	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("mainprog-v0.0.0", head)
	repo.TagAt("core-v0.0.0", head)

	pl := newPlanner(monorepoConfig(t, "mainprog", "core"), repo)
	return root, repo, pl
}

func readVersion(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name, "version.go"))
	require.NoError(t, err)
	return string(data)
}

func TestApplyMonorepoFlow(t *testing.T) {
	ctx := context.TODO()
	root, repo, pl := monorepoWorkspace(t)

	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)

	res, err := pl.Apply(ctx, p, ApplyOptions{Root: root})
	require.NoError(t, err)

	// Both the target and the correlated dependent got engraved.
	assert.Equal(t, []string{"core/version.go", "mainprog/version.go"}, res.Engraved)
	assert.Contains(t, readVersion(t, root, "mainprog"), `"0.0.1"`)
	assert.Contains(t, readVersion(t, root, "core"), `"0.0.0+mainprog.0.0.1"`)

	// Trunk carries the bump commit with the v-tag; the release branch
	// carries a separate commit with the r-tag.
	require.NotEmpty(t, res.Commit)
	require.NotEmpty(t, res.ReleaseCommit)
	assert.NotEqual(t, res.Commit, res.ReleaseCommit)
	assert.Equal(t, []string{"mainprog-v0.0.1", "mainprog-r0.0.1"}, res.Tags)

	vtags, err := repo.ListTags(ctx, "mainprog-v0.0.1")
	require.NoError(t, err)
	require.Len(t, vtags, 1)
	assert.Equal(t, res.Commit, vtags[0].Commit)

	rtags, err := repo.ListTags(ctx, "mainprog-r0.0.1")
	require.NoError(t, err)
	require.Len(t, rtags, 1)
	assert.Equal(t, res.ReleaseCommit, rtags[0].Commit)

	// The dependent is engraved but never tagged.
	coreTags, err := repo.ListTags(ctx, "core-*")
	require.NoError(t, err)
	require.Len(t, coreTags, 1)
	assert.Equal(t, "core-v0.0.0", coreTags[0].Name)

	// The original branch is restored with the bump commit on top.
	branch, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
	head, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Commit, head)

	// Resolving again sees the bumped version at distance zero.
	pair, err := pl.Resolver.Resolve(ctx, pl.Config.Projects[1])
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", pair.Version.String())
}

// refusingTagRepo fails tag creation for names containing a marker, so
// tests can break the apply flow partway through.
type refusingTagRepo struct {
	*gitrepo.Memory
	refuse string
}

func (r *refusingTagRepo) CreateTag(ctx context.Context, name, commit, msg string) error {
	if strings.Contains(name, r.refuse) {
		return fmt.Errorf("refusing tag %s", name)
	}
	return r.Memory.CreateTag(ctx, name, commit, msg)
}

func TestApplyReleaseFailureRestoresTrunk(t *testing.T) {
	ctx := context.TODO()
	root, mem, _ := monorepoWorkspace(t)
	repo := &refusingTagRepo{Memory: mem, refuse: "-r"}
	pl := newPlanner(monorepoConfig(t, "mainprog", "core"), repo)

	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)

	res, err := pl.Apply(ctx, p, ApplyOptions{Root: root})
	require.Error(t, err)

	// The trunk bump commit and its v-tag survive; the checkout is back
	// on the original branch at the bump commit, ready for a retry of
	// the release side.
	require.NotEmpty(t, res.Commit)
	branch, berr := mem.CurrentBranch(ctx)
	require.NoError(t, berr)
	assert.Equal(t, "main", branch)
	head, herr := mem.Head(ctx)
	require.NoError(t, herr)
	assert.Equal(t, res.Commit, head)

	vtags, terr := mem.ListTags(ctx, "mainprog-v0.0.1")
	require.NoError(t, terr)
	assert.Len(t, vtags, 1)
	rtags, terr := mem.ListTags(ctx, "mainprog-r*")
	require.NoError(t, terr)
	assert.Empty(t, rtags)
}

func TestApplyDryRun(t *testing.T) {
	ctx := context.TODO()
	root, repo, pl := monorepoWorkspace(t)
	before, _ := repo.Head(ctx)

	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)

	res, err := pl.Apply(ctx, p, ApplyOptions{Root: root, DryRun: true})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.NotEmpty(t, res.Engraved, "dry run still reports what it would touch")
	assert.Empty(t, res.Commit)
	assert.Empty(t, res.Tags)
	assert.Contains(t, readVersion(t, root, "mainprog"), `"0.0.0"`)

	after, _ := repo.Head(ctx)
	assert.Equal(t, before, after)
}

func TestApplyEngraveOnly(t *testing.T) {
	ctx := context.TODO()
	root, repo, pl := monorepoWorkspace(t)
	before, _ := repo.Head(ctx)

	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)

	res, err := pl.Apply(ctx, p, ApplyOptions{Root: root, EngraveOnly: true})
	require.NoError(t, err)

	assert.Contains(t, readVersion(t, root, "mainprog"), `"0.0.1"`)
	assert.Empty(t, res.Commit)
	assert.Empty(t, res.Tags)

	after, _ := repo.Head(ctx)
	assert.Equal(t, before, after)
}

func TestApplyNoTag(t *testing.T) {
	ctx := context.TODO()
	root, repo, pl := monorepoWorkspace(t)

	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)

	res, err := pl.Apply(ctx, p, ApplyOptions{Root: root, NoTag: true})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Commit)
	assert.Empty(t, res.ReleaseCommit, "no release commit without tags")
	assert.Empty(t, res.Tags)

	tags, err := repo.ListTags(ctx, "mainprog-*0.0.1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestApplyDirtyWorktreeAborts(t *testing.T) {
	ctx := context.TODO()
	root, repo, pl := monorepoWorkspace(t)
	repo.SetDirty(true)

	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)

	_, err = pl.Apply(ctx, p, ApplyOptions{Root: root})
	require.Error(t, err)
	assert.Contains(t, readVersion(t, root, "mainprog"), `"0.0.0"`,
		"abort happens before any file is touched")

	// Engrave-only is allowed on a dirty tree.
	_, err = pl.Apply(ctx, p, ApplyOptions{Root: root, EngraveOnly: true})
	assert.NoError(t, err)
}

func TestApplyMonoProject(t *testing.T) {
	ctx := context.TODO()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "version.go"),
		[]byte("package app\n\nconst Version = \"1.0.0\"\n"), 0o644))

	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("v1.0.0", head)

	cfg := &config.Config{
		Repo:     project.SchemeMonoProject,
		Projects: []*project.Project{{Name: "app", Path: "."}},
	}
	require.NoError(t, cfg.Validate())
	pl := newPlanner(cfg, repo)

	p, err := pl.Plan(ctx, "+minor", []string{"app"}, false)
	require.NoError(t, err)

	res, err := pl.Apply(ctx, p, ApplyOptions{Root: root})
	require.NoError(t, err)

	assert.Contains(t, readVersion(t, root, "."), `"1.1.0"`)
	require.NotEmpty(t, res.Commit)
	assert.Empty(t, res.ReleaseCommit, "mono-project releases in trunk")
	assert.Equal(t, []string{"v1.1.0"}, res.Tags)

	tags, err := repo.ListTags(ctx, "v1.1.0")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, res.Commit, tags[0].Commit)
}

func TestApplyNothingToDo(t *testing.T) {
	ctx := context.TODO()
	pl := newPlanner(monorepoConfig(t, "mainprog"), gitrepo.NewMemory())

	res, err := pl.Apply(ctx, &Plan{ID: "empty", Scheme: project.SchemeMonorepo},
		ApplyOptions{Root: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, res.Engraved)
	assert.Empty(t, res.Commit)
}
