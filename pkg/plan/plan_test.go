package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monover/monover/pkg/config"
	"github.com/monover/monover/pkg/errors"
	"github.com/monover/monover/pkg/gitrepo"
	"github.com/monover/monover/pkg/project"
	"github.com/monover/monover/pkg/tags"
)

func monorepoConfig(t *testing.T, names ...string) *config.Config {
	t.Helper()
	cfg := &config.Config{Repo: project.SchemeMonorepo}
	for _, name := range names {
		cfg.Projects = append(cfg.Projects, &project.Project{Name: name, Path: name})
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func newPlanner(cfg *config.Config, repo gitrepo.Repository) *Planner {
	return &Planner{
		Repo:     repo,
		Resolver: &tags.Resolver{Repo: repo},
		Config:   cfg,
	}
}

func TestPlanCorrelation(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("mainprog-v0.0.0", head)
	repo.TagAt("core-v0.0.0", head)

	pl := newPlanner(monorepoConfig(t, "mainprog", "core"), repo)
	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)

	require.Len(t, p.Bumps, 2)
	// Sorted by name: core (dependent) before mainprog (target).
	core, mainprog := p.Bumps[0], p.Bumps[1]

	assert.Equal(t, "mainprog", mainprog.Project)
	assert.True(t, mainprog.Target)
	assert.True(t, mainprog.Bumped)
	assert.Equal(t, "0.0.0", mainprog.Old.String())
	assert.Equal(t, "0.0.1", mainprog.New.String())

	assert.Equal(t, "core", core.Project)
	assert.False(t, core.Target)
	assert.True(t, core.Bumped)
	assert.Equal(t, "0.0.0+mainprog.0.0.1", core.New.String())
}

func TestPlanMultipleTargets(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("mainprog-v0.0.0", head)
	repo.TagAt("core-v0.0.0", head)
	repo.TagAt("lib-v0.0.0", head)

	pl := newPlanner(monorepoConfig(t, "mainprog", "core", "lib"), repo)
	p, err := pl.Plan(ctx, "+minor", []string{"mainprog", "core"}, false)
	require.NoError(t, err)

	require.Len(t, p.Bumps, 3)
	var dep *PlannedBump
	for _, b := range p.Bumps {
		if b.Project == "lib" {
			dep = b
		}
	}
	require.NotNil(t, dep)
	// Targets join the dependent suffix in name order.
	assert.Equal(t, "0.0.0+core.0.1.0.mainprog.0.1.0", dep.New.String())
}

func TestPlanIdempotent(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("mainprog-v0.2.0", head)
	repo.TagAt("core-v0.1.0", head)

	pl := newPlanner(monorepoConfig(t, "mainprog", "core"), repo)

	first, err := pl.Plan(ctx, "+patch", []string{"mainprog"}, false)
	require.NoError(t, err)
	second, err := pl.Plan(ctx, "+patch", []string{"mainprog"}, false)
	require.NoError(t, err)

	// Planning never mutates state; identical input, identical plan,
	// id included.
	assert.Equal(t, first, second)

	// A different repository state yields a different id.
	repo.TagAt("mainprog-v0.3.0", repo.Commit("more work"))
	third, err := pl.Plan(ctx, "+patch", []string{"mainprog"}, false)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestPlanSeedsStartVersionWithoutTags(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	repo.Commit("untagged work")

	cfg := monorepoConfig(t, "mainprog")
	pl := newPlanner(cfg, repo)

	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)

	require.Len(t, p.Bumps, 1)
	b := p.Bumps[0]
	assert.Equal(t, "0.0.0", b.Old.String())
	assert.Equal(t, "0.0.1", b.New.String())
	assert.NotEmpty(t, b.Warnings)
}

func TestPlanStrictFailsWithoutTags(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	repo.Commit("untagged work")

	pl := newPlanner(monorepoConfig(t, "mainprog"), repo)
	pl.Strict = true

	_, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNoVersionTags, errors.CodeOf(err))
}

func TestPlanAbsoluteSpec(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("mainprog-v1.0.0", head)

	pl := newPlanner(monorepoConfig(t, "mainprog"), repo)
	p, err := pl.Plan(ctx, "2.0.0", []string{"mainprog"}, false)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", p.Bumps[0].New.String())
}

func TestPlanBackwardsAbsoluteRejected(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("mainprog-v1.0.0", head)

	pl := newPlanner(monorepoConfig(t, "mainprog"), repo)
	_, err := pl.Plan(ctx, "0.5.0", []string{"mainprog"}, false)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBackwardsVersion))

	// Forced, the backward bump goes through with a warning.
	p, err := pl.Plan(ctx, "0.5.0", []string{"mainprog"}, true)
	require.NoError(t, err)
	assert.Equal(t, "0.5.0", p.Bumps[0].New.String())
	assert.NotEmpty(t, p.Bumps[0].Warnings)
}

func TestPlanNonMonotonicRelative(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("mainprog-v1.0.0", head)
	repo.TagAt("core-v1.0.0", head)

	pl := newPlanner(monorepoConfig(t, "mainprog", "core"), repo)

	// Introducing a pre-release on a final version orders backwards.
	_, err := pl.Plan(ctx, "pre=a", []string{"mainprog", "core"}, false)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNonMonotonicBump))

	// Forced runs skip each offender individually.
	p, err := pl.Plan(ctx, "pre=a", []string{"mainprog", "core"}, true)
	require.NoError(t, err)
	require.Len(t, p.Bumps, 2)
	for _, b := range p.Bumps {
		assert.True(t, b.Skipped)
		assert.False(t, b.Bumped)
		assert.Equal(t, "1.0.0", b.New.String())
	}
	assert.Empty(t, p.Bumped())
}

func TestPlanUnknownTarget(t *testing.T) {
	ctx := context.TODO()
	pl := newPlanner(monorepoConfig(t, "mainprog"), gitrepo.NewMemory())

	_, err := pl.Plan(ctx, "", []string{"ghost"}, false)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConfig))

	_, err = pl.Plan(ctx, "", nil, false)
	assert.Error(t, err)
}

func TestPlanProjectDefaultBump(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("mainprog-v0.1.0", head)

	cfg := &config.Config{
		Repo: project.SchemeMonorepo,
		Projects: []*project.Project{
			{Name: "mainprog", Path: "mainprog", DefaultBump: "+minor"},
		},
	}
	require.NoError(t, cfg.Validate())

	pl := newPlanner(cfg, repo)
	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", p.Bumps[0].New.String())
}

func TestPlanDirtyWarning(t *testing.T) {
	ctx := context.TODO()
	repo := gitrepo.NewMemory()
	head := repo.Commit("setup")
	repo.TagAt("mainprog-v0.1.0", head)
	repo.SetDirty(true)

	pl := newPlanner(monorepoConfig(t, "mainprog"), repo)
	p, err := pl.Plan(ctx, "", []string{"mainprog"}, false)
	require.NoError(t, err)
	assert.Contains(t, p.Bumps[0].Warnings, "worktree is dirty")
}
