package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monover/monover/pkg/project"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMonorepo(t *testing.T) {
	path := writeConfig(t, `
repo: monorepo
projects:
  - name: mainprog
    path: mainprog
    default_bump: +minor
  - name: core
    path: core
    start_version: 0.1.0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, project.SchemeMonorepo, cfg.Repo)
	require.Len(t, cfg.Projects, 2)
	// Projects come back name-sorted regardless of file order.
	assert.Equal(t, "core", cfg.Projects[0].Name)
	assert.Equal(t, "mainprog", cfg.Projects[1].Name)
	assert.Equal(t, "0.1.0", cfg.Projects[0].Start().String())
	assert.Equal(t, project.SchemeMonorepo, cfg.Projects[0].Scheme())
}

func TestLoadEngraveOverrides(t *testing.T) {
	path := writeConfig(t, `
repo: mono-project
projects:
  - name: app
    path: .
    engraves:
      - globs: ["**/*.py"]
        grafts:
          - regex: "__version__ = '[^']*'"
            subst: "__version__ = '{version}'"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	specs := cfg.Projects[0].EngraveSpecs()
	require.Len(t, specs, 1)
	assert.Equal(t, []string{"**/*.py"}, specs[0].Globs)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown field", content: "repo: monorepo\nbogus: true\nprojects: [{name: a, path: a}]\n"},
		{name: "bad scheme", content: "repo: flat\nprojects: [{name: a, path: a}]\n"},
		{name: "no projects", content: "repo: monorepo\nprojects: []\n"},
		{name: "mono-project with two", content: "repo: mono-project\nprojects: [{name: a, path: a}, {name: b, path: b}]\n"},
		{name: "duplicate names", content: "repo: monorepo\nprojects: [{name: a, path: a}, {name: a, path: b}]\n"},
		{name: "duplicate paths", content: "repo: monorepo\nprojects: [{name: a, path: p}, {name: b, path: p}]\n"},
		{name: "bad project name", content: "repo: monorepo\nprojects: [{name: 'a b', path: p}]\n"},
		{name: "bad start version", content: "repo: monorepo\nprojects: [{name: a, path: a, start_version: nope}]\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	cfg := Default("app")
	require.NoError(t, cfg.Validate())

	p, err := cfg.Find("app")
	require.NoError(t, err)
	assert.Equal(t, "app", p.Name)

	_, err = cfg.Find("ghost")
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	path, err := Init(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, project.SchemeMonoProject, cfg.Repo)
	require.Len(t, cfg.Projects, 1)
	assert.Equal(t, filepath.Base(dir), cfg.Projects[0].Name)

	// Second init must not clobber the file.
	_, err = Init(dir)
	assert.Error(t, err)
}
