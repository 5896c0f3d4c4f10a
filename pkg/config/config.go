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

// Package config loads the repository's .monover.yaml: the scheme
// (monorepo or mono-project) and the projects it versions.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/monover/monover/pkg/errors"
	"github.com/monover/monover/pkg/project"
)

// FileName is the configuration file looked up at the repository root.
const FileName = ".monover.yaml"

// Config is the parsed repository configuration.
type Config struct {
	// Repo selects the tagging scheme: monorepo or mono-project.
	Repo project.Scheme `yaml:"repo"`
	// Projects are the versioned units. A mono-project repo declares
	// exactly one.
	Projects []*project.Project `yaml:"projects"`
}

// Default is the configuration assumed when no file exists: a single
// mono-project rooted at the repository.
func Default(name string) *Config {
	return &Config{
		Repo: project.SchemeMonoProject,
		Projects: []*project.Project{
			{Name: name, Path: "."},
		},
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "reading config", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeConfig,
			"parsing config", err, map[string]any{"path": path})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks scheme/project consistency and binds every project
// to the scheme.
func (c *Config) Validate() error {
	if !c.Repo.Valid() {
		return errors.Newf(errors.ErrCodeConfig,
			"repo must be %q or %q, got %q",
			project.SchemeMonorepo, project.SchemeMonoProject, c.Repo)
	}
	if len(c.Projects) == 0 {
		return errors.New(errors.ErrCodeConfig, "no projects configured")
	}
	if c.Repo == project.SchemeMonoProject && len(c.Projects) > 1 {
		return errors.Newf(errors.ErrCodeConfig,
			"mono-project repo declares %d projects", len(c.Projects))
	}

	seenName := map[string]bool{}
	seenPath := map[string]bool{}
	for _, p := range c.Projects {
		if err := p.Bind(c.Repo); err != nil {
			return err
		}
		if seenName[p.Name] {
			return errors.Newf(errors.ErrCodeConfig, "duplicate project name: %q", p.Name)
		}
		if seenPath[p.Path] {
			return errors.Newf(errors.ErrCodeConfig, "duplicate project path: %q", p.Path)
		}
		seenName[p.Name] = true
		seenPath[p.Path] = true
	}

	sort.Slice(c.Projects, func(i, j int) bool {
		return c.Projects[i].Name < c.Projects[j].Name
	})
	return nil
}

// Find returns the named project.
func (c *Config) Find(name string) (*project.Project, error) {
	for _, p := range c.Projects {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, errors.NewWithContext(errors.ErrCodeConfig,
		"unknown project", map[string]any{"project": name})
}

// Init writes a starter configuration into dir, refusing to overwrite
// an existing file. The starter declares a mono-project named after the
// directory; monorepo users add projects by hand.
func Init(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", errors.NewWithContext(errors.ErrCodeConfig,
			"config already exists", map[string]any{"path": path})
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfig, "resolving directory", err)
	}
	name := filepath.Base(abs)

	content := fmt.Sprintf(`# monover configuration
# repo: monorepo | mono-project
repo: mono-project
projects:
  - name: %s
    path: .
    # start_version: 0.0.0
    # default_bump: +patch
`, name)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeConfig, "writing config", err)
	}
	return path, nil
}
