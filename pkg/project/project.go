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

// Package project models the versioned sub-projects of a repository and
// the tag-name schemes that bind them to git history.
package project

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/monover/monover/pkg/engrave"
	"github.com/monover/monover/pkg/errors"
	"github.com/monover/monover/pkg/version"
)

// Scheme selects the repository layout and with it the tag-name format.
type Scheme string

const (
	// SchemeMonorepo hosts several projects; tags carry the project
	// name as prefix (name-v1.2.3, name-r1.2.3).
	SchemeMonorepo Scheme = "monorepo"
	// SchemeMonoProject hosts a single project; tags are bare
	// (v1.2.3, r1.2.3).
	SchemeMonoProject Scheme = "mono-project"
)

// Valid reports whether s is a known scheme.
func (s Scheme) Valid() bool {
	return s == SchemeMonorepo || s == SchemeMonoProject
}

// nameRegex matches project names usable inside tag names: they must
// not contain the tag separators or glob metacharacters.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// Project is one versioned unit inside the repository.
type Project struct {
	// Name keys the project and prefixes its tags under the monorepo
	// scheme.
	Name string `yaml:"name"`
	// Path is the project directory relative to the repository root.
	Path string `yaml:"path"`
	// StartVersion seeds the project before any tag exists. Empty
	// means 0.0.0.
	StartVersion string `yaml:"start_version,omitempty"`
	// DefaultBump is the bump step applied when the command line names
	// the project without a version argument. Empty means +patch.
	DefaultBump string `yaml:"default_bump,omitempty"`
	// Engraves are the file grafts run when this project is bumped.
	// Empty means engrave.DefaultSpecs.
	Engraves []engrave.Spec `yaml:"engraves,omitempty"`

	scheme Scheme
}

// New validates the fields and binds the project to a tagging scheme.
func New(name, path string, scheme Scheme) (*Project, error) {
	p := &Project{Name: name, Path: path}
	if err := p.Bind(scheme); err != nil {
		return nil, err
	}
	return p, nil
}

// Bind attaches the repository scheme and validates the project fields
// against it. Config loading calls this on every declared project.
func (p *Project) Bind(scheme Scheme) error {
	if !scheme.Valid() {
		return errors.Newf(errors.ErrCodeConfig, "unknown scheme: %q", scheme)
	}
	if !nameRegex.MatchString(p.Name) {
		return errors.Newf(errors.ErrCodeConfig, "invalid project name: %q", p.Name)
	}
	if p.Path == "" {
		p.Path = "."
	}
	p.Path = strings.TrimSuffix(p.Path, "/")
	if strings.HasPrefix(p.Path, "/") || strings.HasPrefix(p.Path, "..") {
		return errors.Newf(errors.ErrCodeConfig,
			"project path must be relative to the repository root: %q", p.Path)
	}
	if p.StartVersion != "" {
		if _, err := version.Parse(p.StartVersion); err != nil {
			return errors.Wrap(errors.ErrCodeConfig, "invalid start_version", err)
		}
	}
	p.scheme = scheme
	return nil
}

// Scheme returns the scheme the project was bound to.
func (p *Project) Scheme() Scheme {
	return p.scheme
}

// Start returns the seed version used when no tags exist yet.
func (p *Project) Start() version.Version {
	if p.StartVersion == "" {
		return version.Version{Release: []int{0, 0, 0}}
	}
	return version.MustParse(p.StartVersion)
}

// VTag formats the version tag for v under the bound scheme.
func (p *Project) VTag(v version.Version) string {
	if p.scheme == SchemeMonorepo {
		return fmt.Sprintf("%s-v%s", p.Name, v.String())
	}
	return "v" + v.String()
}

// RTag formats the release tag for v under the bound scheme.
func (p *Project) RTag(v version.Version) string {
	if p.scheme == SchemeMonorepo {
		return fmt.Sprintf("%s-r%s", p.Name, v.String())
	}
	return "r" + v.String()
}

// VTagPattern is the glob matching all of the project's version tags.
func (p *Project) VTagPattern() string {
	if p.scheme == SchemeMonorepo {
		return p.Name + "-v*"
	}
	return "v*"
}

// RTagPattern is the glob matching all of the project's release tags.
func (p *Project) RTagPattern() string {
	if p.scheme == SchemeMonorepo {
		return p.Name + "-r*"
	}
	return "r*"
}

// ParseVTag extracts the version from a tag name produced by VTag.
// Returns false when the tag does not belong to this project or does
// not carry a well-formed version.
func (p *Project) ParseVTag(tag string) (version.Version, bool) {
	return p.parseTag(tag, "v")
}

// ParseRTag extracts the version from a tag name produced by RTag.
func (p *Project) ParseRTag(tag string) (version.Version, bool) {
	return p.parseTag(tag, "r")
}

func (p *Project) parseTag(tag, kind string) (version.Version, bool) {
	rest := tag
	if p.scheme == SchemeMonorepo {
		var ok bool
		rest, ok = strings.CutPrefix(tag, p.Name+"-")
		if !ok {
			return version.Version{}, false
		}
	}
	rest, ok := strings.CutPrefix(rest, kind)
	if !ok {
		return version.Version{}, false
	}
	v, err := version.Parse(rest)
	if err != nil {
		return version.Version{}, false
	}
	return v, true
}

// EngraveSpecs returns the project's grafts, falling back to the
// package defaults when none are configured.
func (p *Project) EngraveSpecs() []engrave.Spec {
	if len(p.Engraves) > 0 {
		return p.Engraves
	}
	return engrave.DefaultSpecs()
}
