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

// Package engrave writes resolved version strings into source files,
// replacing placeholders or previous literals. The core supplies only the
// substitution values; which files and patterns to touch comes from
// per-project graft specs in configuration.
package engrave

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/monover/monover/pkg/errors"
)

// Graft is one search-and-replace instruction. Subst may reference regex
// capture groups ($1, ${name}) and the interpolation tokens {version},
// {pname}, and {date}.
type Graft struct {
	Regex string `yaml:"regex"`
	Subst string `yaml:"subst"`
}

// Spec couples file glob patterns with the grafts applied to each
// matching file. Globs use gitignore-style ** patterns, relative to the
// project directory.
type Spec struct {
	Globs  []string `yaml:"globs"`
	Grafts []Graft  `yaml:"grafts"`
}

// Values are the interpolation inputs for one project's grafts.
type Values struct {
	ProjectName string
	Version     string
	Date        string
}

// Result reports what one Apply call touched.
type Result struct {
	// Files actually modified, repo-relative, sorted.
	Modified []string
	// Total graft matches replaced across all files.
	Matches int
	// Files scanned (glob hits), modified or not.
	Scanned int
}

// Engraver applies graft specs beneath a root directory. DryRun leaves
// files untouched while still reporting what would change.
type Engraver struct {
	Root   string
	DryRun bool
}

// Apply runs every spec against dir (relative to the engraver root),
// substituting the given values, without crossing into excluded
// subdirectories (nested project roots). Returns the files modified.
func (e *Engraver) Apply(ctx context.Context, dir string, specs []Spec, vals Values, exclude []string) (Result, error) {
	var res Result
	base := filepath.Join(e.Root, dir)

	for _, spec := range specs {
		grafts, err := compileGrafts(spec.Grafts, vals)
		if err != nil {
			return Result{}, err
		}

		files, err := matchGlobs(base, spec.Globs, exclude)
		if err != nil {
			return Result{}, err
		}

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return Result{}, errors.Wrap(errors.ErrCodeEngrave, "engraving interrupted", err)
			}
			res.Scanned++
			modified, matches, err := e.engraveFile(file, grafts)
			if err != nil {
				return Result{}, err
			}
			res.Matches += matches
			if modified {
				rel, relErr := filepath.Rel(e.Root, file)
				if relErr != nil {
					rel = file
				}
				res.Modified = append(res.Modified, filepath.ToSlash(rel))
			}
		}
	}

	sort.Strings(res.Modified)
	return res, nil
}

type compiledGraft struct {
	regex *regexp.Regexp
	subst string
}

// compileGrafts interpolates tokens and compiles the graft patterns.
// Tokens are substituted before compilation so a graft regex may match
// on the project name.
func compileGrafts(grafts []Graft, vals Values) ([]compiledGraft, error) {
	repl := strings.NewReplacer(
		"{version}", vals.Version,
		"{pname}", vals.ProjectName,
		"{date}", vals.Date,
	)
	regexRepl := strings.NewReplacer(
		"{version}", regexp.QuoteMeta(vals.Version),
		"{pname}", regexp.QuoteMeta(vals.ProjectName),
		"{date}", regexp.QuoteMeta(vals.Date),
	)

	out := make([]compiledGraft, 0, len(grafts))
	for _, g := range grafts {
		re, err := regexp.Compile(regexRepl.Replace(g.Regex))
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeEngrave,
				"invalid graft regex", err, map[string]any{"regex": g.Regex})
		}
		out = append(out, compiledGraft{regex: re, subst: repl.Replace(g.Subst)})
	}
	return out, nil
}

// matchGlobs collects files under base matching any glob, skipping paths
// beneath any excluded directory.
func matchGlobs(base string, globs []string, exclude []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string

	for _, glob := range globs {
		matches, err := doublestar.FilepathGlob(filepath.Join(base, glob))
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeEngrave,
				"invalid file glob", err, map[string]any{"glob": glob})
		}
		for _, m := range matches {
			if seen[m] || excluded(m, exclude) {
				continue
			}
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}

	sort.Strings(files)
	return files, nil
}

func excluded(file string, exclude []string) bool {
	for _, dir := range exclude {
		if rel, err := filepath.Rel(dir, file); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func (e *Engraver) engraveFile(file string, grafts []compiledGraft) (bool, int, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return false, 0, errors.Wrap(errors.ErrCodeEngrave, "reading file", err)
	}

	content := data
	matches := 0
	for _, g := range grafts {
		found := g.regex.FindAllSubmatchIndex(content, -1)
		if len(found) == 0 {
			continue
		}
		matches += len(found)

		var rebuilt []byte
		last := 0
		for _, loc := range found {
			rebuilt = append(rebuilt, content[last:loc[0]]...)
			rebuilt = g.regex.Expand(rebuilt, []byte(g.subst), content, loc)
			last = loc[1]
		}
		rebuilt = append(rebuilt, content[last:]...)
		content = rebuilt
	}

	if matches == 0 || string(content) == string(data) {
		return false, matches, nil
	}

	if e.DryRun {
		slog.Info("would engrave", "file", file, "matches", matches)
		return true, matches, nil
	}

	info, err := os.Stat(file)
	if err != nil {
		return false, 0, errors.Wrap(errors.ErrCodeEngrave, "stat file", err)
	}
	if err := os.WriteFile(file, content, info.Mode().Perm()); err != nil {
		return false, 0, errors.Wrap(errors.ErrCodeEngrave, "writing file", err)
	}
	slog.Debug("engraved", "file", file, "matches", matches)
	return true, matches, nil
}

// DefaultSpecs are the grafts applied when a project configures none:
// a version assignment in Go sources and the conventional README
// placeholder.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Globs: []string{"version.go", "**/version.go"},
			Grafts: []Graft{{
				Regex: `(?m)^(\s*(?:const\s+)?[Vv]ersion\s*=\s*)"[^"]*"`,
				Subst: `$1"{version}"`,
			}},
		},
		{
			Globs: []string{"README.md"},
			Grafts: []Graft{{
				Regex: `\|version\|`,
				Subst: `{version}`,
			}},
		},
	}
}
