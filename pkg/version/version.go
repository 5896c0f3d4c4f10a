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

package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/monover/monover/pkg/errors"
)

// Pre-release letters, ordered a < b < rc.
const (
	PreAlpha = "a"
	PreBeta  = "b"
	PreRC    = "rc"
)

// Pre is the pre-release qualifier of a version, e.g. "b2" in "1.0b2".
type Pre struct {
	Kind string `json:"kind" yaml:"kind"`
	N    int    `json:"n" yaml:"n"`
}

// Segment is one dot-separated part of a local version label. A segment is
// either numeric or textual; numeric segments keep their integer value so
// normalization round-trips ("01" prints as "1").
type Segment struct {
	Num   int
	Str   string
	IsNum bool
}

// NewSegment builds a Segment from raw text, detecting numeric segments.
func NewSegment(text string) Segment {
	if n, err := strconv.Atoi(text); err == nil {
		return Segment{Num: n, IsNum: true}
	}
	return Segment{Str: strings.ToLower(text)}
}

// String returns the canonical text of the segment.
func (s Segment) String() string {
	if s.IsNum {
		return strconv.Itoa(s.Num)
	}
	return s.Str
}

// Version represents a parsed version identifier following the
// [N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local] grammar. The zero value is
// not a valid version; use Parse or MustParse to construct one.
type Version struct {
	Epoch   int
	Release []int
	Pre     *Pre
	Post    *int
	Dev     *int
	Local   []Segment
}

// versionRegex accepts the permissive spelling of the version grammar.
// Alternate pre/post spellings and separators are normalized while parsing.
// Adapted from the PEP 440 "Appendix B" pattern.
var versionRegex = regexp.MustCompile(`(?i)^v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_.]?(?P<preL>a|b|c|rc|alpha|beta|pre|preview)[-_.]?(?P<preN>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<postN1>[0-9]+))|(?:[-_.]?(?P<postL>post|rev|r)[-_.]?(?P<postN2>[0-9]+)?))?` +
	`(?P<dev>[-_.]?dev[-_.]?(?P<devN>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`)

var (
	idxEpoch  = versionRegex.SubexpIndex("epoch")
	idxRel    = versionRegex.SubexpIndex("release")
	idxPre    = versionRegex.SubexpIndex("pre")
	idxPreL   = versionRegex.SubexpIndex("preL")
	idxPreN   = versionRegex.SubexpIndex("preN")
	idxPost   = versionRegex.SubexpIndex("post")
	idxPostN1 = versionRegex.SubexpIndex("postN1")
	idxPostN2 = versionRegex.SubexpIndex("postN2")
	idxDev    = versionRegex.SubexpIndex("dev")
	idxDevN   = versionRegex.SubexpIndex("devN")
	idxLocal  = versionRegex.SubexpIndex("local")
)

// Parse parses version text into a Version. Input is case-insensitive; an
// optional leading "v" and surrounding whitespace are tolerated. Alternate
// qualifier spellings ("alpha", "beta", "c", "preview", "rev", "r") and
// separators ("-", "_") are normalized to the canonical form.
func Parse(text string) (Version, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Version{}, errors.New(errors.ErrCodeMalformedVersion, "version text is empty")
	}

	m := versionRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return Version{}, errors.Newf(errors.ErrCodeMalformedVersion, "invalid version: %q", text)
	}

	var v Version
	if m[idxEpoch] != "" {
		v.Epoch = mustAtoi(m[idxEpoch])
	}
	for _, part := range strings.Split(m[idxRel], ".") {
		v.Release = append(v.Release, mustAtoi(part))
	}
	if m[idxPre] != "" {
		v.Pre = &Pre{
			Kind: normalizePreKind(m[idxPreL]),
			N:    atoiDefault(m[idxPreN], 0),
		}
	}
	if m[idxPost] != "" {
		n := 0
		switch {
		case m[idxPostN1] != "":
			n = mustAtoi(m[idxPostN1])
		case m[idxPostN2] != "":
			n = mustAtoi(m[idxPostN2])
		}
		v.Post = &n
	}
	if m[idxDev] != "" {
		n := atoiDefault(m[idxDevN], 0)
		v.Dev = &n
	}
	if m[idxLocal] != "" {
		v.Local = parseLocalLabel(m[idxLocal])
	}

	return v, nil
}

// MustParse parses version text and panics on failure. Use only for
// hardcoded strings and test data; runtime input goes through Parse.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("MustParse(%q): %v", text, err))
	}
	return v
}

// ParseLocal parses a local version label ("a.b.1") into segments,
// normalizing "-" and "_" separators to ".".
func ParseLocal(label string) ([]Segment, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil, errors.New(errors.ErrCodeMalformedVersion, "local label is empty")
	}
	if !localRegex.MatchString(label) {
		return nil, errors.Newf(errors.ErrCodeMalformedVersion, "invalid local label: %q", label)
	}
	return parseLocalLabel(label), nil
}

var localRegex = regexp.MustCompile(`^[a-z0-9]+(?:[-_.][a-z0-9]+)*$`)

func parseLocalLabel(label string) []Segment {
	label = strings.ToLower(label)
	parts := strings.FieldsFunc(label, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		segs = append(segs, NewSegment(p))
	}
	return segs
}

func normalizePreKind(letter string) string {
	switch strings.ToLower(letter) {
	case "a", "alpha":
		return PreAlpha
	case "b", "beta":
		return PreBeta
	default: // c, rc, pre, preview
		return PreRC
	}
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(fmt.Sprintf("numeric capture %q: %v", s, err))
	}
	return n
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	return mustAtoi(s)
}

// String returns the canonical lowercase text of the version.
// Parse(String()) always yields an equal Version.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Kind, v.Pre.N)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	if len(v.Local) > 0 {
		b.WriteByte('+')
		b.WriteString(v.LocalString())
	}
	return b.String()
}

// LocalString returns the canonical text of the local label without the
// leading "+", or "" when no local segments are present.
func (v Version) LocalString() string {
	if len(v.Local) == 0 {
		return ""
	}
	parts := make([]string, len(v.Local))
	for i, s := range v.Local {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// IsFinal reports whether the version is a final release: no pre, post,
// dev, or local qualifiers.
func (v Version) IsFinal() bool {
	return v.Pre == nil && v.Post == nil && v.Dev == nil && len(v.Local) == 0
}

// release segment accessors; absent positions read as zero.

func (v Version) releaseAt(i int) int {
	if i < len(v.Release) {
		return v.Release[i]
	}
	return 0
}

// Major returns the first release segment.
func (v Version) Major() int { return v.releaseAt(0) }

// Minor returns the second release segment, or 0 when absent.
func (v Version) Minor() int { return v.releaseAt(1) }

// Patch returns the third release segment, or 0 when absent.
func (v Version) Patch() int { return v.releaseAt(2) }

// Clone returns a deep copy that shares no state with v.
func (v Version) Clone() Version {
	out := v
	out.Release = append([]int(nil), v.Release...)
	if v.Pre != nil {
		pre := *v.Pre
		out.Pre = &pre
	}
	if v.Post != nil {
		post := *v.Post
		out.Post = &post
	}
	if v.Dev != nil {
		dev := *v.Dev
		out.Dev = &dev
	}
	out.Local = append([]Segment(nil), v.Local...)
	return out
}

// StripLocal returns a copy of v without its local segments.
func (v Version) StripLocal() Version {
	out := v.Clone()
	out.Local = nil
	return out
}

// WithLocal returns a copy of v with the local label replaced.
func (v Version) WithLocal(segs []Segment) Version {
	out := v.Clone()
	out.Local = append([]Segment(nil), segs...)
	return out
}

// MarshalText implements encoding.TextMarshaler so versions serialize as
// their canonical strings in JSON and YAML output.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
