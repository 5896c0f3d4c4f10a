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

package bump

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/monover/monover/pkg/errors"
	"github.com/monover/monover/pkg/version"
)

// Op is the kind of modification a relative bump step performs.
// The set is closed so Apply can switch over it exhaustively.
type Op int

const (
	// OpIncrement increases the named segment by one, zeroing all
	// lower-order release positions and clearing pre/post/dev qualifiers
	// when the segment is a release position.
	OpIncrement Op = iota
	// OpSet overwrites the named segment with a literal value without
	// resetting anything else.
	OpSet
	// OpAppend introduces a qualifier: a pre-release letter at number 0,
	// or extra local label segments.
	OpAppend
	// OpClear removes a pre/post/dev/local qualifier entirely.
	OpClear
)

// String returns the operator name for messages.
func (o Op) String() string {
	switch o {
	case OpIncrement:
		return "increment"
	case OpSet:
		return "set"
	case OpAppend:
		return "append"
	case OpClear:
		return "clear"
	}
	return "unknown"
}

// Seg names the version segment a step operates on.
type Seg int

const (
	SegEpoch Seg = iota
	SegMajor
	SegMinor
	SegPatch
	SegPre
	SegPost
	SegDev
	SegLocal
)

var segNames = map[Seg]string{
	SegEpoch: "epoch",
	SegMajor: "major",
	SegMinor: "minor",
	SegPatch: "patch",
	SegPre:   "pre",
	SegPost:  "post",
	SegDev:   "dev",
	SegLocal: "local",
}

var segsByName = map[string]Seg{
	"epoch": SegEpoch,
	"major": SegMajor,
	"minor": SegMinor,
	"patch": SegPatch,
	"pre":   SegPre,
	"post":  SegPost,
	"dev":   SegDev,
	"local": SegLocal,
}

// String returns the segment name.
func (s Seg) String() string {
	if n, ok := segNames[s]; ok {
		return n
	}
	return "unknown"
}

// releasePosition returns the release tuple index for major/minor/patch,
// or -1 for non-release segments.
func (s Seg) releasePosition() int {
	switch s {
	case SegMajor:
		return 0
	case SegMinor:
		return 1
	case SegPatch:
		return 2
	default:
		return -1
	}
}

// Step is one (modifier, segment) pair of a relative bump specifier,
// applied left to right.
type Step struct {
	Op    Op
	Seg   Seg
	Value string // literal for OpSet / OpAppend, empty otherwise
}

// Spec is a bump specifier: either an absolute target version, or an
// ordered list of relative steps.
type Spec struct {
	Absolute *version.Version
	Steps    []Step

	raw string
}

// IsAbsolute reports whether the spec names an absolute target version.
func (s Spec) IsAbsolute() bool { return s.Absolute != nil }

// String returns the original specifier text.
func (s Spec) String() string { return s.raw }

// Default is the bump applied when the user names no specifier: a patch
// increment.
func Default() Spec {
	return Spec{Steps: []Step{{Op: OpIncrement, Seg: SegPatch}}, raw: "+patch"}
}

// Absolute wraps a version as an absolute bump spec.
func Absolute(v version.Version) Spec {
	return Spec{Absolute: &v, raw: v.String()}
}

// SetLocal builds the spec the orchestrator uses to stamp a dependent
// project's local segment with a correlation label. Never produced by
// user-facing specifier text.
func SetLocal(label string) Spec {
	return Spec{
		Steps: []Step{{Op: OpSet, Seg: SegLocal, Value: label}},
		raw:   "local=" + label,
	}
}

// stepRegex matches one relative step token:
//
//	+seg          increment
//	+seg=value    append (pre letter or local label)
//	seg=value     set
//	-seg          clear
var stepRegex = regexp.MustCompile(`^(\+|-)?([A-Za-z]+)(?:=([A-Za-z0-9._-]+))?$`)

// ParseSpec parses specifier text into a Spec. Text that does not start
// with an operator and contains no "=" is parsed as an absolute version.
// Relative steps are comma-joined and applied left to right, e.g.
// "+minor,+dev" or "patch=7,-pre".
func ParseSpec(text string) (Spec, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Spec{}, errors.New(errors.ErrCodeInvalidBumpSpec, "bump specifier is empty")
	}

	if !looksRelative(trimmed) {
		v, err := version.Parse(trimmed)
		if err != nil {
			return Spec{}, errors.Wrap(errors.ErrCodeInvalidBumpSpec,
				"specifier is neither a relative step list nor a version", err)
		}
		return Spec{Absolute: &v, raw: trimmed}, nil
	}

	var steps []Step
	for _, token := range strings.Split(trimmed, ",") {
		step, err := parseStep(strings.TrimSpace(token))
		if err != nil {
			return Spec{}, err
		}
		steps = append(steps, step)
	}
	return Spec{Steps: steps, raw: trimmed}, nil
}

// looksRelative decides between the relative step grammar and absolute
// version text. A leading "+"/"-", an "=", or a bare segment name mark a
// relative spec; everything else is handed to the version parser.
func looksRelative(text string) bool {
	if strings.HasPrefix(text, "+") || strings.HasPrefix(text, "-") {
		return true
	}
	if strings.Contains(text, "=") {
		return true
	}
	_, named := segsByName[strings.ToLower(text)]
	return named
}

func parseStep(token string) (Step, error) {
	if token == "" {
		return Step{}, errors.New(errors.ErrCodeInvalidBumpSpec, "empty step in bump specifier")
	}

	m := stepRegex.FindStringSubmatch(token)
	if m == nil {
		return Step{}, errors.Newf(errors.ErrCodeInvalidBumpSpec, "invalid bump step: %q", token)
	}
	opText, segText, value := m[1], strings.ToLower(m[2]), m[3]

	seg, ok := segsByName[segText]
	if !ok {
		return Step{}, errors.Newf(errors.ErrCodeInvalidBumpSpec, "unknown segment %q in step %q", segText, token)
	}

	switch opText {
	case "-":
		if value != "" {
			return Step{}, errors.Newf(errors.ErrCodeInvalidBumpSpec, "clear step %q takes no value", token)
		}
		switch seg {
		case SegPre, SegPost, SegDev, SegLocal:
			return Step{Op: OpClear, Seg: seg}, nil
		default:
			return Step{}, errors.Newf(errors.ErrCodeInvalidBumpSpec, "cannot clear segment %q", segText)
		}

	case "+":
		if value != "" {
			// +pre=b / +local=label introduce a qualifier.
			switch seg {
			case SegPre, SegLocal:
				return Step{Op: OpAppend, Seg: seg, Value: value}, nil
			default:
				return Step{}, errors.Newf(errors.ErrCodeInvalidBumpSpec, "cannot append to segment %q", segText)
			}
		}
		switch seg {
		case SegMajor, SegMinor, SegPatch, SegPre, SegPost, SegDev:
			return Step{Op: OpIncrement, Seg: seg}, nil
		default:
			return Step{}, errors.Newf(errors.ErrCodeInvalidBumpSpec, "cannot increment segment %q", segText)
		}

	default: // no operator: bare increment or set
		if value == "" {
			switch seg {
			case SegMajor, SegMinor, SegPatch, SegPre, SegPost, SegDev:
				return Step{Op: OpIncrement, Seg: seg}, nil
			default:
				return Step{}, errors.Newf(errors.ErrCodeInvalidBumpSpec, "cannot increment segment %q", segText)
			}
		}
		return Step{Op: OpSet, Seg: seg, Value: value}, nil
	}
}

// preValueRegex matches a settable pre qualifier: letter plus optional
// number, alternate spellings included.
var preValueRegex = regexp.MustCompile(`(?i)^(a|b|c|rc|alpha|beta|pre|preview)([0-9]*)$`)

func parsePreValue(value string) (*version.Pre, error) {
	m := preValueRegex.FindStringSubmatch(value)
	if m == nil {
		return nil, errors.Newf(errors.ErrCodeInvalidBumpSpec, "invalid pre-release value %q", value)
	}
	n := 0
	if m[2] != "" {
		parsed, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidBumpSpec, "invalid pre-release number", err)
		}
		n = parsed
	}
	pre := version.Pre{Kind: normalizeLetter(m[1]), N: n}
	return &pre, nil
}

func normalizeLetter(letter string) string {
	switch strings.ToLower(letter) {
	case "a", "alpha":
		return version.PreAlpha
	case "b", "beta":
		return version.PreBeta
	default:
		return version.PreRC
	}
}
