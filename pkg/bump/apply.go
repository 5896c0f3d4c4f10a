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
	"fmt"
	"strconv"

	"github.com/monover/monover/pkg/errors"
	"github.com/monover/monover/pkg/version"
)

// Apply computes the new version for current under spec.
//
// Absolute specs are returned unchanged, except that a target ordering
// strictly before current fails with BACKWARDS_VERSION unless force is
// set; when forced, the returned warnings carry the condition for the
// caller to surface.
//
// Relative steps are applied left to right to a working copy of current.
// The engine does not enforce monotonicity of relative results; that
// check belongs to the plan orchestrator.
func Apply(current version.Version, spec Spec, force bool) (version.Version, []string, error) {
	if spec.IsAbsolute() {
		target := spec.Absolute.Clone()
		if version.Less(target, current) {
			if !force {
				return version.Version{}, nil, errors.Newf(errors.ErrCodeBackwardsVersion,
					"backward bump is forbidden: %s -/-> %s", current, target)
			}
			warning := fmt.Sprintf("forced backward bump: %s -> %s", current, target)
			return target, []string{warning}, nil
		}
		return target, nil, nil
	}

	if len(spec.Steps) == 0 {
		return version.Version{}, nil, errors.New(errors.ErrCodeInvalidBumpSpec, "bump specifier has no steps")
	}

	work := current.Clone()
	for _, step := range spec.Steps {
		next, err := applyStep(work, step)
		if err != nil {
			return version.Version{}, nil, err
		}
		work = next
	}
	return work, nil, nil
}

func applyStep(v version.Version, step Step) (version.Version, error) {
	switch step.Op {
	case OpIncrement:
		return applyIncrement(v, step.Seg)
	case OpSet:
		return applySet(v, step.Seg, step.Value)
	case OpAppend:
		return applyAppend(v, step.Seg, step.Value)
	case OpClear:
		return applyClear(v, step.Seg)
	}
	return version.Version{}, errors.Newf(errors.ErrCodeInvalidBumpSpec, "unknown bump operator %d", step.Op)
}

func applyIncrement(v version.Version, seg Seg) (version.Version, error) {
	if pos := seg.releasePosition(); pos >= 0 {
		v = growRelease(v, pos)
		v.Release[pos]++
		// Bump resets all trailing parts: lower release positions go
		// to zero and pre/post/dev qualifiers are cleared.
		for i := pos + 1; i < len(v.Release); i++ {
			v.Release[i] = 0
		}
		v.Pre, v.Post, v.Dev = nil, nil, nil
		return v, nil
	}

	switch seg {
	case SegPre:
		if v.Pre == nil {
			v.Pre = &version.Pre{Kind: version.PreAlpha, N: 0}
		} else {
			v.Pre = &version.Pre{Kind: v.Pre.Kind, N: v.Pre.N + 1}
		}
		return v, nil
	case SegPost:
		n := 0
		if v.Post != nil {
			n = *v.Post + 1
		}
		v.Post = &n
		return v, nil
	case SegDev:
		n := 0
		if v.Dev != nil {
			n = *v.Dev + 1
		}
		v.Dev = &n
		return v, nil
	default:
		return version.Version{}, errors.Newf(errors.ErrCodeInvalidBumpSpec,
			"cannot increment segment %q", seg)
	}
}

func applySet(v version.Version, seg Seg, value string) (version.Version, error) {
	if pos := seg.releasePosition(); pos >= 0 {
		n, err := parseNumber(seg, value)
		if err != nil {
			return version.Version{}, err
		}
		v = growRelease(v, pos)
		v.Release[pos] = n
		return v, nil
	}

	switch seg {
	case SegEpoch:
		n, err := parseNumber(seg, value)
		if err != nil {
			return version.Version{}, err
		}
		v.Epoch = n
		return v, nil
	case SegPre:
		pre, err := parsePreValue(value)
		if err != nil {
			return version.Version{}, err
		}
		v.Pre = pre
		return v, nil
	case SegPost:
		n, err := parseNumber(seg, value)
		if err != nil {
			return version.Version{}, err
		}
		v.Post = &n
		return v, nil
	case SegDev:
		n, err := parseNumber(seg, value)
		if err != nil {
			return version.Version{}, err
		}
		v.Dev = &n
		return v, nil
	case SegLocal:
		segs, err := version.ParseLocal(value)
		if err != nil {
			return version.Version{}, errors.Wrap(errors.ErrCodeInvalidBumpSpec,
				"invalid local value", err)
		}
		return v.WithLocal(segs), nil
	default:
		return version.Version{}, errors.Newf(errors.ErrCodeInvalidBumpSpec,
			"cannot set segment %q", seg)
	}
}

func applyAppend(v version.Version, seg Seg, value string) (version.Version, error) {
	switch seg {
	case SegPre:
		pre, err := parsePreValue(value)
		if err != nil {
			return version.Version{}, err
		}
		v.Pre = pre
		return v, nil
	case SegLocal:
		segs, err := version.ParseLocal(value)
		if err != nil {
			return version.Version{}, errors.Wrap(errors.ErrCodeInvalidBumpSpec,
				"invalid local label", err)
		}
		return v.WithLocal(append(append([]version.Segment(nil), v.Local...), segs...)), nil
	default:
		return version.Version{}, errors.Newf(errors.ErrCodeInvalidBumpSpec,
			"cannot append to segment %q", seg)
	}
}

func applyClear(v version.Version, seg Seg) (version.Version, error) {
	switch seg {
	case SegPre:
		v.Pre = nil
	case SegPost:
		v.Post = nil
	case SegDev:
		v.Dev = nil
	case SegLocal:
		v.Local = nil
	default:
		return version.Version{}, errors.Newf(errors.ErrCodeInvalidBumpSpec,
			"cannot clear segment %q", seg)
	}
	return v, nil
}

// growRelease extends the release tuple with zeros so position pos exists.
func growRelease(v version.Version, pos int) version.Version {
	for len(v.Release) <= pos {
		v.Release = append(v.Release, 0)
	}
	return v
}

func parseNumber(seg Seg, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidBumpSpec,
			"segment %q requires a non-negative number, got %q", seg, value)
	}
	return n, nil
}
