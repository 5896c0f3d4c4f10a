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

// Qualifier ordering within one release tuple:
//
//	1.0.dev0 < 1.0a0 < 1.0a0.post0 < 1.0b0 < 1.0rc0 < 1.0 < 1.0.post0
//
// with dev sorting below its corresponding non-dev version at every level.
// Local segments carry correlation data only and never participate in
// ordering; Compare ignores them, Equal does not.

const (
	rankBelowAll = -1 // sorts before any concrete qualifier value
	rankConcrete = 0
	rankAboveAll = 1 // sorts after any concrete qualifier value
)

// Compare returns -1, 0, or 1 comparing the public parts of a and b.
// Missing trailing release segments read as zero, so 1.0 and 1.0.0
// compare equal even though their canonical texts differ.
func Compare(a, b Version) int {
	if d := cmpInt(a.Epoch, b.Epoch); d != 0 {
		return d
	}
	if d := cmpRelease(a, b); d != 0 {
		return d
	}
	if d := cmpPre(a, b); d != 0 {
		return d
	}
	if d := cmpPost(a, b); d != 0 {
		return d
	}
	return cmpDev(a, b)
}

// Less reports whether a orders strictly before b.
func Less(a, b Version) bool {
	return Compare(a, b) < 0
}

// Equal reports whether a and b are the same version, local segments
// included. Use Compare for ordering semantics.
func Equal(a, b Version) bool {
	if Compare(a, b) != 0 {
		return false
	}
	if len(a.Local) != len(b.Local) {
		return false
	}
	for i := range a.Local {
		if a.Local[i] != b.Local[i] {
			return false
		}
	}
	return true
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpRelease(a, b Version) int {
	n := len(a.Release)
	if len(b.Release) > n {
		n = len(b.Release)
	}
	for i := 0; i < n; i++ {
		if d := cmpInt(a.releaseAt(i), b.releaseAt(i)); d != 0 {
			return d
		}
	}
	return 0
}

func preLetterRank(kind string) int {
	switch kind {
	case PreAlpha:
		return 0
	case PreBeta:
		return 1
	default:
		return 2
	}
}

// preKey ranks the pre-release qualifier. A bare dev release (no pre, no
// post) sorts below any pre-release of the same tuple; a version without
// a pre qualifier otherwise sorts above them all.
func preKey(v Version) (rank, letter, n int) {
	switch {
	case v.Pre != nil:
		return rankConcrete, preLetterRank(v.Pre.Kind), v.Pre.N
	case v.Post == nil && v.Dev != nil:
		return rankBelowAll, 0, 0
	default:
		return rankAboveAll, 0, 0
	}
}

func cmpPre(a, b Version) int {
	ar, al, an := preKey(a)
	br, bl, bn := preKey(b)
	if d := cmpInt(ar, br); d != 0 {
		return d
	}
	if d := cmpInt(al, bl); d != 0 {
		return d
	}
	return cmpInt(an, bn)
}

// postKey: absence of post sorts below any post number.
func postKey(v Version) (rank, n int) {
	if v.Post == nil {
		return rankBelowAll, 0
	}
	return rankConcrete, *v.Post
}

func cmpPost(a, b Version) int {
	ar, an := postKey(a)
	br, bn := postKey(b)
	if d := cmpInt(ar, br); d != 0 {
		return d
	}
	return cmpInt(an, bn)
}

// devKey: absence of dev sorts above any dev number.
func devKey(v Version) (rank, n int) {
	if v.Dev == nil {
		return rankAboveAll, 0
	}
	return rankConcrete, *v.Dev
}

func cmpDev(a, b Version) int {
	ar, an := devKey(a)
	br, bn := devKey(b)
	if d := cmpInt(ar, br); d != 0 {
		return d
	}
	return cmpInt(an, bn)
}
