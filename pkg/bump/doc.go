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

// Package bump implements the version-bump algebra: computing a new
// version from a current version and a relative or absolute specifier.
//
// A specifier is either an absolute version ("1.2.3rc1") or a comma-joined
// list of relative steps applied left to right:
//
//	+major +minor +patch     increment, zeroing lower release positions
//	                         and clearing pre/post/dev qualifiers
//	+pre +post +dev          introduce the qualifier at 0, or increment it
//	major=2 pre=rc1 dev=0    overwrite one segment, resetting nothing
//	+pre=b +local=ci.42      introduce a pre letter / extend the local label
//	-pre -post -dev -local   remove a qualifier
//
// Examples:
//
//	Apply(1.2.3,  +minor)  = 1.3.0
//	Apply(1.2.3,  +dev)    = 1.2.3.dev0
//	Apply(1.2.3.dev0, +dev) = 1.2.3.dev1
//
// The engine rejects backward absolute bumps unless forced and never
// enforces monotonicity of relative results; the plan orchestrator does.
package bump
