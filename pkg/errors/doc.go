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

// Package errors provides structured error types used across monover.
//
// Every error carries an ErrorCode so that callers can react to a failure
// class without string matching: parsing failures abort a single project's
// computation, NO_VERSION_TAGS is recoverable ("project not versioned yet"),
// and the BACKWARDS_VERSION / NON_MONOTONIC_BUMP safety checks are fatal
// unless explicitly forced.
//
// Usage:
//
//	if err := doWork(); err != nil {
//	    return errors.Wrap(errors.ErrCodeGit, "resolving tags", err)
//	}
//
//	if errors.HasCode(err, errors.ErrCodeNoVersionTags) {
//	    // fall back to the project's start version
//	}
package errors
