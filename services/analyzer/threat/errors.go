// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package threat

import "errors"

// Sentinel errors for the analysis core. Only these three surface to
// callers of Analyze; everything that goes wrong inside an optional
// layer degrades to a skipped enhancement instead.
var (
	// ErrInputTooLarge indicates the snippet exceeds the hard input
	// maximum and was rejected before any layer ran.
	ErrInputTooLarge = errors.New("input exceeds maximum snippet size")

	// ErrUnsupportedLanguage indicates the language token is not in the
	// accepted set.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrInvalidSecurityLevel indicates the security level token is not
	// strict, moderate, or relaxed.
	ErrInvalidSecurityLevel = errors.New("invalid security level")
)
