// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package timeago renders the relative-time labels shown next to posts,
// comments and stories ("3 hours ago").
//
// Labels are a pure function of the event instant and the current instant.
// Nothing here reads the wall clock; callers pass now explicitly.
package timeago

import (
	"time"

	"github.com/dustin/go-humanize"
)

const (
	pastSuffix   = "ago"
	futureSuffix = "from now"
	underMinute  = "less than a minute"
)

// Label returns the humanized distance from then to now with a trailing
// qualifier, e.g. "3 hours ago" or "2 days from now" for instants after
// now. Distances under one minute, including zero, render as
// "less than a minute ago" or "less than a minute from now".
func Label(then, now time.Time) string {
	d := now.Sub(then)
	if d > -time.Minute && d < time.Minute {
		if d < 0 {
			return underMinute + " " + futureSuffix
		}
		return underMinute + " " + pastSuffix
	}
	return humanize.RelTime(then, now, pastSuffix, futureSuffix)
}
