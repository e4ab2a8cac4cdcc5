// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package enforcement

import (
	"slices"
	"strings"

	"github.com/tomtom215/warden/internal/rules"
)

// ResolveTargets returns the sessions an action with the given target mode
// applies to. It never modifies ec; the returned slice is freshly allocated.
//
//	triggering      ec.Session (also for an empty target)
//	oldest          the user's active session with the earliest StartedAt
//	newest          the user's active session with the latest StartedAt
//	all_except_one  every active session of the user except the oldest
//	all_user        every active session of the user
//
// Only sessions whose ServerUserID equals ec.ServerUser.ID are considered.
// Ties on StartedAt are broken by session ID. An unknown mode selects nothing.
func ResolveTargets(ec *rules.EvaluationContext, target rules.Target) []rules.Session {
	target = target.OrDefault()
	if target == rules.TargetTriggering {
		return []rules.Session{ec.Session}
	}

	owned := userSessions(ec)
	switch target {
	case rules.TargetOldest:
		if len(owned) == 0 {
			return []rules.Session{}
		}
		return owned[:1]
	case rules.TargetNewest:
		if len(owned) == 0 {
			return []rules.Session{}
		}
		return owned[len(owned)-1:]
	case rules.TargetAllExceptOne:
		if len(owned) <= 1 {
			return []rules.Session{}
		}
		return owned[1:]
	case rules.TargetAllUser:
		return owned
	default:
		return []rules.Session{}
	}
}

// userSessions copies the context user's active sessions, oldest first.
func userSessions(ec *rules.EvaluationContext) []rules.Session {
	owned := make([]rules.Session, 0, len(ec.ActiveSessions))
	for _, s := range ec.ActiveSessions {
		if s.ServerUserID == ec.ServerUser.ID {
			owned = append(owned, s)
		}
	}
	slices.SortStableFunc(owned, func(a, b rules.Session) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return owned
}
