package responder

import (
	"strings"

	"github.com/ppiankov/saferstep/internal/model"
)

// rule pairs a predicate over the lower-cased utterance with the builder
// for its reply. Rules are evaluated in order; the first match wins.
type rule struct {
	intent model.Intent
	match  func(msg string) bool
	build  func(r *Responder, rc Context) string
}

var rules = []rule{
	{
		intent: model.IntentEmergency,
		match: func(msg string) bool {
			return containsAny(msg, "sos", "emergency", "help me", "trigger emergency")
		},
		build: func(*Responder, Context) string { return emergencyText },
	},
	{
		intent: model.IntentSafetyScore,
		match: func(msg string) bool {
			return containsAny(msg, "safety score", "score of") ||
				containsAll(msg, "what", "safety", "location")
		},
		build: func(r *Responder, _ Context) string { return safetyScoreText(r.score()) },
	},
	{
		intent: model.IntentSaferPath,
		match: func(msg string) bool {
			return containsAny(msg, "safer path", "avoiding dark", "isolated areas") ||
				(strings.Contains(msg, "avoid") && containsAny(msg, "alley", "dark"))
		},
		build: func(*Responder, Context) string { return saferPathText },
	},
	{
		intent: model.IntentAreaReports,
		match: func(msg string) bool {
			return strings.Contains(msg, "harassment") || containsAll(msg, "reports", "area")
		},
		build: func(r *Responder, _ Context) string {
			count := between(r.rng, 0, 4)
			if count == 0 {
				return areaReportsText(0, 0)
			}
			return areaReportsText(count, between(r.rng, 1, 7))
		},
	},
	{
		intent: model.IntentAreaSafety,
		match: func(msg string) bool {
			return containsAny(msg, "safe", "safety") && containsAny(msg, "area", "location", "here", "this")
		},
		build: func(r *Responder, _ Context) string { return areaSafetyText(r.score()) },
	},
	{
		intent: model.IntentRouteQuery,
		match: func(msg string) bool {
			return containsAny(msg, "route", "way home", "directions", "safest way", "navigation")
		},
		build: func(*Responder, Context) string { return routeText },
	},
	{
		intent: model.IntentLocationQuery,
		match: func(msg string) bool {
			return containsAny(msg, "location", "where am i", "current position", "my location")
		},
		build: func(_ *Responder, rc Context) string { return locationText(rc.Location) },
	},
	{
		intent: model.IntentTips,
		match: func(msg string) bool {
			return containsAny(msg, "tips", "advice", "how to")
		},
		build: func(*Responder, Context) string { return tipsText },
	},
	{
		intent: model.IntentGreeting,
		match: func(msg string) bool {
			return containsAny(msg, "hello", "hi", "hey")
		},
		build: func(*Responder, Context) string { return greetingText },
	},
}

var fallbackRule = rule{
	intent: model.IntentFallback,
	match:  func(string) bool { return true },
	build:  func(*Responder, Context) string { return fallbackText },
}

// Classify returns the intent the local rules select for an utterance.
// Selection is deterministic; only the embedded numbers vary between calls.
func Classify(utterance string) model.Intent {
	return selectRule(strings.ToLower(utterance)).intent
}

func selectRule(msg string) rule {
	for _, r := range rules {
		if r.match(msg) {
			return r
		}
	}
	return fallbackRule
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
