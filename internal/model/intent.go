package model

// Intent classifies an utterance into one of a closed set of buckets.
type Intent string

const (
	IntentEmergency     Intent = "emergency"      // SOS / help requests
	IntentSafetyScore   Intent = "safety-score"   // Explicit score queries
	IntentSaferPath     Intent = "safer-path"     // Avoid dark or isolated stretches
	IntentAreaReports   Intent = "area-reports"   // Community incident reports
	IntentAreaSafety    Intent = "area-safety"    // General "is this area safe" questions
	IntentRouteQuery    Intent = "route-query"    // Route planning
	IntentLocationQuery Intent = "location-query" // "Where am I"
	IntentTips          Intent = "tips"           // Safety advice
	IntentGreeting      Intent = "greeting"
	IntentFallback      Intent = "fallback"
	IntentDelegated     Intent = "delegated" // Text produced by a remote generator
)

// Category is the display tag attached to an assistant response.
type Category string

const (
	CategoryNormal    Category = "normal"
	CategoryLocation  Category = "location"
	CategoryEmergency Category = "emergency"
	CategoryRoute     Category = "route"
)
