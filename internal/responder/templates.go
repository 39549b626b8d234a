package responder

import (
	"fmt"

	"github.com/ppiankov/saferstep/internal/model"
)

const (
	emergencyText = "🚨 Emergency mode activated! I'm triggering your SOS alert and contacting your emergency contacts immediately. Stay calm, help is on the way."

	saferPathText = "🗺️ Here's a safer path that keeps you away from dark alleys and isolated areas: Main Street → Park Avenue → Your destination, instead of the shortcut through the back lanes.\n\n" +
		"✅ Street lighting along the whole way\n" +
		"✅ Open storefronts and steady foot traffic\n" +
		"✅ Adds only about 4 minutes\n\n" +
		"Want me to switch your navigation to this route?"

	routeText = "🗺️ I'll find the safest route for you! Based on current conditions, I recommend taking Main Street → Park Avenue → Your destination. This route has:\n\n" +
		"✅ Excellent lighting (95% operational)\n" +
		"✅ High foot traffic\n" +
		"✅ Security cameras every 100m\n" +
		"✅ Emergency call boxes\n\n" +
		"Would you like me to start navigation with live safety updates?"

	locationKnownFormat = "📍 Your current location: %s\n\n" +
		"Nearby safety features:\n" +
		"• Police station: 0.3 miles\n" +
		"• Hospital: 0.8 miles\n" +
		"• Safe haven (24/7 store): 0.1 miles\n\n" +
		"Would you like me to analyze the safety of this area?"

	// LocationUnavailableText is returned for location queries when no
	// geolocation sample exists for the session.
	LocationUnavailableText = "📍 I need location access to help you better. Please enable location services so I can provide personalized safety information."

	tipsText = "🛡️ Here are some safety tips for you:\n\n" +
		"• Trust your instincts - if something feels wrong, it probably is\n" +
		"• Stay in well-lit, populated areas\n" +
		"• Keep your phone charged and share your location with trusted contacts\n" +
		"• Use SaferStep's recommended routes\n" +
		"• Be aware of your surroundings\n\n" +
		"Would you like me to set up live tracking for your journey?"

	greetingText = "👋 Hi there! I'm your SaferStep AI assistant. I can check how safe an area is, suggest safer paths, share safety tips, or raise an SOS if you ever need help. What can I do for you?"

	fallbackText = "I understand you're asking about safety. Let me help you with that! You can ask me about:\n\n" +
		"• Area safety analysis\n" +
		"• Safe route planning\n" +
		"• Emergency assistance\n" +
		"• Location services\n" +
		"• Safety tips\n\n" +
		"What specific safety information do you need?"

	// WelcomeText opens every new session.
	WelcomeText = "Hi! I'm your SaferStep AI assistant. I can help you with safety information, safe travel planning, and emergency assistance. How can I help you stay safe today?"

	noReportsText = "✅ Good news: there are no harassment reports in this area from the past week. Stay alert anyway and keep your trusted contacts in the loop."
)

// Safety tiers for simulated scores.
const (
	TierExcellent = "excellent"
	TierGood      = "good"
	TierModerate  = "moderate"
)

// Tier maps a safety score to its qualitative tier.
func Tier(score int) string {
	switch {
	case score > 85:
		return TierExcellent
	case score > 75:
		return TierGood
	default:
		return TierModerate
	}
}

func tierCommentary(score int) string {
	switch Tier(score) {
	case TierExcellent:
		return "✅ Rated excellent: very safe, with good lighting and active community monitoring."
	case TierGood:
		return "⚠️ Rated good: generally safe. Stay alert and stick to well-lit paths."
	default:
		return "🔴 Rated moderate: exercise caution here and consider SaferStep recommended routes."
	}
}

func safetyScoreText(score int) string {
	return fmt.Sprintf("📍 Based on real-time data analysis, your current location has a safety score of %d/100. %s", score, tierCommentary(score))
}

func areaSafetyText(score int) string {
	return fmt.Sprintf("📍 Area check complete. This area currently scores %d/100 for safety. %s", score, tierCommentary(score))
}

func areaReportsText(count, daysAgo int) string {
	if count == 0 {
		return noReportsText
	}
	verb, noun := "is", "report"
	if count > 1 {
		verb, noun = "are", "reports"
	}
	dayUnit := "day"
	if daysAgo > 1 {
		dayUnit = "days"
	}
	return fmt.Sprintf("⚠️ There %s %d community %s of harassment in this area. The most recent was %d %s ago near the bus stop on Main St & 5th Ave. Keep to busy, well-lit streets and consider travelling with company after dark.",
		verb, count, noun, daysAgo, dayUnit)
}

func locationText(loc *model.Location) string {
	if loc == nil {
		return LocationUnavailableText
	}
	return fmt.Sprintf(locationKnownFormat, loc.String())
}
