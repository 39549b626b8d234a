package responder

import (
	"strings"

	"github.com/ppiankov/saferstep/internal/model"
)

const (
	markerAlarm = "🚨"
	markerPin   = "📍"
	markerMap   = "🗺"
)

// Categorize derives the display category from response text.
// It looks only at the text, so it applies equally to remote replies.
func Categorize(text string) model.Category {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, markerAlarm):
		return model.CategoryEmergency
	case strings.Contains(text, markerPin) || strings.Contains(lower, "location"):
		return model.CategoryLocation
	case strings.Contains(text, markerMap) || strings.Contains(lower, "route"):
		return model.CategoryRoute
	default:
		return model.CategoryNormal
	}
}
