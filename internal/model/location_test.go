package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation_String(t *testing.T) {
	loc := Location{Latitude: 28.613939, Longitude: 77.209021}
	assert.Equal(t, "28.6139, 77.2090", loc.String())
}

func TestLocation_Valid(t *testing.T) {
	tests := []struct {
		loc  Location
		want bool
	}{
		{Location{Latitude: 28.6139, Longitude: 77.2090}, true},
		{Location{Latitude: -90, Longitude: 180}, true},
		{Location{Latitude: 90.1, Longitude: 0}, false},
		{Location{Latitude: 0, Longitude: -180.5}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.loc.Valid(), "location %s", tt.loc)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.LLM.Provider, "delegation is off unless configured")
	assert.True(t, cfg.Chat.Greeting)
	assert.Positive(t, cfg.Emergency.Delay)
	assert.Equal(t, "none", cfg.Location.Provider)
}
