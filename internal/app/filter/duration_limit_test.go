package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationLimitFilter_Check(t *testing.T) {
	tests := []struct {
		name          string
		minSeconds    int
		maxSeconds    int
		trackDuration time.Duration
		shouldReject  bool
		description   string
	}{
		{
			name:          "Within limits",
			minSeconds:    60,
			maxSeconds:    300,
			trackDuration: 3 * time.Minute,
			shouldReject:  false,
			description:   "Should accept track within min/max limits",
		},
		{
			name:          "Too short",
			minSeconds:    30,
			trackDuration: 10 * time.Second,
			shouldReject:  true,
			description:   "Should reject track shorter than min",
		},
		{
			name:          "Too long",
			maxSeconds:    300,
			trackDuration: 6 * time.Minute,
			shouldReject:  true,
			description:   "Should reject track longer than max",
		},
		{
			name:          "Exact bounds",
			minSeconds:    180,
			maxSeconds:    180,
			trackDuration: 3 * time.Minute,
			shouldReject:  false,
			description:   "Should accept track exactly at min and max",
		},
		{
			name:          "No limits",
			trackDuration: 0,
			shouldReject:  false,
			description:   "Zero-length tracks pass when no minimum is set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			f.config = &DurationLimitConfig{
				MinSeconds: tt.minSeconds,
				MaxSeconds: tt.maxSeconds,
			}

			tr := newTrack(t, "t1", "Song", "Artist")
			tr.SetDuration(tt.trackDuration)
			result := f.Check(context.Background(), tr, nil)

			if tt.shouldReject {
				assert.False(t, result.Accepted, tt.description)
				assert.Equal(t, "duration_limit_exceeded", result.Code)
			} else {
				assert.True(t, result.Accepted, tt.description)
			}
		})
	}
}

func TestDurationLimitFilter_Unconfigured(t *testing.T) {
	tr := newTrack(t, "t1", "Song", "Artist")
	assert.True(t, NewDurationLimitFilter().Check(context.Background(), tr, nil).Accepted)
}

func TestDurationLimitFilter_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantErr  bool
		wantMin  int
		wantMax  int
	}{
		{
			name:     "Valid config",
			settings: map[string]any{"min_seconds": 30, "max_seconds": 600},
			wantMin:  30,
			wantMax:  600,
		},
		{
			name:     "String values from env-style config",
			settings: map[string]any{"min_seconds": "45"},
			wantMin:  45,
		},
		{
			name:     "Invalid min > max",
			settings: map[string]any{"min_seconds": 600, "max_seconds": 30},
			wantErr:  true,
		},
		{
			name:     "Invalid negative min",
			settings: map[string]any{"min_seconds": -1},
			wantErr:  true,
		},
		{
			name:     "Empty settings",
			settings: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			err := f.ValidateConfig(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantMin, f.config.MinSeconds)
			assert.Equal(t, tt.wantMax, f.config.MaxSeconds)
		})
	}
}
