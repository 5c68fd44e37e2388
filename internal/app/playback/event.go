package playback

import "github.com/osa030/moodbox/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted   EventType = iota // Track started playing
	EventTrackEnded                      // Track played to its end
	EventStateChanged                    // Pause, resume or stop
	EventPlaylistLoaded                  // New playlist loaded
	EventPlaylistEnded                   // Last track finished
	EventPlaylistReordered               // Shuffled or sorted
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventStateChanged:
		return "state_changed"
	case EventPlaylistLoaded:
		return "playlist_loaded"
	case EventPlaylistEnded:
		return "playlist_ended"
	case EventPlaylistReordered:
		return "playlist_reordered"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type       EventType
	Track      *track.Track // Current track (nil for some events)
	State      State        // Playback state after the event
	PlaylistID string
}
