package connect

import (
	"time"

	"github.com/osa030/moodbox/internal/app/notification"
	"github.com/osa030/moodbox/internal/app/playback"
	"github.com/osa030/moodbox/internal/app/stats"
	"github.com/osa030/moodbox/internal/domain/listener"
	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
)

// Profile is the wire form of a listener profile.
type Profile struct {
	ProfileID      string         `json:"profile_id"`
	DisplayName    string         `json:"display_name"`
	Email          string         `json:"email,omitempty"`
	CreatedAt      string         `json:"created_at"`
	FavoriteGenres []string       `json:"favorite_genres"`
	PreferredTempo string         `json:"preferred_tempo"`
	ListeningHours map[string]int `json:"listening_hours"`
	RecentPlays    []string       `json:"recent_plays"`
	MoodCount      int            `json:"mood_count"`
}

func newProfile(p *listener.Profile) Profile {
	hours := make(map[string]int, len(p.Preferences.ListeningHours))
	for k, v := range p.Preferences.ListeningHours {
		hours[string(k)] = v
	}
	genres := p.Preferences.FavoriteGenres
	if genres == nil {
		genres = []string{}
	}
	return Profile{
		ProfileID:      p.ID,
		DisplayName:    p.DisplayName,
		Email:          p.Email,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		FavoriteGenres: genres,
		PreferredTempo: string(p.PreferredTempo()),
		ListeningHours: hours,
		RecentPlays:    p.RecentPlays(),
		MoodCount:      len(p.History()),
	}
}

// MoodService messages

type CreateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

type GetProfileRequest struct {
	ProfileID string `json:"profile_id"`
}

type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

type UpdatePreferencesRequest struct {
	ProfileID      string   `json:"profile_id"`
	DisplayName    *string  `json:"display_name,omitempty"`
	Email          *string  `json:"email,omitempty"`
	FavoriteGenres []string `json:"favorite_genres,omitempty"`
	PreferredTempo *string  `json:"preferred_tempo,omitempty"`
}

// MoodRequest carries a mood as entered by the listener.
type MoodRequest struct {
	Emotion            string `json:"emotion"`
	Intensity          int    `json:"intensity,omitempty"`
	SecondaryEmotion   string `json:"secondary_emotion,omitempty"`
	SecondaryIntensity int    `json:"secondary_intensity,omitempty"`
	Description        string `json:"description,omitempty"`
}

type RecommendRequest struct {
	ProfileID string      `json:"profile_id,omitempty"`
	Mood      MoodRequest `json:"mood"`
	Count     int         `json:"count,omitempty"`
}

type RecommendResponse struct {
	Playlist playlist.Snapshot `json:"playlist"`
	Tags     []string          `json:"mood_tags"`
}

type RecordMoodRequest struct {
	ProfileID string      `json:"profile_id"`
	Mood      MoodRequest `json:"mood"`
}

// HistoryEntry is the wire form of one recorded mood.
type HistoryEntry struct {
	Emotion    string `json:"emotion_type"`
	Intensity  int    `json:"intensity"`
	Timestamp  string `json:"timestamp"`
	PlaylistID string `json:"playlist_id,omitempty"`
	TimeOfDay  string `json:"time_of_day"`
}

func newHistoryEntry(e listener.HistoryEntry) HistoryEntry {
	return HistoryEntry{
		Emotion:    string(e.Emotion),
		Intensity:  e.Intensity,
		Timestamp:  e.Timestamp.Format(time.RFC3339),
		PlaylistID: e.PlaylistID,
		TimeOfDay:  string(e.TimeOfDay),
	}
}

type RecordMoodResponse struct {
	Entry HistoryEntry `json:"entry"`
}

type GetStatisticsRequest struct {
	ProfileID string `json:"profile_id"`
}

type GetStatisticsResponse struct {
	TotalRecords      int            `json:"total_records"`
	MostCommonMood    string         `json:"most_common_mood,omitempty"`
	MostCommonCount   int            `json:"most_common_count"`
	AverageIntensity  float64        `json:"average_intensity"`
	Distribution      map[string]int `json:"emotion_distribution"`
	FavoriteTime      string         `json:"favorite_time"`
	RecentMoods       []HistoryEntry `json:"recent_moods"`
	ListeningPatterns map[string]int `json:"listening_patterns"`
}

func newHistoryEntries(history []listener.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(history))
	for _, e := range history {
		out = append(out, newHistoryEntry(e))
	}
	return out
}

func newStatistics(st listener.MoodStatistics, recent []listener.HistoryEntry, patterns map[listener.TimeOfDay]int) *GetStatisticsResponse {
	dist := make(map[string]int, len(st.Distribution))
	for e, n := range st.Distribution {
		dist[string(e)] = n
	}
	hours := make(map[string]int, len(patterns))
	for t, n := range patterns {
		hours[string(t)] = n
	}
	return &GetStatisticsResponse{
		TotalRecords:      st.TotalRecords,
		MostCommonMood:    string(st.MostCommonMood),
		MostCommonCount:   st.MostCommonCount,
		AverageIntensity:  st.AverageIntensity,
		Distribution:      dist,
		FavoriteTime:      st.FavoriteTime,
		RecentMoods:       newHistoryEntries(recent),
		ListeningPatterns: hours,
	}
}

type GetWeeklyReportRequest struct {
	ProfileID string `json:"profile_id"`
	EndDate   string `json:"end_date,omitempty"` // YYYY-MM-DD, defaults to today
}

type GetWeeklyReportResponse struct {
	Period string             `json:"period"`
	Report stats.WeeklyReport `json:"report"`
}

type GetDailySummaryRequest struct {
	ProfileID string `json:"profile_id"`
	Date      string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

type GetDailySummaryResponse struct {
	Summary stats.DaySummary `json:"summary"`
}

type GetHistoryRequest struct {
	ProfileID string `json:"profile_id"`
	Emotion   string `json:"emotion_type,omitempty"`
	Date      string `json:"date,omitempty"` // YYYY-MM-DD
}

type GetHistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// PlayerService messages

type Empty struct{}

type PlayAtRequest struct {
	Index int `json:"index"`
}

// SetVolumeRequest sets Volume, or moves the volume by Step when Volume is nil.
type SetVolumeRequest struct {
	Volume *float64 `json:"volume,omitempty"`
	Step   *float64 `json:"step,omitempty"`
	Muted  *bool    `json:"muted,omitempty"`
}

type SortRequest struct {
	By string `json:"by"` // title, artist, rating or duration
}

type FindTracksRequest struct {
	By    string `json:"by"` // title, artist or mood
	Query string `json:"query"`
}

type FindTracksResponse struct {
	Tracks []track.Record `json:"tracks"`
}

// PlayerStatus is the wire form of playback.Status.
type PlayerStatus struct {
	State        string        `json:"state"`
	Track        *track.Record `json:"track,omitempty"`
	Index        int           `json:"index"`
	PlaylistID   string        `json:"playlist_id,omitempty"`
	PlaylistName string        `json:"playlist_name,omitempty"`
	TrackCount   int           `json:"track_count"`
	Volume       float64       `json:"volume"`
	Muted        bool          `json:"muted"`
	PositionSec  int           `json:"position_sec"`
}

func newPlayerStatus(s playback.Status) *PlayerStatus {
	out := &PlayerStatus{
		State:        s.State.String(),
		Index:        s.Index,
		PlaylistID:   s.PlaylistID,
		PlaylistName: s.PlaylistName,
		TrackCount:   s.TrackCount,
		Volume:       s.Volume,
		Muted:        s.Muted,
		PositionSec:  int(s.Position / time.Second),
	}
	if s.Track != nil {
		r := s.Track.Record()
		out.Track = &r
	}
	return out
}

// Notification is a player event streamed by PlayerService.Watch.
type Notification = notification.Notification

// AdminService messages

type ReloadCatalogResponse struct {
	Admitted int            `json:"admitted"`
	Rejected map[string]int `json:"rejected"`
}

type Strategy struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

type ListStrategiesResponse struct {
	Strategies []Strategy `json:"strategies"`
}

type SetStrategyRequest struct {
	Name     string         `json:"name"`
	Settings map[string]any `json:"settings,omitempty"`
}

type ListProfilesResponse struct {
	Profiles []Profile `json:"profiles"`
}
