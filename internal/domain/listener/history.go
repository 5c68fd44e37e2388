package listener

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/osa030/moodbox/internal/domain/mood"
)

// HistoryEntry is one recorded mood.
type HistoryEntry struct {
	Emotion    mood.Emotion
	Intensity  int
	Timestamp  time.Time
	PlaylistID string
	TimeOfDay  TimeOfDay
}

// MoodStatistics summarizes a profile's mood history.
type MoodStatistics struct {
	TotalRecords     int
	MostCommonMood   mood.Emotion
	MostCommonCount  int
	AverageIntensity float64
	Distribution     map[mood.Emotion]int
	FavoriteTime     string
}

// RecordMood appends m to the history and bumps the listening-hour bucket of at.
// A zero at means now.
func (p *Profile) RecordMood(m mood.Record, playlistID string, at time.Time) HistoryEntry {
	if at.IsZero() {
		at = time.Now()
	}
	e := HistoryEntry{
		Emotion:    m.Emotion,
		Intensity:  m.Intensity,
		Timestamp:  at,
		PlaylistID: playlistID,
		TimeOfDay:  TimeOfDayForHour(at.Hour()),
	}
	p.history = append(p.history, e)
	p.Preferences.ListeningHours[e.TimeOfDay]++
	return e
}

// History returns a copy of the full mood history, oldest first.
func (p *Profile) History() []HistoryEntry {
	return append([]HistoryEntry(nil), p.history...)
}

// HistoryByDate returns entries recorded on the same calendar day as day.
func (p *Profile) HistoryByDate(day time.Time) []HistoryEntry {
	y, m, d := day.Date()
	var out []HistoryEntry
	for _, e := range p.history {
		ey, em, ed := e.Timestamp.In(day.Location()).Date()
		if ey == y && em == m && ed == d {
			out = append(out, e)
		}
	}
	return out
}

// HistoryByEmotion returns entries with the given emotion.
func (p *Profile) HistoryByEmotion(e mood.Emotion) []HistoryEntry {
	var out []HistoryEntry
	for _, h := range p.history {
		if h.Emotion == e {
			out = append(out, h)
		}
	}
	return out
}

// RecentMoods returns the last n entries, oldest first.
func (p *Profile) RecentMoods(n int) []HistoryEntry {
	if n <= 0 {
		return nil
	}
	if n > len(p.history) {
		n = len(p.history)
	}
	return append([]HistoryEntry(nil), p.history[len(p.history)-n:]...)
}

// ClearHistory drops all history entries. The listening-hour histogram is kept.
func (p *Profile) ClearHistory() {
	p.history = nil
}

// MoodStatistics computes statistics over the full history. FavoriteTime
// comes from the listening-hour histogram and is "unknown" while the
// history is empty.
func (p *Profile) MoodStatistics() MoodStatistics {
	s := Summarize(p.history)
	if len(p.history) > 0 {
		s.FavoriteTime = p.Preferences.FavoriteTime()
	}
	return s
}

// Summarize computes statistics over entries. Ties for the most common
// emotion go to the one encountered first. FavoriteTime is derived from
// the entries' buckets.
func Summarize(entries []HistoryEntry) MoodStatistics {
	s := MoodStatistics{
		Distribution: make(map[mood.Emotion]int),
		FavoriteTime: "unknown",
	}
	if len(entries) == 0 {
		return s
	}

	var order []mood.Emotion
	hours := make(map[TimeOfDay]int)
	total := decimal.Zero
	for _, e := range entries {
		if _, seen := s.Distribution[e.Emotion]; !seen {
			order = append(order, e.Emotion)
		}
		s.Distribution[e.Emotion]++
		hours[e.TimeOfDay]++
		total = total.Add(decimal.NewFromInt(int64(e.Intensity)))
	}
	for _, e := range order {
		if c := s.Distribution[e]; c > s.MostCommonCount {
			s.MostCommonMood, s.MostCommonCount = e, c
		}
	}

	s.TotalRecords = len(entries)
	s.AverageIntensity, _ = total.Div(decimal.NewFromInt(int64(len(entries)))).Round(2).Float64()
	s.FavoriteTime = (&Preferences{ListeningHours: hours}).FavoriteTime()
	return s
}
