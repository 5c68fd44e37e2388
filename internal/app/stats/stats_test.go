package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/moodbox/internal/domain/listener"
	"github.com/osa030/moodbox/internal/domain/mood"
)

func entry(e mood.Emotion, intensity int, ts time.Time) listener.HistoryEntry {
	return listener.HistoryEntry{
		Emotion:   e,
		Intensity: intensity,
		Timestamp: ts,
		TimeOfDay: listener.TimeOfDayForHour(ts.Hour()),
	}
}

func day(d, hour int) time.Time {
	return time.Date(2025, 12, d, hour, 0, 0, 0, time.UTC)
}

func TestDailySummary(t *testing.T) {
	history := []listener.HistoryEntry{
		entry(mood.Happy, 8, day(10, 9)),
		entry(mood.Sad, 3, day(10, 13)),
		entry(mood.Happy, 6, day(10, 22)),
		entry(mood.Calm, 2, day(11, 9)),
	}

	s := DailySummary(history, day(10, 0))
	assert.Equal(t, "2025-12-10", s.Date)
	assert.Equal(t, 3, s.TotalRecords)
	assert.Equal(t, map[mood.Emotion]int{mood.Happy: 2, mood.Sad: 1}, s.Emotions)
	assert.Equal(t, 5.67, s.AverageIntensity)
	assert.Equal(t, mood.Happy, s.MostCommon)

	empty := DailySummary(history, day(12, 0))
	assert.Equal(t, 0, empty.TotalRecords)
	assert.Empty(t, empty.Emotions)
	assert.Equal(t, 0.0, empty.AverageIntensity)
	assert.Equal(t, mood.Emotion(""), empty.MostCommon)
}

func TestBuildWeeklyReport(t *testing.T) {
	history := []listener.HistoryEntry{
		entry(mood.Calm, 2, day(1, 9)),
		entry(mood.Sad, 4, day(8, 9)),
		entry(mood.Sad, 4, day(8, 10)),
		entry(mood.Happy, 8, day(10, 9)),
		entry(mood.Happy, 7, day(14, 23)),
		entry(mood.Happy, 7, day(15, 9)),
	}

	r := BuildWeeklyReport(history, day(14, 18))
	assert.Equal(t, "2025-12-08 to 2025-12-14", r.Period())
	assert.Equal(t, 4, r.TotalRecords)
	require.Len(t, r.Days, 7)
	assert.Equal(t, DayBreakdown{Date: "2025-12-08", Count: 2, MostCommon: mood.Sad}, r.Days[0])
	assert.Equal(t, DayBreakdown{Date: "2025-12-09", Count: 0}, r.Days[1])
	assert.Equal(t, 1, r.Days[6].Count)
	assert.Equal(t, mood.Sad, r.MostCommonOverall)

	empty := BuildWeeklyReport(nil, day(14, 0))
	assert.Equal(t, 0, empty.TotalRecords)
	assert.Len(t, empty.Days, 7)
	assert.Equal(t, mood.Emotion(""), empty.MostCommonOverall)
}

func TestListeningPatterns(t *testing.T) {
	history := []listener.HistoryEntry{
		entry(mood.Happy, 5, day(1, 6)),
		entry(mood.Happy, 5, day(1, 7)),
		entry(mood.Happy, 5, day(1, 19)),
	}

	p := ListeningPatterns(history)
	assert.Equal(t, map[listener.TimeOfDay]int{
		listener.Morning:   2,
		listener.Afternoon: 0,
		listener.Evening:   1,
		listener.Night:     0,
	}, p)
}

func TestExportCSV(t *testing.T) {
	e := entry(mood.Happy, 8, day(1, 9))
	e.PlaylistID = "pl-1"

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, []listener.HistoryEntry{e}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "emotion_type,intensity,timestamp,playlist_id,time_of_day", lines[0])
	assert.Equal(t, "happy,8,2025-12-01T09:00:00Z,pl-1,morning", lines[1])
}
