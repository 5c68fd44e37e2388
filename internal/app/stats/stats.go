// Package stats aggregates listener mood history into daily, weekly and time-of-day reports.
package stats

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/osa030/moodbox/internal/domain/listener"
	"github.com/osa030/moodbox/internal/domain/mood"
)

const dateLayout = "2006-01-02"

// DaySummary describes the moods recorded on one calendar day.
type DaySummary struct {
	Date             string               `json:"date"`
	TotalRecords     int                  `json:"total_records"`
	Emotions         map[mood.Emotion]int `json:"emotions"`
	AverageIntensity float64              `json:"average_intensity"`
	MostCommon       mood.Emotion         `json:"most_common,omitempty"`
}

// DayBreakdown is one row of a weekly report.
type DayBreakdown struct {
	Date       string       `json:"date"`
	Count      int          `json:"count"`
	MostCommon mood.Emotion `json:"most_common,omitempty"`
}

// WeeklyReport covers the seven days ending on End.
type WeeklyReport struct {
	Start             string         `json:"start"`
	End               string         `json:"end"`
	TotalRecords      int            `json:"total_records"`
	Days              []DayBreakdown `json:"daily_breakdown"`
	MostCommonOverall mood.Emotion   `json:"most_common_overall,omitempty"`
}

// Period returns "start to end".
func (r WeeklyReport) Period() string {
	return r.Start + " to " + r.End
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// mostCommon returns the most frequent emotion; ties go to the first encountered.
func mostCommon(entries []listener.HistoryEntry) mood.Emotion {
	counts := make(map[mood.Emotion]int)
	var best mood.Emotion
	for _, e := range entries {
		counts[e.Emotion]++
	}
	bestCount := 0
	for _, e := range entries {
		if c := counts[e.Emotion]; c > bestCount {
			best, bestCount = e.Emotion, c
		}
	}
	return best
}

// DailySummary summarizes the entries recorded on day.
func DailySummary(history []listener.HistoryEntry, day time.Time) DaySummary {
	s := DaySummary{
		Date:     day.Format(dateLayout),
		Emotions: make(map[mood.Emotion]int),
	}
	var entries []listener.HistoryEntry
	total := decimal.Zero
	for _, e := range history {
		if !sameDay(day, e.Timestamp) {
			continue
		}
		entries = append(entries, e)
		s.Emotions[e.Emotion]++
		total = total.Add(decimal.NewFromInt(int64(e.Intensity)))
	}
	if len(entries) == 0 {
		return s
	}
	s.TotalRecords = len(entries)
	s.AverageIntensity, _ = total.Div(decimal.NewFromInt(int64(len(entries)))).Round(2).Float64()
	s.MostCommon = mostCommon(entries)
	return s
}

// BuildWeeklyReport breaks down the seven days ending on end, oldest first.
func BuildWeeklyReport(history []listener.HistoryEntry, end time.Time) WeeklyReport {
	endDay := startOfDay(end)
	startDay := endDay.AddDate(0, 0, -6)
	r := WeeklyReport{
		Start: startDay.Format(dateLayout),
		End:   endDay.Format(dateLayout),
		Days:  make([]DayBreakdown, 0, 7),
	}

	var week []listener.HistoryEntry
	for d := 0; d < 7; d++ {
		day := startDay.AddDate(0, 0, d)
		var entries []listener.HistoryEntry
		for _, e := range history {
			if sameDay(day, e.Timestamp) {
				entries = append(entries, e)
			}
		}
		week = append(week, entries...)
		r.Days = append(r.Days, DayBreakdown{
			Date:       day.Format(dateLayout),
			Count:      len(entries),
			MostCommon: mostCommon(entries),
		})
	}
	r.TotalRecords = len(week)
	r.MostCommonOverall = mostCommon(week)
	return r
}

// ListeningPatterns counts entries per time-of-day bucket. Every bucket is present.
func ListeningPatterns(history []listener.HistoryEntry) map[listener.TimeOfDay]int {
	out := make(map[listener.TimeOfDay]int, len(listener.TimesOfDay))
	for _, t := range listener.TimesOfDay {
		out[t] = 0
	}
	for _, e := range history {
		out[e.TimeOfDay]++
	}
	return out
}

var csvHeader = []string{"emotion_type", "intensity", "timestamp", "playlist_id", "time_of_day"}

// ExportCSV writes history as CSV with a header row.
func ExportCSV(w io.Writer, history []listener.HistoryEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	for _, e := range history {
		row := []string{
			string(e.Emotion),
			strconv.Itoa(e.Intensity),
			e.Timestamp.Format(time.RFC3339),
			e.PlaylistID,
			string(e.TimeOfDay),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "failed to write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}
