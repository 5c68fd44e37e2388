package recommend

import (
	"math"

	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/track"
)

const (
	maxScore        = 100
	emotionMatchPts = 50
	tempoMatchPts   = 20
	ratingFactor    = 6
)

// Score rates how well t fits m on a 0-100 scale.
func Score(t *track.Track, m mood.Record) int {
	score := 0
	if t.HasTag(string(m.Emotion)) {
		score += emotionMatchPts
	}
	if tempoFits(t.Tempo(), m.Intensity) {
		score += tempoMatchPts
	}
	score += int(math.Floor(t.Rating() * ratingFactor))
	return min(score, maxScore)
}

func tempoFits(tempo track.Tempo, intensity int) bool {
	switch {
	case intensity >= 7:
		return tempo == track.TempoFast
	case intensity >= 4:
		return tempo == track.TempoMedium
	default:
		return tempo == track.TempoSlow
	}
}

// matching returns tracks tagged with m's emotion or a synonym of it.
// When nothing matches, the whole input is returned.
func matching(tracks []*track.Track, m mood.Record) []*track.Track {
	var out []*track.Track
	for _, t := range tracks {
		if mood.MatchesAny(m.Emotion, t.MoodTags()) {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return tracks
	}
	return out
}
