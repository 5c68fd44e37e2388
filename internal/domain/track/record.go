package track

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Record is the persisted form of a track.
type Record struct {
	SongID    string   `json:"song_id" validate:"required"`
	Title     string   `json:"title" validate:"required"`
	Artist    string   `json:"artist" validate:"required"`
	FilePath  string   `json:"file_path"`
	MoodTags  []string `json:"mood_tags"`
	Tempo     string   `json:"tempo" validate:"omitempty,oneof=slow medium fast"`
	Genre     string   `json:"genre"`
	Duration  int      `json:"duration" validate:"gte=0"`
	PlayCount int      `json:"play_count" validate:"gte=0"`
	Rating    float64  `json:"rating" validate:"gte=0,lte=5"`
}

var validate = validator.New()

// Record returns the persisted form of the track. Duration is in whole seconds.
func (t *Track) Record() Record {
	return Record{
		SongID:    t.id,
		Title:     t.title,
		Artist:    t.artist,
		FilePath:  t.filePath,
		MoodTags:  t.MoodTags(),
		Tempo:     string(t.tempo),
		Genre:     t.genre,
		Duration:  int(t.duration / time.Second),
		PlayCount: t.PlayCount(),
		Rating:    t.rating,
	}
}

// FromRecord rebuilds a track from its persisted form.
func FromRecord(r Record) (*Track, error) {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Rating":
				return nil, errors.Wrapf(ErrInvalidRating, "song %q", r.SongID)
			case "Tempo":
				return nil, errors.Wrapf(ErrInvalidTempo, "song %q", r.SongID)
			case "SongID", "Title", "Artist":
				return nil, errors.Wrapf(ErrEmptyField, "song %q: %s", r.SongID, verrs[0].Field())
			}
		}
		return nil, errors.Wrapf(err, "invalid track record %q", r.SongID)
	}

	t, err := New(r.SongID, r.Title, r.Artist, r.FilePath)
	if err != nil {
		return nil, err
	}
	if r.Tempo != "" {
		if err := t.SetTempo(r.Tempo); err != nil {
			return nil, err
		}
	}
	if err := t.SetRating(r.Rating); err != nil {
		return nil, err
	}
	for _, tag := range r.MoodTags {
		t.AddMoodTag(tag)
	}
	t.SetGenre(r.Genre)
	t.SetDuration(time.Duration(r.Duration) * time.Second)
	t.SetPlayCount(r.PlayCount)
	return t, nil
}
