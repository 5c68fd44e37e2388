// Package mood provides the mood record domain entity and tag matching.
package mood

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// DefaultIntensity is used whenever an intensity is missing or out of range.
const DefaultIntensity = 5

var ErrUnknownEmotion = errors.New("unknown emotion")

// Emotion is a lower-cased emotion type from the fixed vocabulary.
type Emotion string

const (
	Happy       Emotion = "happy"
	Sad         Emotion = "sad"
	Calm        Emotion = "calm"
	Energetic   Emotion = "energetic"
	Stressed    Emotion = "stressed"
	Anxious     Emotion = "anxious"
	Angry       Emotion = "angry"
	Bored       Emotion = "bored"
	Tired       Emotion = "tired"
	Motivated   Emotion = "motivated"
	Relaxed     Emotion = "relaxed"
	Excited     Emotion = "excited"
	Melancholic Emotion = "melancholic"
	Peaceful    Emotion = "peaceful"
	Joyful      Emotion = "joyful"
)

// Vocabulary lists every emotion a user can select.
var Vocabulary = []Emotion{
	Happy, Sad, Calm, Energetic, Stressed,
	Anxious, Angry, Bored, Tired, Motivated,
	Relaxed, Excited, Melancholic, Peaceful, Joyful,
}

// ParseEmotion normalizes s and checks it against the vocabulary.
func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Vocabulary {
		if v == e {
			return e, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownEmotion, "%q", s)
}

// Title returns the emotion with its first letter upper-cased.
func (e Emotion) Title() string {
	if e == "" {
		return ""
	}
	return strings.ToUpper(string(e[:1])) + string(e[1:])
}

// Kind distinguishes basic moods from blended ones.
type Kind int

const (
	KindBasic Kind = iota
	KindBlended
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindBlended:
		return "blended"
	default:
		return "unknown"
	}
}

// Blend is the secondary component of a blended mood.
type Blend struct {
	Emotion   Emotion
	Intensity int
}

// Record is a timestamped emotion with an intensity in [1,10].
type Record struct {
	ID          string
	Kind        Kind
	Emotion     Emotion
	Intensity   int
	Timestamp   time.Time
	Description string
	Secondary   *Blend // nil unless Kind == KindBlended
}

// NewBasic creates a basic mood record.
func NewBasic(emotion string, intensity int, description string) (Record, error) {
	e, err := ParseEmotion(emotion)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:          uuid.New().String(),
		Kind:        KindBasic,
		Emotion:     e,
		Intensity:   NormalizeIntensity(intensity),
		Timestamp:   time.Now(),
		Description: description,
	}, nil
}

// NewBlended creates a mood record mixing a primary and a secondary emotion.
func NewBlended(primary string, primaryIntensity int, secondary string, secondaryIntensity int, description string) (Record, error) {
	r, err := NewBasic(primary, primaryIntensity, description)
	if err != nil {
		return Record{}, err
	}
	s, err := ParseEmotion(secondary)
	if err != nil {
		return Record{}, errors.Wrap(err, "secondary emotion")
	}
	r.Kind = KindBlended
	r.Secondary = &Blend{
		Emotion:   s,
		Intensity: NormalizeIntensity(secondaryIntensity),
	}
	return r, nil
}

// NormalizeIntensity returns v if it is within [1,10], otherwise DefaultIntensity.
func NormalizeIntensity(v int) int {
	if v < 1 || v > 10 {
		return DefaultIntensity
	}
	return v
}

// ParseIntensity parses user input leniently; anything unusable becomes DefaultIntensity.
func ParseIntensity(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultIntensity
	}
	return NormalizeIntensity(v)
}

// SetIntensity updates the intensity, applying the same normalization as construction.
func (r *Record) SetIntensity(v int) {
	r.Intensity = NormalizeIntensity(v)
}

// IsBlended reports whether the record carries a secondary emotion.
func (r Record) IsBlended() bool {
	return r.Kind == KindBlended && r.Secondary != nil
}

// IntensityLabel returns a human-readable label for the intensity.
func (r Record) IntensityLabel() string {
	switch {
	case r.Intensity >= 8:
		return "Very Strong"
	case r.Intensity >= 6:
		return "Strong"
	case r.Intensity >= 4:
		return "Moderate"
	default:
		return "Mild"
	}
}

// MoodTags converts the record to tags: the emotion, an intensity tier and,
// for blended moods, the secondary emotion.
func (r Record) MoodTags() []string {
	tags := []string{string(r.Emotion)}
	switch {
	case r.Intensity >= 8:
		tags = append(tags, "intense")
	case r.Intensity >= 5:
		tags = append(tags, "moderate")
	default:
		tags = append(tags, "mild")
	}
	if r.IsBlended() {
		tags = append(tags, string(r.Secondary.Emotion))
	}
	return tags
}

// BlendDescription describes a blended mood as "primary with secondary".
func (r Record) BlendDescription() string {
	if !r.IsBlended() {
		return string(r.Emotion)
	}
	return fmt.Sprintf("%s with %s", r.Emotion, r.Secondary.Emotion)
}

// MatchesTag reports whether tag matches the record's primary emotion.
func (r Record) MatchesTag(tag string) bool {
	return Matches(r.Emotion, tag)
}

func (r Record) String() string {
	if r.IsBlended() {
		return fmt.Sprintf("%s + %s", r.Emotion.Title(), r.Secondary.Emotion.Title())
	}
	return fmt.Sprintf("%s (Intensity: %d/10)", r.Emotion.Title(), r.Intensity)
}

// Snapshot is the serialized form of a mood record.
type Snapshot struct {
	EmotionID          string  `json:"emotion_id"`
	EmotionType        Emotion `json:"emotion_type"`
	Intensity          int     `json:"intensity"`
	IntensityLabel     string  `json:"intensity_label"`
	Timestamp          string  `json:"timestamp"`
	Description        string  `json:"description"`
	SecondaryEmotion   Emotion `json:"secondary_emotion,omitempty"`
	SecondaryIntensity int     `json:"secondary_intensity,omitempty"`
	IsComplex          bool    `json:"is_complex,omitempty"`
	Blended            string  `json:"blended,omitempty"`
}

// Snapshot returns the serialized form of the record.
func (r Record) Snapshot() Snapshot {
	s := Snapshot{
		EmotionID:      r.ID,
		EmotionType:    r.Emotion,
		Intensity:      r.Intensity,
		IntensityLabel: r.IntensityLabel(),
		Timestamp:      r.Timestamp.Format(time.RFC3339),
		Description:    r.Description,
	}
	if r.IsBlended() {
		s.SecondaryEmotion = r.Secondary.Emotion
		s.SecondaryIntensity = r.Secondary.Intensity
		s.IsComplex = true
		s.Blended = r.BlendDescription()
	}
	return s
}
